package service

import (
	"errors"

	"liquidityguard/internal/models"
	"liquidityguard/pkg/crypto"
)

// Ошибки сервиса настроек
var (
	ErrEncryptionKeyMissing = errors.New("encryption key is not configured")
)

// UpdateSettingsRequest - запрос на частичное обновление настроек
// nil-поля не изменяются
type UpdateSettingsRequest struct {
	AutoExecute         *bool                           `json:"auto_execute,omitempty"`
	MaxConcurrentRoutes *int                            `json:"max_concurrent_routes,omitempty"`
	EtherscanAPIKey     *string                         `json:"etherscan_api_key,omitempty"` // plaintext, шифруется перед записью
	OneInchAPIKey       *string                         `json:"oneinch_api_key,omitempty"`   // plaintext, шифруется перед записью
	NotificationPrefs   *models.NotificationPreferences `json:"notification_prefs,omitempty"`
}

// SettingsService предоставляет бизнес-логику управления настройками
//
// API ключи шифруются AES-256-GCM перед записью в БД и
// расшифровываются только по явному запросу компонентов,
// которым ключ нужен для работы.
type SettingsService struct {
	settingsRepo  SettingsRepositoryInterface
	encryptionKey []byte
}

// NewSettingsService создает новый экземпляр SettingsService
func NewSettingsService(settingsRepo SettingsRepositoryInterface, encryptionKey []byte) *SettingsService {
	return &SettingsService{
		settingsRepo:  settingsRepo,
		encryptionKey: encryptionKey,
	}
}

// GetSettings возвращает настройки (API ключи остаются зашифрованными)
func (s *SettingsService) GetSettings() (*models.Settings, error) {
	return s.settingsRepo.Get()
}

// UpdateSettings применяет частичное обновление настроек
func (s *SettingsService) UpdateSettings(req *UpdateSettingsRequest) (*models.Settings, error) {
	settings, err := s.settingsRepo.Get()
	if err != nil {
		return nil, err
	}

	if req.AutoExecute != nil {
		settings.AutoExecute = *req.AutoExecute
	}
	if req.MaxConcurrentRoutes != nil {
		if *req.MaxConcurrentRoutes <= 0 {
			settings.MaxConcurrentRoutes = nil // 0 и меньше = без ограничений
		} else {
			settings.MaxConcurrentRoutes = req.MaxConcurrentRoutes
		}
	}
	if req.EtherscanAPIKey != nil {
		encrypted, err := s.encrypt(*req.EtherscanAPIKey)
		if err != nil {
			return nil, err
		}
		settings.EtherscanAPIKey = encrypted
	}
	if req.OneInchAPIKey != nil {
		encrypted, err := s.encrypt(*req.OneInchAPIKey)
		if err != nil {
			return nil, err
		}
		settings.OneInchAPIKey = encrypted
	}
	if req.NotificationPrefs != nil {
		settings.NotificationPrefs = *req.NotificationPrefs
	}

	if err := s.settingsRepo.Update(settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// GetNotificationPrefs возвращает только настройки уведомлений
func (s *SettingsService) GetNotificationPrefs() (*models.NotificationPreferences, error) {
	return s.settingsRepo.GetNotificationPrefs()
}

// DecryptedEtherscanKey возвращает расшифрованный Etherscan API ключ
func (s *SettingsService) DecryptedEtherscanKey() (string, error) {
	settings, err := s.settingsRepo.Get()
	if err != nil {
		return "", err
	}
	return s.decrypt(settings.EtherscanAPIKey)
}

// DecryptedOneInchKey возвращает расшифрованный 1inch API ключ
func (s *SettingsService) DecryptedOneInchKey() (string, error) {
	settings, err := s.settingsRepo.Get()
	if err != nil {
		return "", err
	}
	return s.decrypt(settings.OneInchAPIKey)
}

// ResetToDefaults сбрасывает настройки к значениям по умолчанию
func (s *SettingsService) ResetToDefaults() error {
	return s.settingsRepo.ResetToDefaults()
}

// encrypt шифрует значение; пустая строка остается пустой
func (s *SettingsService) encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	if len(s.encryptionKey) == 0 {
		return "", ErrEncryptionKeyMissing
	}
	return crypto.Encrypt(plaintext, s.encryptionKey)
}

// decrypt расшифровывает значение; пустая строка остается пустой
func (s *SettingsService) decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	if len(s.encryptionKey) == 0 {
		return "", ErrEncryptionKeyMissing
	}
	return crypto.Decrypt(ciphertext, s.encryptionKey)
}
