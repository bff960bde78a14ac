package repository

import (
	"database/sql"
	"errors"
	"time"

	"liquidityguard/internal/models"
)

// Ошибки репозитория настроек
var (
	ErrSettingsNotFound = errors.New("settings not found")
)

// SettingsRepository - работа с таблицей settings
//
// API ключи хранятся зашифрованными (AES-256-GCM, base64):
// репозиторий оперирует только шифротекстом, шифрование
// выполняется на уровне сервиса.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository создает новый экземпляр репозитория
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get возвращает глобальные настройки (всегда id=1, одна запись)
func (r *SettingsRepository) Get() (*models.Settings, error) {
	query := `
		SELECT id, auto_execute, max_concurrent_routes, etherscan_api_key, oneinch_api_key, notification_prefs, updated_at
		FROM settings
		WHERE id = 1`

	settings := &models.Settings{}
	var prefsJSON []byte
	err := r.db.QueryRow(query).Scan(
		&settings.ID,
		&settings.AutoExecute,
		&settings.MaxConcurrentRoutes,
		&settings.EtherscanAPIKey,
		&settings.OneInchAPIKey,
		&prefsJSON,
		&settings.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Если записи нет, создаем ее с дефолтными значениями
			return r.createDefault()
		}
		return nil, err
	}

	if len(prefsJSON) > 0 {
		if err := json.Unmarshal(prefsJSON, &settings.NotificationPrefs); err != nil {
			return nil, err
		}
	} else {
		settings.NotificationPrefs = defaultNotificationPrefs()
	}

	return settings, nil
}

// Update обновляет настройки
func (r *SettingsRepository) Update(settings *models.Settings) error {
	prefsJSON, err := json.Marshal(settings.NotificationPrefs)
	if err != nil {
		return err
	}

	query := `
		UPDATE settings
		SET auto_execute = $1, max_concurrent_routes = $2, etherscan_api_key = $3, oneinch_api_key = $4, notification_prefs = $5, updated_at = $6
		WHERE id = 1`

	settings.UpdatedAt = time.Now()

	result, err := r.db.Exec(query,
		settings.AutoExecute,
		settings.MaxConcurrentRoutes,
		settings.EtherscanAPIKey,
		settings.OneInchAPIKey,
		prefsJSON,
		settings.UpdatedAt,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrSettingsNotFound
	}

	return nil
}

// UpdateNotificationPrefs обновляет только настройки уведомлений
func (r *SettingsRepository) UpdateNotificationPrefs(prefs models.NotificationPreferences) error {
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return err
	}

	query := `
		UPDATE settings
		SET notification_prefs = $1, updated_at = $2
		WHERE id = 1`

	result, err := r.db.Exec(query, prefsJSON, time.Now())
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrSettingsNotFound
	}

	return nil
}

// UpdateAutoExecute обновляет флаг автоматического исполнения маршрутов
func (r *SettingsRepository) UpdateAutoExecute(autoExecute bool) error {
	query := `
		UPDATE settings
		SET auto_execute = $1, updated_at = $2
		WHERE id = 1`

	result, err := r.db.Exec(query, autoExecute, time.Now())
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrSettingsNotFound
	}

	return nil
}

// UpdateMaxConcurrentRoutes обновляет лимит одновременных маршрутов
func (r *SettingsRepository) UpdateMaxConcurrentRoutes(maxRoutes *int) error {
	query := `
		UPDATE settings
		SET max_concurrent_routes = $1, updated_at = $2
		WHERE id = 1`

	result, err := r.db.Exec(query, maxRoutes, time.Now())
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrSettingsNotFound
	}

	return nil
}

// UpdateAPIKeys обновляет зашифрованные API ключи
func (r *SettingsRepository) UpdateAPIKeys(etherscanKey, oneinchKey string) error {
	query := `
		UPDATE settings
		SET etherscan_api_key = $1, oneinch_api_key = $2, updated_at = $3
		WHERE id = 1`

	result, err := r.db.Exec(query, etherscanKey, oneinchKey, time.Now())
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrSettingsNotFound
	}

	return nil
}

// GetNotificationPrefs возвращает только настройки уведомлений
func (r *SettingsRepository) GetNotificationPrefs() (*models.NotificationPreferences, error) {
	query := `SELECT notification_prefs FROM settings WHERE id = 1`

	var prefsJSON []byte
	err := r.db.QueryRow(query).Scan(&prefsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			prefs := defaultNotificationPrefs()
			return &prefs, nil
		}
		return nil, err
	}

	var prefs models.NotificationPreferences
	if len(prefsJSON) > 0 {
		if err := json.Unmarshal(prefsJSON, &prefs); err != nil {
			return nil, err
		}
	} else {
		prefs = defaultNotificationPrefs()
	}

	return &prefs, nil
}

// createDefault создает запись настроек с дефолтными значениями
func (r *SettingsRepository) createDefault() (*models.Settings, error) {
	settings := &models.Settings{
		ID:                  1,
		AutoExecute:         true,
		MaxConcurrentRoutes: nil,
		NotificationPrefs:   defaultNotificationPrefs(),
		UpdatedAt:           time.Now(),
	}

	prefsJSON, err := json.Marshal(settings.NotificationPrefs)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO settings (id, auto_execute, max_concurrent_routes, etherscan_api_key, oneinch_api_key, notification_prefs, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	_, err = r.db.Exec(query,
		settings.AutoExecute,
		settings.MaxConcurrentRoutes,
		settings.EtherscanAPIKey,
		settings.OneInchAPIKey,
		prefsJSON,
		settings.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return settings, nil
}

// defaultNotificationPrefs возвращает дефолтные настройки уведомлений
func defaultNotificationPrefs() models.NotificationPreferences {
	return models.NotificationPreferences{
		Alert:         true,
		Strategy:      true,
		Execution:     true,
		ExecutionFail: true,
		Trigger:       true,
		FeedError:     true,
		Pause:         true,
	}
}

// ResetToDefaults сбрасывает настройки к значениям по умолчанию
func (r *SettingsRepository) ResetToDefaults() error {
	settings := &models.Settings{
		ID:                  1,
		AutoExecute:         true,
		MaxConcurrentRoutes: nil,
		NotificationPrefs:   defaultNotificationPrefs(),
		UpdatedAt:           time.Now(),
	}

	return r.Update(settings)
}
