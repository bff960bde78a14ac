package service

import (
	"strings"

	"liquidityguard/internal/models"
)

// WebSocketBroadcaster - интерфейс для отправки WebSocket сообщений
//
// Позволяет избежать циклических зависимостей между пакетами
// и упрощает тестирование (можно подставить mock)
type WebSocketBroadcaster interface {
	BroadcastNotification(n *models.Notification)
}

// NotificationService предоставляет бизнес-логику для управления уведомлениями
//
// Отвечает за:
// - Создание уведомлений с проверкой настроек
// - Получение списка уведомлений с фильтрацией
// - Очистку журнала уведомлений
// - Broadcast уведомлений через WebSocket
type NotificationService struct {
	notificationRepo NotificationRepositoryInterface
	settingsRepo     SettingsRepositoryInterface
	wsHub            WebSocketBroadcaster
}

// NewNotificationService создает новый экземпляр NotificationService
func NewNotificationService(
	notificationRepo NotificationRepositoryInterface,
	settingsRepo SettingsRepositoryInterface,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		settingsRepo:     settingsRepo,
	}
}

// SetWebSocketHub устанавливает WebSocket hub для broadcast уведомлений
func (s *NotificationService) SetWebSocketHub(hub WebSocketBroadcaster) {
	s.wsHub = hub
}

// CreateNotification создает новое уведомление
//
// Перед созданием проверяет настройки уведомлений (notification_prefs):
// отключенный тип молча пропускается. После создания рассылает
// уведомление через WebSocket, если hub настроен.
func (s *NotificationService) CreateNotification(n *models.Notification) error {
	enabled, err := s.isNotificationTypeEnabled(n.Type)
	if err != nil {
		// При ошибке получения настроек все равно создаем уведомление
		// (fail-safe: лучше уведомить, чем пропустить важное событие)
	} else if !enabled {
		return nil
	}

	if err := s.notificationRepo.Create(n); err != nil {
		return err
	}

	if s.wsHub != nil {
		s.wsHub.BroadcastNotification(n)
	}

	return nil
}

// GetNotifications возвращает список уведомлений с фильтрацией по типам
//
// Пустой список типов означает все типы. Новые уведомления сверху.
func (s *NotificationService) GetNotifications(types []string, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	normalizedTypes := make([]string, 0, len(types))
	for _, t := range types {
		normalized := strings.ToUpper(strings.TrimSpace(t))
		if normalized != "" && s.isValidNotificationType(normalized) {
			normalizedTypes = append(normalizedTypes, normalized)
		}
	}

	if len(normalizedTypes) > 0 {
		return s.notificationRepo.GetByTypes(normalizedTypes, limit)
	}

	return s.notificationRepo.GetRecent(limit)
}

// GetNotificationsByPosition возвращает уведомления позиции
func (s *NotificationService) GetNotificationsByPosition(positionID string, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.notificationRepo.GetByPosition(positionID, limit)
}

// ClearNotifications очищает журнал уведомлений
func (s *NotificationService) ClearNotifications() error {
	_, err := s.notificationRepo.DeleteAll()
	return err
}

// GetNotificationCount возвращает общее количество уведомлений
func (s *NotificationService) GetNotificationCount() (int, error) {
	return s.notificationRepo.Count()
}

// isNotificationTypeEnabled проверяет, включен ли тип уведомлений в настройках
func (s *NotificationService) isNotificationTypeEnabled(notifType string) (bool, error) {
	prefs, err := s.settingsRepo.GetNotificationPrefs()
	if err != nil {
		return true, err // При ошибке считаем включенным
	}

	if prefs == nil {
		return true, nil
	}

	switch strings.ToUpper(notifType) {
	case models.NotificationTypeAlert:
		return prefs.Alert, nil
	case models.NotificationTypeStrategy:
		return prefs.Strategy, nil
	case models.NotificationTypeExecution:
		return prefs.Execution, nil
	case models.NotificationTypeExecutionFail:
		return prefs.ExecutionFail, nil
	case models.NotificationTypeTrigger:
		return prefs.Trigger, nil
	case models.NotificationTypeFeedError:
		return prefs.FeedError, nil
	case models.NotificationTypePause:
		return prefs.Pause, nil
	default:
		// Неизвестный тип - считаем включенным
		return true, nil
	}
}

// isValidNotificationType проверяет, является ли тип допустимым
func (s *NotificationService) isValidNotificationType(notifType string) bool {
	validTypes := map[string]bool{
		models.NotificationTypeAlert:         true,
		models.NotificationTypeStrategy:      true,
		models.NotificationTypeExecution:     true,
		models.NotificationTypeExecutionFail: true,
		models.NotificationTypeTrigger:       true,
		models.NotificationTypeFeedError:     true,
		models.NotificationTypePause:         true,
	}
	return validTypes[strings.ToUpper(notifType)]
}

// CreateTriggerNotification создает уведомление о применении demo-триггера
func (s *NotificationService) CreateTriggerNotification(message string, meta map[string]interface{}) error {
	return s.CreateNotification(&models.Notification{
		Type:     models.NotificationTypeTrigger,
		Severity: models.SeverityWarn,
		Message:  message,
		Meta:     meta,
	})
}

// CreateFeedErrorNotification создает уведомление об ошибке внешнего источника
func (s *NotificationService) CreateFeedErrorNotification(message string, meta map[string]interface{}) error {
	return s.CreateNotification(&models.Notification{
		Type:     models.NotificationTypeFeedError,
		Severity: models.SeverityError,
		Message:  message,
		Meta:     meta,
	})
}
