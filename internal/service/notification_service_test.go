package service

import (
	"errors"
	"testing"

	"liquidityguard/internal/models"
)

func TestCreateNotification(t *testing.T) {
	notifRepo := NewMockNotificationRepository()
	settingsRepo := NewMockSettingsRepository()
	svc := NewNotificationService(notifRepo, settingsRepo)

	broadcaster := &MockBroadcaster{}
	svc.SetWebSocketHub(broadcaster)

	err := svc.CreateNotification(&models.Notification{
		Type:     models.NotificationTypeAlert,
		Severity: models.SeverityWarn,
		Message:  "health factor упал до 1.28",
	})
	if err != nil {
		t.Fatalf("CreateNotification() error = %v", err)
	}

	count, _ := svc.GetNotificationCount()
	if count != 1 {
		t.Errorf("count = %d, ожидалось 1", count)
	}
	if len(broadcaster.broadcasts) != 1 {
		t.Errorf("broadcasts = %d, ожидалось 1", len(broadcaster.broadcasts))
	}
}

func TestCreateNotificationDisabledType(t *testing.T) {
	notifRepo := NewMockNotificationRepository()
	settingsRepo := NewMockSettingsRepository()
	settingsRepo.settings.NotificationPrefs.Execution = false
	svc := NewNotificationService(notifRepo, settingsRepo)

	err := svc.CreateNotification(&models.Notification{
		Type:    models.NotificationTypeExecution,
		Message: "маршрут исполнен",
	})
	if err != nil {
		t.Fatalf("CreateNotification() error = %v", err)
	}

	count, _ := svc.GetNotificationCount()
	if count != 0 {
		t.Errorf("count = %d, отключенный тип должен пропускаться", count)
	}
}

func TestCreateNotificationSettingsErrorFailSafe(t *testing.T) {
	notifRepo := NewMockNotificationRepository()
	settingsRepo := NewMockSettingsRepository()
	settingsRepo.prefsErr = errors.New("db down")
	svc := NewNotificationService(notifRepo, settingsRepo)

	err := svc.CreateNotification(&models.Notification{
		Type:    models.NotificationTypeExecutionFail,
		Message: "исполнение прервано",
	})
	if err != nil {
		t.Fatalf("CreateNotification() error = %v", err)
	}

	// При недоступных настройках уведомление все равно создается
	count, _ := svc.GetNotificationCount()
	if count != 1 {
		t.Errorf("count = %d, ожидалось 1 (fail-safe)", count)
	}
}

func TestCreateNotificationRepoError(t *testing.T) {
	notifRepo := NewMockNotificationRepository()
	notifRepo.createErr = errors.New("insert failed")
	svc := NewNotificationService(notifRepo, NewMockSettingsRepository())

	err := svc.CreateNotification(&models.Notification{
		Type:    models.NotificationTypeAlert,
		Message: "test",
	})
	if err == nil {
		t.Error("CreateNotification() должен вернуть ошибку репозитория")
	}
}

func TestGetNotificationsFilteredByType(t *testing.T) {
	notifRepo := NewMockNotificationRepository()
	svc := NewNotificationService(notifRepo, NewMockSettingsRepository())

	svc.CreateNotification(&models.Notification{Type: models.NotificationTypeAlert, Message: "a"})
	svc.CreateNotification(&models.Notification{Type: models.NotificationTypeExecution, Message: "b"})
	svc.CreateNotification(&models.Notification{Type: models.NotificationTypeAlert, Message: "c"})

	filtered, err := svc.GetNotifications([]string{"alert"}, 10)
	if err != nil {
		t.Fatalf("GetNotifications() error = %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("len(filtered) = %d, ожидалось 2", len(filtered))
	}

	// Неизвестные типы отбрасываются, пустой фильтр возвращает все
	all, err := svc.GetNotifications([]string{"bogus"}, 10)
	if err != nil {
		t.Fatalf("GetNotifications() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len(all) = %d, ожидалось 3", len(all))
	}
}

func TestGetNotificationsLimitClamp(t *testing.T) {
	notifRepo := NewMockNotificationRepository()
	svc := NewNotificationService(notifRepo, NewMockSettingsRepository())

	for i := 0; i < 5; i++ {
		svc.CreateNotification(&models.Notification{Type: models.NotificationTypeAlert, Message: "x"})
	}

	result, err := svc.GetNotifications(nil, -1)
	if err != nil {
		t.Fatalf("GetNotifications() error = %v", err)
	}
	if len(result) != 5 {
		t.Errorf("len(result) = %d, ожидалось 5", len(result))
	}
}

func TestClearNotifications(t *testing.T) {
	notifRepo := NewMockNotificationRepository()
	svc := NewNotificationService(notifRepo, NewMockSettingsRepository())

	svc.CreateNotification(&models.Notification{Type: models.NotificationTypeAlert, Message: "a"})
	svc.CreateNotification(&models.Notification{Type: models.NotificationTypePause, Message: "b"})

	if err := svc.ClearNotifications(); err != nil {
		t.Fatalf("ClearNotifications() error = %v", err)
	}

	count, _ := svc.GetNotificationCount()
	if count != 0 {
		t.Errorf("count = %d после очистки", count)
	}
}

func TestIsNotificationTypeEnabled(t *testing.T) {
	settingsRepo := NewMockSettingsRepository()
	settingsRepo.settings.NotificationPrefs = models.NotificationPreferences{
		Alert:     true,
		Strategy:  false,
		Trigger:   true,
		FeedError: false,
	}
	svc := NewNotificationService(NewMockNotificationRepository(), settingsRepo)

	tests := []struct {
		notifType string
		want      bool
	}{
		{models.NotificationTypeAlert, true},
		{models.NotificationTypeStrategy, false},
		{models.NotificationTypeTrigger, true},
		{models.NotificationTypeFeedError, false},
		{"UNKNOWN_TYPE", true}, // неизвестный тип считается включенным
	}

	for _, tt := range tests {
		t.Run(tt.notifType, func(t *testing.T) {
			enabled, err := svc.isNotificationTypeEnabled(tt.notifType)
			if err != nil {
				t.Fatalf("isNotificationTypeEnabled() error = %v", err)
			}
			if enabled != tt.want {
				t.Errorf("isNotificationTypeEnabled(%q) = %v, ожидалось %v", tt.notifType, enabled, tt.want)
			}
		})
	}
}

func TestCreateTriggerNotification(t *testing.T) {
	notifRepo := NewMockNotificationRepository()
	svc := NewNotificationService(notifRepo, NewMockSettingsRepository())

	err := svc.CreateTriggerNotification("ETH -20% на 60 секунд", map[string]interface{}{
		"eth_drop": 0.2,
		"duration": 60,
	})
	if err != nil {
		t.Fatalf("CreateTriggerNotification() error = %v", err)
	}

	notifications, _ := svc.GetNotifications(nil, 10)
	if len(notifications) != 1 {
		t.Fatalf("len(notifications) = %d, ожидалось 1", len(notifications))
	}
	if notifications[0].Type != models.NotificationTypeTrigger {
		t.Errorf("Type = %q, ожидалось TRIGGER", notifications[0].Type)
	}
	if notifications[0].Severity != models.SeverityWarn {
		t.Errorf("Severity = %q, ожидалось warn", notifications[0].Severity)
	}
}
