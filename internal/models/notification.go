package models

import "time"

// Notification представляет уведомление о событии пайплайна
type Notification struct {
	ID         int                    `json:"id" db:"id"`
	Timestamp  time.Time              `json:"timestamp" db:"timestamp"`
	Type       string                 `json:"type" db:"type"`         // ALERT, STRATEGY, EXECUTION, EXECUTION_FAIL, TRIGGER, FEED_ERROR, PAUSE
	Severity   string                 `json:"severity" db:"severity"` // info, warn, error
	PositionID *string                `json:"position_id,omitempty" db:"position_id"`
	Message    string                 `json:"message" db:"message"`
	Meta       map[string]interface{} `json:"meta,omitempty" db:"meta"` // дополнительные данные (JSON в БД)
}

// Типы уведомлений
const (
	NotificationTypeAlert         = "ALERT"          // позиция в зоне риска
	NotificationTypeStrategy      = "STRATEGY"       // выбрана стратегия ребалансировки
	NotificationTypeExecution     = "EXECUTION"      // маршрут исполнен
	NotificationTypeExecutionFail = "EXECUTION_FAIL" // исполнение прервано
	NotificationTypeTrigger       = "TRIGGER"        // demo trigger применен
	NotificationTypeFeedError     = "FEED_ERROR"     // ошибка внешнего источника данных
	NotificationTypePause         = "PAUSE"          // пауза/возобновление мониторинга
)

// Уровни важности
const (
	SeverityInfo  = "info"
	SeverityWarn  = "warn"
	SeverityError = "error"
)
