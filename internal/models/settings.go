package models

import "time"

// Settings представляет глобальные настройки пайплайна
type Settings struct {
	ID                  int                     `json:"id" db:"id"`
	AutoExecute         bool                    `json:"auto_execute" db:"auto_execute"`                   // исполнять маршруты без подтверждения
	MaxConcurrentRoutes *int                    `json:"max_concurrent_routes" db:"max_concurrent_routes"` // null = без ограничений
	EtherscanAPIKey     string                  `json:"-" db:"etherscan_api_key"`                         // AES-256-GCM, base64
	OneInchAPIKey       string                  `json:"-" db:"oneinch_api_key"`                           // AES-256-GCM, base64
	NotificationPrefs   NotificationPreferences `json:"notification_prefs" db:"notification_prefs"`       // JSON в БД
	UpdatedAt           time.Time               `json:"updated_at" db:"updated_at"`
}

// NotificationPreferences представляет настройки уведомлений
type NotificationPreferences struct {
	Alert         bool `json:"alert"`
	Strategy      bool `json:"strategy"`
	Execution     bool `json:"execution"`
	ExecutionFail bool `json:"execution_fail"`
	Trigger       bool `json:"trigger"`
	FeedError     bool `json:"feed_error"`
	Pause         bool `json:"pause"`
}
