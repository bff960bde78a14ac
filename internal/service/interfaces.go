package service

import (
	"context"
	"time"

	"liquidityguard/internal/models"
	"liquidityguard/internal/repository"
)

// PositionRepositoryInterface определяет интерфейс репозитория позиций
type PositionRepositoryInterface interface {
	Create(pos *models.Position) error
	GetByID(id string) (*models.Position, error)
	GetByUser(userAddress string) ([]*models.Position, error)
	GetAll() ([]*models.Position, error)
	ListMonitored() ([]*models.Position, error)
	GetByRiskLevel(riskLevel string) ([]*models.Position, error)
	Update(pos *models.Position) error
	UpdateStatus(id string, status string) error
	Delete(id string) error
	Count() (int, error)
	CountByRiskLevel() (map[string]int, error)
}

// AlertRepositoryInterface определяет интерфейс репозитория алертов
type AlertRepositoryInterface interface {
	Create(alert *models.Alert) error
	GetByID(id string) (*models.Alert, error)
	GetRecent(limit int) ([]*models.Alert, error)
	GetByPosition(positionID string, limit int) ([]*models.Alert, error)
	CountSince(since time.Time) (int, error)
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// StrategyRepositoryInterface определяет интерфейс репозитория стратегий
type StrategyRepositoryInterface interface {
	Create(strategy *models.Strategy) error
	GetByID(id string) (*models.Strategy, error)
	GetRecent(limit int) ([]*models.Strategy, error)
	GetByPosition(positionID string, limit int) ([]*models.Strategy, error)
}

// ExecutionRepositoryInterface определяет интерфейс репозитория исполнений
type ExecutionRepositoryInterface interface {
	SaveRoute(route *models.Route) error
	UpdateRoute(route *models.Route) error
	GetRouteByID(id string) (*models.Route, error)
	GetRecentRoutes(limit int) ([]*models.Route, error)
	GetRoutesByPosition(positionID string, limit int) ([]*models.Route, error)
	GetActiveRoutes() ([]*models.Route, error)
	CountRoutesByStatus() (map[string]int, error)
	SaveResult(result *models.ExecutionResult) error
	GetResultByRouteID(routeID string) (*models.ExecutionResult, error)
	GetRecentResults(limit int) ([]*models.ExecutionResult, error)
	SuccessRate(since time.Time) (float64, error)
}

// SettingsRepositoryInterface определяет интерфейс репозитория настроек
type SettingsRepositoryInterface interface {
	Get() (*models.Settings, error)
	Update(settings *models.Settings) error
	UpdateNotificationPrefs(prefs models.NotificationPreferences) error
	UpdateAutoExecute(autoExecute bool) error
	UpdateMaxConcurrentRoutes(maxRoutes *int) error
	UpdateAPIKeys(etherscanKey, oneinchKey string) error
	GetNotificationPrefs() (*models.NotificationPreferences, error)
	ResetToDefaults() error
}

// NotificationRepositoryInterface определяет интерфейс репозитория уведомлений
type NotificationRepositoryInterface interface {
	Create(n *models.Notification) error
	GetRecent(limit int) ([]*models.Notification, error)
	GetByTypes(types []string, limit int) ([]*models.Notification, error)
	GetByPosition(positionID string, limit int) ([]*models.Notification, error)
	DeleteAll() (int64, error)
	DeleteOlderThan(cutoff time.Time) (int64, error)
	Count() (int, error)
}

// Проверяем, что реальные репозитории реализуют интерфейсы
var _ PositionRepositoryInterface = (*repository.PositionRepository)(nil)
var _ AlertRepositoryInterface = (*repository.AlertRepository)(nil)
var _ StrategyRepositoryInterface = (*repository.StrategyRepository)(nil)
var _ ExecutionRepositoryInterface = (*repository.ExecutionRepository)(nil)
var _ SettingsRepositoryInterface = (*repository.SettingsRepository)(nil)
var _ NotificationRepositoryInterface = (*repository.NotificationRepository)(nil)

// PositionMonitor - интерфейс наблюдателя позиций
//
// Реализуется guard.Watcher. Сервис позиций синхронизирует
// хранилище с наблюдателем через этот интерфейс.
type PositionMonitor interface {
	Register(pos *models.Position)
	Unregister(positionID string)
	Pause(positionID string) bool
	Resume(positionID string) bool
	ForceEvaluate(ctx context.Context, positionID string) (*models.Assessment, error)
	Position(positionID string) (*models.Position, bool)
	Positions() []*models.Position
}

// ============ Интерфейсы сервисов для Dependency Injection ============

// PositionServiceInterface определяет интерфейс сервиса позиций
type PositionServiceInterface interface {
	CreatePosition(req *CreatePositionRequest) (*models.Position, error)
	GetPosition(id string) (*models.Position, error)
	GetPositions(userAddress string) ([]*models.Position, error)
	PausePosition(id string) error
	ResumePosition(id string) error
	DeletePosition(id string) error
	ForceEvaluate(ctx context.Context, id string) (*models.Assessment, error)
	GetRiskSummary() (map[string]int, error)
}

// AlertServiceInterface определяет интерфейс сервиса алертов
type AlertServiceInterface interface {
	GetAlert(id string) (*models.Alert, error)
	GetRecentAlerts(limit int) ([]*models.Alert, error)
	GetAlertsByPosition(positionID string, limit int) ([]*models.Alert, error)
	CountAlertsSince(since time.Time) (int, error)
	PruneAlerts(cutoff time.Time) (int64, error)
}

// StrategyServiceInterface определяет интерфейс сервиса стратегий
type StrategyServiceInterface interface {
	GetStrategy(id string) (*models.Strategy, error)
	GetRecentStrategies(limit int) ([]*models.Strategy, error)
	GetStrategiesByPosition(positionID string, limit int) ([]*models.Strategy, error)
}

// ExecutionServiceInterface определяет интерфейс сервиса исполнений
type ExecutionServiceInterface interface {
	GetRoute(id string) (*RouteDetails, error)
	GetRecentRoutes(limit int) ([]*models.Route, error)
	GetRoutesByPosition(positionID string, limit int) ([]*models.Route, error)
	GetActiveRoutes() ([]*models.Route, error)
	GetExecutionStats() (*ExecutionStats, error)
}

// SettingsServiceInterface определяет интерфейс сервиса настроек
type SettingsServiceInterface interface {
	GetSettings() (*models.Settings, error)
	UpdateSettings(req *UpdateSettingsRequest) (*models.Settings, error)
	GetNotificationPrefs() (*models.NotificationPreferences, error)
	DecryptedEtherscanKey() (string, error)
	DecryptedOneInchKey() (string, error)
	ResetToDefaults() error
}

// NotificationServiceInterface определяет интерфейс сервиса уведомлений
type NotificationServiceInterface interface {
	GetNotifications(types []string, limit int) ([]*models.Notification, error)
	ClearNotifications() error
	CreateNotification(n *models.Notification) error
	GetNotificationCount() (int, error)
}

// Проверяем, что реальные сервисы реализуют интерфейсы
var _ PositionServiceInterface = (*PositionService)(nil)
var _ AlertServiceInterface = (*AlertService)(nil)
var _ StrategyServiceInterface = (*StrategyService)(nil)
var _ ExecutionServiceInterface = (*ExecutionService)(nil)
var _ SettingsServiceInterface = (*SettingsService)(nil)
var _ NotificationServiceInterface = (*NotificationService)(nil)
