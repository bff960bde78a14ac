package api

import (
	"net/http"

	"liquidityguard/internal/api/handlers"
	"liquidityguard/internal/api/middleware"
	"liquidityguard/internal/service"
	"liquidityguard/internal/websocket"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies содержит все зависимости для API handlers
//
// nil-поля допустимы: соответствующие маршруты не регистрируются.
// Это позволяет поднимать частичный сервер в тестах.
type Dependencies struct {
	PositionService     service.PositionServiceInterface
	AlertService        service.AlertServiceInterface
	StrategyService     service.StrategyServiceInterface
	ExecutionService    service.ExecutionServiceInterface
	SettingsService     service.SettingsServiceInterface
	NotificationService service.NotificationServiceInterface

	Monitor  service.PositionMonitor
	Shocker  handlers.PriceShocker
	Watcher  handlers.WatcherStatus
	Executor handlers.ExecutorStatus
	Bus      handlers.BusStatus
	Hub      *websocket.Hub

	TriggerSecret string
	Logger        *zap.Logger
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /positions/
//	│   ├── GET / - список позиций (?user=0x...)
//	│   ├── POST / - поставить позицию под мониторинг
//	│   ├── GET /risk-summary - распределение по уровням риска
//	│   ├── GET /{id} - получить позицию
//	│   ├── DELETE /{id} - снять с мониторинга
//	│   ├── POST /{id}/pause - приостановить мониторинг
//	│   ├── POST /{id}/resume - возобновить мониторинг
//	│   ├── POST /{id}/evaluate - принудительная переоценка
//	│   ├── GET /{id}/alerts - алерты позиции
//	│   ├── GET /{id}/strategies - стратегии позиции
//	│   └── GET /{id}/routes - маршруты позиции
//	├── /alerts/
//	│   ├── GET / - последние алерты
//	│   └── GET /{id} - алерт по ID
//	├── /strategies/
//	│   ├── GET / - последние стратегии
//	│   └── GET /{id} - стратегия по ID
//	├── /routes/
//	│   ├── GET / - последние маршруты
//	│   ├── GET /active - активные маршруты
//	│   └── GET /{id} - маршрут с результатом
//	├── /executions/stats - сводка по исполнениям
//	├── /notifications/
//	│   ├── GET / - журнал уведомлений
//	│   └── DELETE / - очистка журнала
//	├── /settings/
//	│   ├── GET / - получить настройки
//	│   ├── PATCH / - частичное обновление
//	│   └── POST /reset - сброс к значениям по умолчанию
//	├── /status - состояние пайплайна
//	└── /demo/trigger - синтетический шок цен (X-Trigger-Secret)
//
// /ws/stream - WebSocket для real-time обновлений
// /health - проверка живости
// /metrics - Prometheus метрики
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	logger := zap.NewNop()
	if deps != nil && deps.Logger != nil {
		logger = deps.Logger
	}

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))
	router.Use(middleware.CORS)

	api := router.PathPrefix("/api/v1").Subrouter()

	if deps != nil && deps.PositionService != nil {
		h := handlers.NewPositionHandler(deps.PositionService)
		api.HandleFunc("/positions", h.GetPositions).Methods("GET")
		api.HandleFunc("/positions", h.CreatePosition).Methods("POST")
		api.HandleFunc("/positions/risk-summary", h.GetRiskSummary).Methods("GET")
		api.HandleFunc("/positions/{id}", h.GetPosition).Methods("GET")
		api.HandleFunc("/positions/{id}", h.DeletePosition).Methods("DELETE")
		api.HandleFunc("/positions/{id}/pause", h.PausePosition).Methods("POST")
		api.HandleFunc("/positions/{id}/resume", h.ResumePosition).Methods("POST")
		api.HandleFunc("/positions/{id}/evaluate", h.EvaluatePosition).Methods("POST")
	}

	if deps != nil && deps.AlertService != nil {
		h := handlers.NewAlertHandler(deps.AlertService)
		api.HandleFunc("/alerts", h.GetAlerts).Methods("GET")
		api.HandleFunc("/alerts/{id}", h.GetAlert).Methods("GET")
		api.HandleFunc("/positions/{id}/alerts", h.GetPositionAlerts).Methods("GET")
	}

	if deps != nil && deps.StrategyService != nil {
		h := handlers.NewStrategyHandler(deps.StrategyService)
		api.HandleFunc("/strategies", h.GetStrategies).Methods("GET")
		api.HandleFunc("/strategies/{id}", h.GetStrategy).Methods("GET")
		api.HandleFunc("/positions/{id}/strategies", h.GetPositionStrategies).Methods("GET")
	}

	if deps != nil && deps.ExecutionService != nil {
		h := handlers.NewExecutionHandler(deps.ExecutionService)
		api.HandleFunc("/routes", h.GetRoutes).Methods("GET")
		api.HandleFunc("/routes/active", h.GetActiveRoutes).Methods("GET")
		api.HandleFunc("/routes/{id}", h.GetRoute).Methods("GET")
		api.HandleFunc("/executions/stats", h.GetExecutionStats).Methods("GET")
		api.HandleFunc("/positions/{id}/routes", h.GetPositionRoutes).Methods("GET")
	}

	if deps != nil && deps.NotificationService != nil {
		h := handlers.NewNotificationHandler(deps.NotificationService)
		api.HandleFunc("/notifications", h.GetNotifications).Methods("GET")
		api.HandleFunc("/notifications", h.ClearNotifications).Methods("DELETE")
	}

	if deps != nil && deps.SettingsService != nil {
		h := handlers.NewSettingsHandler(deps.SettingsService)
		api.HandleFunc("/settings", h.GetSettings).Methods("GET")
		api.HandleFunc("/settings", h.UpdateSettings).Methods("PATCH")
		api.HandleFunc("/settings/reset", h.ResetSettings).Methods("POST")
	}

	if deps != nil && deps.Watcher != nil && deps.Executor != nil && deps.Bus != nil {
		h := handlers.NewStatusHandler(deps.Watcher, deps.Executor, deps.Bus)
		api.HandleFunc("/status", h.GetStatus).Methods("GET")
	}

	// Demo trigger защищен общим секретом
	if deps != nil && deps.Shocker != nil && deps.Monitor != nil {
		h := handlers.NewTriggerHandler(deps.Shocker, deps.Monitor, deps.NotificationService, logger)
		trigger := api.PathPrefix("/demo").Subrouter()
		trigger.Use(middleware.TriggerAuth(deps.TriggerSecret))
		trigger.HandleFunc("/trigger", h.ApplyTrigger).Methods("POST")
		trigger.HandleFunc("/trigger", h.ClearTrigger).Methods("DELETE")
	}

	// WebSocket route
	if deps != nil && deps.Hub != nil {
		hub := deps.Hub
		router.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(hub, w, r)
		})
	}

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Prometheus метрики
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}
