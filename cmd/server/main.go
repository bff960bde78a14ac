package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"liquidityguard/internal/api"
	"liquidityguard/internal/bus"
	"liquidityguard/internal/config"
	"liquidityguard/internal/feeds"
	"liquidityguard/internal/guard"
	"liquidityguard/internal/models"
	"liquidityguard/internal/repository"
	"liquidityguard/internal/risk"
	"liquidityguard/internal/service"
	"liquidityguard/internal/websocket"
	"liquidityguard/pkg/utils"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	// .env опционален: в проде переменные приходят из окружения
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("failed to load config", zap.Error(err))
	}

	logger := utils.InitLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.File,
	})
	utils.SetGlobalLogger(logger)
	defer logger.Sync()

	zl := logger.Logger

	// База данных
	db, err := initDatabase(cfg)
	if err != nil {
		zl.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	zl.Info("connected to database", zap.String("dsn", cfg.Database.DSNWithoutPassword()))

	// Репозитории
	positionRepo := repository.NewPositionRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	strategyRepo := repository.NewStrategyRepository(db)
	executionRepo := repository.NewExecutionRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Сервисы без зависимостей от пайплайна
	settingsService := service.NewSettingsService(settingsRepo, []byte(cfg.Security.EncryptionKey))
	notificationService := service.NewNotificationService(notificationRepo, settingsRepo)
	alertService := service.NewAlertService(alertRepo)
	strategyService := service.NewStrategyService(strategyRepo)
	executionService := service.NewExecutionService(executionRepo)

	// Внешние источники данных: один HTTP клиент на все feed'ы
	clientCfg := feeds.DefaultClientConfig()
	clientCfg.RequestTimeout = cfg.Feeds.RequestTimeout
	clientCfg.RateLimit = cfg.Feeds.RateLimit
	feedClient := feeds.NewClient(clientCfg)

	prices := feeds.NewPriceSource(feedClient, zl)
	yields := feeds.NewYieldSource(feedClient, zl)
	scorer := feeds.NewRiskScorer(feedClient, zl)

	// API ключи хранятся зашифрованными в настройках;
	// отсутствие ключа деградирует feed на fallback-значения
	etherscanKey, err := settingsService.DecryptedEtherscanKey()
	if err != nil {
		zl.Warn("etherscan api key unavailable", zap.Error(err))
	}
	oneinchKey, err := settingsService.DecryptedOneInchKey()
	if err != nil {
		zl.Warn("1inch api key unavailable", zap.Error(err))
	}
	gas := feeds.NewGasEstimator(feedClient, etherscanKey, zl)
	quotes := feeds.NewQuoteProvider(feedClient, oneinchKey, zl)

	// Шина сообщений между стадиями пайплайна
	pipelineBus := bus.New(cfg.Guard.BusBufferSize)

	// WebSocket hub для live-обновлений дашборда
	hub := websocket.NewHub(zl)
	go hub.Run()
	notificationService.SetWebSocketHub(hub)

	// Общий callback журнала уведомлений для всех стадий
	notifyFn := func(n *models.Notification) {
		if err := notificationService.CreateNotification(n); err != nil {
			zl.Error("failed to create notification",
				zap.String("type", n.Type),
				zap.Error(err))
		}
	}

	// Position Watcher: опрос позиций и эмиссия алертов
	watcher := guard.NewWatcher(guard.WatcherConfig{
		PollInterval:  cfg.Guard.PollInterval,
		AlertCooldown: cfg.Guard.AlertCooldown,
	}, pipelineBus, prices, risk.NewRuleEngine(), zl)
	watcher.SetStore(positionRepo)
	watcher.SetAlertStore(alertRepo)
	watcher.SetBroadcaster(hub)
	watcher.SetNotifyFunc(notifyFn)

	if err := watcher.Restore(); err != nil {
		zl.Error("failed to restore monitored positions", zap.Error(err))
	}

	// Strategy Selector: алерт → прибыльная стратегия
	selector := guard.NewStrategySelector(pipelineBus, yields, gas, prices, scorer, zl)
	selector.SetStore(strategyRepo)
	selector.SetBroadcaster(hub)
	selector.SetNotifyFunc(notifyFn)

	// Route Builder & Executor: стратегия → маршрут → исполнение
	backend := guard.NewSimulatedBackend()
	backend.TimeScale = cfg.Guard.ExecTimeScale
	executor := guard.NewExecutor(pipelineBus, guard.NewRouteBuilder(quotes), backend, zl)
	executor.SetStore(executionRepo)
	executor.SetBroadcaster(hub)
	executor.SetNotifyFunc(notifyFn)

	positionService := service.NewPositionService(positionRepo, watcher)

	router := api.SetupRoutes(&api.Dependencies{
		PositionService:     positionService,
		AlertService:        alertService,
		StrategyService:     strategyService,
		ExecutionService:    executionService,
		SettingsService:     settingsService,
		NotificationService: notificationService,
		Monitor:             watcher,
		Shocker:             prices,
		Watcher:             watcher,
		Executor:            executor,
		Bus:                 pipelineBus,
		Hub:                 hub,
		TriggerSecret:       cfg.Security.TriggerSecret,
		Logger:              zl,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Стадии пайплайна живут до сигнала завершения
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go watcher.Run(ctx)
	go selector.Run(ctx)
	go executor.Run(ctx)

	go func() {
		zl.Info("starting server",
			zap.String("addr", server.Addr),
			zap.Bool("https", cfg.Server.UseHTTPS))
		var err error
		if cfg.Server.UseHTTPS {
			err = server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}

	hub.Stop()
	zl.Info("server exited")
}

// initDatabase создает подключение к базе данных с настроенным пулом
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
