//go:build integration

// Package integration содержит интеграционные тесты пайплайна защиты позиций.
//
// Проверяется взаимодействие слоев:
// - API тесты: полный HTTP цикл Handler → Service → Repository → БД
// - WebSocket тесты: подключение, broadcast событий пайплайна
// - Тесты БД: round-trip всех репозиториев на живом Postgres
//
// Тесты отделены от unit-тестов build-тегом "integration".
// Запуск: go test -tags=integration ./tests/integration/...
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"liquidityguard/internal/api"
	"liquidityguard/internal/bus"
	"liquidityguard/internal/feeds"
	"liquidityguard/internal/guard"
	"liquidityguard/internal/models"
	"liquidityguard/internal/repository"
	"liquidityguard/internal/risk"
	"liquidityguard/internal/service"
	"liquidityguard/internal/websocket"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// triggerSecret защищает demo endpoint в интеграционных тестах
const triggerSecret = "integration-trigger-secret-32chars!"

// TestConfig - параметры подключения к тестовой БД
type TestConfig struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
}

// TestServer собирает все компоненты, необходимые интеграционным тестам
type TestServer struct {
	DB       *sql.DB
	Router   *mux.Router
	Server   *httptest.Server
	Hub      *websocket.Hub
	Bus      *bus.Bus
	Watcher  *guard.Watcher
	Prices   *stubPrices
	Repos    *TestRepositories
	Services *TestServices
	Cleanup  func()
}

// TestRepositories - все репозитории для прямой работы с БД в тестах
type TestRepositories struct {
	Position     *repository.PositionRepository
	Alert        *repository.AlertRepository
	Strategy     *repository.StrategyRepository
	Execution    *repository.ExecutionRepository
	Settings     *repository.SettingsRepository
	Notification *repository.NotificationRepository
}

// TestServices - все сервисы для прямых вызовов в тестах
type TestServices struct {
	Position     *service.PositionService
	Alert        *service.AlertService
	Strategy     *service.StrategyService
	Execution    *service.ExecutionService
	Settings     *service.SettingsService
	Notification *service.NotificationService
}

// getTestConfig читает параметры тестовой БД из окружения
func getTestConfig() TestConfig {
	return TestConfig{
		DBDriver:   getEnv("TEST_DB_DRIVER", "postgres"),
		DBHost:     getEnv("TEST_DB_HOST", "localhost"),
		DBPort:     getEnv("TEST_DB_PORT", "5432"),
		DBName:     getEnv("TEST_DB_NAME", "liquidityguard_test"),
		DBUser:     getEnv("TEST_DB_USER", "postgres"),
		DBPassword: getEnv("TEST_DB_PASSWORD", "postgres"),
		DBSSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// SetupTestDB открывает подключение к тестовой БД
// Недоступная БД пропускает тест, а не валит его
func SetupTestDB(t *testing.T) (*sql.DB, func()) {
	config := getTestConfig()

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.DBHost, config.DBPort, config.DBUser, config.DBPassword, config.DBName, config.DBSSLMode,
	)

	db, err := sql.Open(config.DBDriver, connStr)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil, func() {}
	}

	if err := db.Ping(); err != nil {
		t.Skipf("Skipping integration test: cannot ping database: %v", err)
		return nil, func() {}
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	cleanup := func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}

	return db, cleanup
}

// ============================================================
// Stub-источники данных
//
// Интеграционные тесты не должны ходить во внешние API:
// feed'ы подменяются детерминированными заглушками,
// реальной остается только БД.
// ============================================================

type stubPrices struct {
	eth        float64
	drop       float64
	volatility float64
}

func (s *stubPrices) Price(_ context.Context, token string) (float64, error) {
	base := map[string]float64{"ETH": s.eth, "USDC": 1, "DAI": 1, "WBTC": 60000}[token]
	if base == 0 {
		base = 1
	}
	if token != "USDC" && token != "DAI" {
		base *= 1 - s.drop
	}
	return base, nil
}

func (s *stubPrices) Snapshot(ctx context.Context) (models.MarketSnapshot, error) {
	eth, _ := s.Price(ctx, "ETH")
	return models.MarketSnapshot{
		ETHPriceUSD: eth,
		Volatility:  5 + s.volatility,
		Timestamp:   time.Now(),
	}, nil
}

func (s *stubPrices) ApplyShock(drop, volatility float64, _ time.Duration) {
	s.drop = drop
	s.volatility = volatility
}

func (s *stubPrices) ClearShock() {
	s.drop = 0
	s.volatility = 0
}

type stubYields struct {
	current float64
	best    feeds.YieldOption
}

func (s *stubYields) Current(_ context.Context, _, _ string) float64 {
	return s.current
}

func (s *stubYields) BestAlternative(_ context.Context, _, _ string) (*feeds.YieldOption, error) {
	option := s.best
	return &option, nil
}

type stubGas struct {
	costUSD float64
}

func (s *stubGas) EstimateRebalance(_ context.Context, _, _ float64, crossChain bool, speed string) feeds.CostEstimate {
	return feeds.CostEstimate{TotalUSD: s.costUSD, CrossChain: crossChain, Speed: speed}
}

func (s *stubGas) EstimateGasless(_ float64) feeds.CostEstimate {
	return feeds.CostEstimate{TotalUSD: s.costUSD / 2, Gasless: true}
}

type stubScorer struct {
	score int
}

func (s *stubScorer) Score(_ context.Context, _, _ string, _ float64) int {
	return s.score
}

type stubQuotes struct{}

func (stubQuotes) Quote(_ context.Context, chain, fromToken, toToken string, amountUSD float64) feeds.SwapQuote {
	return feeds.SwapQuote{
		FromToken:   fromToken,
		ToToken:     toToken,
		Chain:       chain,
		AmountUSD:   amountUSD,
		ExpectedUSD: amountUSD * 0.997,
	}
}

func (q stubQuotes) FusionQuote(ctx context.Context, chain, fromToken, toToken string, amountUSD float64) feeds.SwapQuote {
	quote := q.Quote(ctx, chain, fromToken, toToken, amountUSD)
	quote.Gasless = true
	quote.MEVProtected = true
	return quote
}

// ============================================================
// Сборка тестового сервера
// ============================================================

// SetupTestServer собирает полный пайплайн поверх тестовой БД
func SetupTestServer(t *testing.T) *TestServer {
	db, dbCleanup := SetupTestDB(t)
	if db == nil {
		return nil
	}

	if err := initTestTables(db); err != nil {
		t.Skipf("Skipping integration test: cannot initialize tables: %v", err)
		return nil
	}

	logger := zap.NewNop()

	hub := websocket.NewHub(logger)
	go hub.Run()

	repos := &TestRepositories{
		Position:     repository.NewPositionRepository(db),
		Alert:        repository.NewAlertRepository(db),
		Strategy:     repository.NewStrategyRepository(db),
		Execution:    repository.NewExecutionRepository(db),
		Settings:     repository.NewSettingsRepository(db),
		Notification: repository.NewNotificationRepository(db),
	}

	pipelineBus := bus.New(16)

	prices := &stubPrices{eth: 2500}
	yields := &stubYields{current: 3.0, best: feeds.YieldOption{Protocol: "compound", Chain: "arbitrum", APY: 6.5, TVLUSD: 2e9}}

	watcher := guard.NewWatcher(guard.WatcherConfig{
		PollInterval:  100 * time.Millisecond,
		AlertCooldown: 30 * time.Minute,
	}, pipelineBus, prices, risk.NewRuleEngine(), logger)
	watcher.SetStore(repos.Position)
	watcher.SetAlertStore(repos.Alert)
	watcher.SetBroadcaster(hub)

	selector := guard.NewStrategySelector(pipelineBus, yields, &stubGas{costUSD: 20}, prices, &stubScorer{score: 3}, logger)
	selector.SetStore(repos.Strategy)
	selector.SetBroadcaster(hub)

	backend := guard.NewSimulatedBackend()
	backend.TimeScale = 0 // шаги исполняются мгновенно

	executor := guard.NewExecutor(pipelineBus, guard.NewRouteBuilder(stubQuotes{}), backend, logger)
	executor.SetStore(repos.Execution)
	executor.SetBroadcaster(hub)

	services := &TestServices{
		Position:     service.NewPositionService(repos.Position, watcher),
		Alert:        service.NewAlertService(repos.Alert),
		Strategy:     service.NewStrategyService(repos.Strategy),
		Execution:    service.NewExecutionService(repos.Execution),
		Settings:     service.NewSettingsService(repos.Settings, []byte("integration-key-32-bytes-long!!!")),
		Notification: service.NewNotificationService(repos.Notification, repos.Settings),
	}
	services.Notification.SetWebSocketHub(hub)

	router := api.SetupRoutes(&api.Dependencies{
		PositionService:     services.Position,
		AlertService:        services.Alert,
		StrategyService:     services.Strategy,
		ExecutionService:    services.Execution,
		SettingsService:     services.Settings,
		NotificationService: services.Notification,
		Monitor:             watcher,
		Shocker:             prices,
		Watcher:             watcher,
		Executor:            executor,
		Bus:                 pipelineBus,
		Hub:                 hub,
		TriggerSecret:       triggerSecret,
		Logger:              logger,
	})

	server := httptest.NewServer(router)

	ctx, cancel := context.WithCancel(context.Background())
	go selector.Run(ctx)
	go executor.Run(ctx)

	cleanup := func() {
		cancel()
		server.Close()
		hub.Stop()
		cleanupTestTables(db)
		dbCleanup()
	}

	return &TestServer{
		DB:       db,
		Router:   router,
		Server:   server,
		Hub:      hub,
		Bus:      pipelineBus,
		Watcher:  watcher,
		Prices:   prices,
		Repos:    repos,
		Services: services,
		Cleanup:  cleanup,
	}
}

// initTestTables создает таблицы для тестов
func initTestTables(db *sql.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS positions (
			id VARCHAR(64) PRIMARY KEY,
			user_address VARCHAR(64) NOT NULL,
			protocol VARCHAR(50) NOT NULL,
			chain VARCHAR(50) NOT NULL,
			collateral_token VARCHAR(20) NOT NULL,
			debt_token VARCHAR(20) NOT NULL,
			collateral_amount DECIMAL(30, 10) NOT NULL,
			debt_amount DECIMAL(30, 10) NOT NULL,
			collateral_value_usd DECIMAL(20, 2) DEFAULT 0,
			debt_value_usd DECIMAL(20, 2) DEFAULT 0,
			health_factor DECIMAL(10, 4) DEFAULT 0,
			risk_level VARCHAR(20) DEFAULT '',
			status VARCHAR(20) DEFAULT 'monitored',
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id VARCHAR(64) PRIMARY KEY,
			user_address VARCHAR(64) NOT NULL,
			position_id VARCHAR(64) NOT NULL,
			protocol VARCHAR(50) NOT NULL,
			chain VARCHAR(50) NOT NULL,
			health_factor DECIMAL(10, 4) NOT NULL,
			collateral_value DECIMAL(20, 2) NOT NULL,
			debt_value DECIMAL(20, 2) NOT NULL,
			collateral_token VARCHAR(20) NOT NULL,
			debt_token VARCHAR(20) NOT NULL,
			risk_level VARCHAR(20) NOT NULL,
			urgency INT NOT NULL,
			scenario VARCHAR(50) NOT NULL,
			priority VARCHAR(20) NOT NULL,
			time_to_liquidation BIGINT DEFAULT 0,
			forced BOOLEAN DEFAULT false,
			timestamp TIMESTAMP DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS strategies (
			id VARCHAR(64) PRIMARY KEY,
			position_id VARCHAR(64) NOT NULL,
			user_address VARCHAR(64) NOT NULL,
			current_protocol VARCHAR(50) NOT NULL,
			current_chain VARCHAR(50) NOT NULL,
			target_protocol VARCHAR(50) NOT NULL,
			target_chain VARCHAR(50) NOT NULL,
			collateral_token VARCHAR(20) NOT NULL,
			debt_token VARCHAR(20) NOT NULL,
			amount_usd DECIMAL(20, 2) NOT NULL,
			current_apy DECIMAL(10, 4) NOT NULL,
			target_apy DECIMAL(10, 4) NOT NULL,
			apy_improvement DECIMAL(10, 4) NOT NULL,
			estimated_cost_usd DECIMAL(20, 2) NOT NULL,
			break_even_months DECIMAL(10, 2) NOT NULL,
			score DECIMAL(10, 2) NOT NULL,
			urgency INT NOT NULL,
			method VARCHAR(30) NOT NULL,
			priority VARCHAR(20) NOT NULL,
			timestamp TIMESTAMP DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS routes (
			id VARCHAR(64) PRIMARY KEY,
			strategy_id VARCHAR(64) NOT NULL,
			position_id VARCHAR(64) NOT NULL,
			user_address VARCHAR(64) NOT NULL,
			method VARCHAR(30) NOT NULL,
			priority VARCHAR(20) NOT NULL,
			steps JSONB NOT NULL DEFAULT '[]',
			total_cost_usd DECIMAL(20, 2) NOT NULL,
			estimated_time BIGINT NOT NULL,
			status VARCHAR(20) NOT NULL,
			created_at TIMESTAMP DEFAULT NOW(),
			started_at TIMESTAMP,
			completed_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS execution_results (
			route_id VARCHAR(64) PRIMARY KEY,
			strategy_id VARCHAR(64) NOT NULL,
			position_id VARCHAR(64) NOT NULL,
			success BOOLEAN NOT NULL,
			status VARCHAR(20) NOT NULL,
			completed_steps INT NOT NULL,
			total_steps INT NOT NULL,
			tx_hashes JSONB DEFAULT '[]',
			actual_cost_usd DECIMAL(20, 2) NOT NULL,
			message TEXT DEFAULT '',
			timestamp TIMESTAMP DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id SERIAL PRIMARY KEY,
			timestamp TIMESTAMP DEFAULT NOW(),
			type VARCHAR(50) NOT NULL,
			severity VARCHAR(10) DEFAULT 'info',
			position_id VARCHAR(64),
			message TEXT NOT NULL,
			meta JSONB DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			id INT PRIMARY KEY DEFAULT 1,
			auto_execute BOOLEAN DEFAULT true,
			max_concurrent_routes INT,
			etherscan_api_key TEXT DEFAULT '',
			oneinch_api_key TEXT DEFAULT '',
			notification_prefs JSONB DEFAULT '{"alert":true,"strategy":true,"execution":true,"execution_fail":true,"trigger":true,"feed_error":true,"pause":true}',
			updated_at TIMESTAMP DEFAULT NOW()
		)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	if _, err := db.Exec(`INSERT INTO settings (id) VALUES (1) ON CONFLICT (id) DO NOTHING`); err != nil {
		return fmt.Errorf("failed to insert default settings: %w", err)
	}

	return nil
}

// cleanupTestTables очищает таблицы после теста
func cleanupTestTables(db *sql.DB) {
	tables := []string{
		"execution_results",
		"routes",
		"strategies",
		"alerts",
		"notifications",
		"positions",
	}

	for _, table := range tables {
		db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
	}

	db.Exec(`UPDATE settings SET auto_execute = true, max_concurrent_routes = NULL, etherscan_api_key = '', oneinch_api_key = '' WHERE id = 1`)
}

// waitFor опрашивает условие до таймаута
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}
