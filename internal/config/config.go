package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config содержит всю конфигурацию приложения
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Security SecurityConfig
	Guard    GuardConfig
	Feeds    FeedsConfig
	Logging  LoggingConfig
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port     int
	Host     string
	UseHTTPS bool
	CertFile string
	KeyFile  string
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

// SecurityConfig - настройки безопасности
type SecurityConfig struct {
	EncryptionKey string // AES-256, ровно 32 байта
	TriggerSecret string // защита demo-trigger endpoint
}

// GuardConfig - параметры пайплайна защиты позиций
type GuardConfig struct {
	PollInterval  time.Duration // период опроса позиций
	AlertCooldown time.Duration // окно подавления алертов на (user, position)
	BusBufferSize int           // глубина очередей шины сообщений
	ExecTimeScale float64       // масштаб времени симулятора исполнения
}

// FeedsConfig - настройки внешних источников данных
type FeedsConfig struct {
	RequestTimeout time.Duration
	RateLimit      float64 // запросов в секунду к публичным API
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level  string
	Format string
	File   string // пустая строка = только stdout
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     getEnvAsInt("SERVER_PORT", 8080),
			Host:     getEnv("SERVER_HOST", "0.0.0.0"),
			UseHTTPS: getEnvAsBool("USE_HTTPS", false),
			CertFile: getEnv("CERT_FILE", ""),
			KeyFile:  getEnv("KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "liquidityguard"),
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Security: SecurityConfig{
			EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
			TriggerSecret: getEnv("TRIGGER_SECRET", ""),
		},
		Guard: GuardConfig{
			PollInterval:  getEnvAsDuration("POLL_INTERVAL", 30*time.Second),
			AlertCooldown: getEnvAsDuration("ALERT_COOLDOWN", 30*time.Minute),
			BusBufferSize: getEnvAsInt("BUS_BUFFER_SIZE", 128),
			ExecTimeScale: getEnvAsFloat("EXEC_TIME_SCALE", 1.0),
		},
		Feeds: FeedsConfig{
			RequestTimeout: getEnvAsDuration("FEEDS_TIMEOUT", 10*time.Second),
			RateLimit:      getEnvAsFloat("FEEDS_RATE_LIMIT", 5),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.validateSecurity(); err != nil {
		return nil, err
	}

	if err := cfg.validateRanges(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateSecurity проверяет параметры безопасности
func (c *Config) validateSecurity() error {
	// ENCRYPTION_KEY обязателен для шифрования API ключей
	if c.Security.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required for encrypting API keys")
	}

	if len(c.Security.EncryptionKey) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}

	// TRIGGER_SECRET опционален (пустой = endpoint отключен),
	// но короткий секрет хуже отсутствующего
	if c.Security.TriggerSecret != "" && len(c.Security.TriggerSecret) < 32 {
		return fmt.Errorf("TRIGGER_SECRET must be at least 32 characters when set")
	}

	return nil
}

// validateRanges проверяет числовые диапазоны параметров
func (c *Config) validateRanges() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("DB_PORT must be between 1 and 65535, got %d", c.Database.Port)
	}

	if c.Guard.PollInterval < time.Second {
		return fmt.Errorf("POLL_INTERVAL must be at least 1s, got %v", c.Guard.PollInterval)
	}

	if c.Guard.AlertCooldown < 0 {
		return fmt.Errorf("ALERT_COOLDOWN cannot be negative, got %v", c.Guard.AlertCooldown)
	}

	if c.Guard.BusBufferSize < 1 {
		return fmt.Errorf("BUS_BUFFER_SIZE must be positive, got %d", c.Guard.BusBufferSize)
	}

	if c.Guard.ExecTimeScale < 0 {
		return fmt.Errorf("EXEC_TIME_SCALE cannot be negative, got %v", c.Guard.ExecTimeScale)
	}

	if c.Feeds.RequestTimeout <= 0 {
		return fmt.Errorf("FEEDS_TIMEOUT must be positive, got %v", c.Feeds.RequestTimeout)
	}

	if c.Feeds.RateLimit <= 0 {
		return fmt.Errorf("FEEDS_RATE_LIMIT must be positive, got %v", c.Feeds.RateLimit)
	}

	return nil
}

// DSN возвращает строку подключения к базе данных
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// DSNWithoutPassword возвращает строку подключения без пароля (для логирования)
func (d DatabaseConfig) DSNWithoutPassword() string {
	return fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Name, d.SSLMode)
}

// Вспомогательные функции для чтения переменных окружения

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
