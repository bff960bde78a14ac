package utils

// logger.go - настройка структурированного логирования
//
// Обертка над zap с ротацией лог-файлов через lumberjack.
// Глобальный логгер используется только в местах, куда
// неудобно прокидывать зависимость (defer, init-пути);
// основной код получает *zap.Logger явно.

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ============================================================
// Конфигурация и инициализация
// ============================================================

// LogConfig - параметры логгера
type LogConfig struct {
	Level       string // debug, info, warn, error, fatal
	Format      string // json или text
	Output      string // путь к файлу; пусто = stderr
	Development bool   // режим разработки (stacktrace на warn)

	// Параметры ротации файла (нули = значения по умолчанию)
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Logger - обертка над zap.Logger с sugar-вариантом
type Logger struct {
	*zap.Logger
	sugar *zap.SugaredLogger
}

// InitLogger создает логгер по конфигурации. Никогда не возвращает nil:
// при некорректных параметрах применяются значения по умолчанию.
func InitLogger(config LogConfig) *Logger {
	level := parseLevel(config.Level)

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if strings.ToLower(config.Format) == "text" {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, buildSink(config), level)

	opts := []zap.Option{zap.AddCaller()}
	if config.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	} else {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	zapLogger := zap.New(core, opts...)
	return &Logger{
		Logger: zapLogger,
		sugar:  zapLogger.Sugar(),
	}
}

// buildSink возвращает приемник логов: файл с ротацией или stderr
func buildSink(config LogConfig) zapcore.WriteSyncer {
	if config.Output == "" {
		return zapcore.Lock(os.Stderr)
	}

	maxSize := config.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}
	maxBackups := config.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 5
	}
	maxAge := config.MaxAgeDays
	if maxAge <= 0 {
		maxAge = 30
	}

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   config.Output,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   true,
	})
}

// parseLevel преобразует строковый уровень в zapcore.Level
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// ============================================================
// Методы Logger
// ============================================================

// With возвращает дочерний логгер с дополнительными полями
func (l *Logger) With(fields ...zap.Field) *Logger {
	child := l.Logger.With(fields...)
	return &Logger{
		Logger: child,
		sugar:  child.Sugar(),
	}
}

// Sugar возвращает sugar-вариант логгера
func (l *Logger) Sugar() *zap.SugaredLogger {
	return l.sugar
}

// WithComponent - логгер с меткой компонента пайплайна
func (l *Logger) WithComponent(component string) *Logger {
	return l.With(Component(component))
}

// WithPosition - логгер с привязкой к позиции
func (l *Logger) WithPosition(positionID string) *Logger {
	return l.With(PositionID(positionID))
}

// WithProtocol - логгер с привязкой к протоколу
func (l *Logger) WithProtocol(protocol string) *Logger {
	return l.With(Protocol(protocol))
}

// WithRoute - логгер с привязкой к маршруту исполнения
func (l *Logger) WithRoute(routeID string) *Logger {
	return l.With(RouteID(routeID))
}

// ============================================================
// Глобальный логгер
// ============================================================

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

// InitGlobalLogger инициализирует и устанавливает глобальный логгер
func InitGlobalLogger(config LogConfig) *Logger {
	logger := InitLogger(config)
	SetGlobalLogger(logger)
	return logger
}

// SetGlobalLogger заменяет глобальный логгер
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// GetGlobalLogger возвращает глобальный логгер,
// создавая логгер по умолчанию при первом обращении
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	if globalLogger != nil {
		defer globalMu.RUnlock()
		return globalLogger
	}
	globalMu.RUnlock()

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = InitLogger(LogConfig{})
	}
	return globalLogger
}

// L - короткий алиас для GetGlobalLogger
func L() *Logger {
	return GetGlobalLogger()
}

// Debug логирует через глобальный логгер
func Debug(msg string, fields ...zap.Field) { GetGlobalLogger().Debug(msg, fields...) }

// Info логирует через глобальный логгер
func Info(msg string, fields ...zap.Field) { GetGlobalLogger().Info(msg, fields...) }

// Warn логирует через глобальный логгер
func Warn(msg string, fields ...zap.Field) { GetGlobalLogger().Warn(msg, fields...) }

// Error логирует через глобальный логгер
func Error(msg string, fields ...zap.Field) { GetGlobalLogger().Error(msg, fields...) }

// Fatal логирует через глобальный логгер и завершает процесс
func Fatal(msg string, fields ...zap.Field) { GetGlobalLogger().Fatal(msg, fields...) }

// Debugf - форматированное логирование через глобальный логгер
func Debugf(format string, args ...interface{}) { GetGlobalLogger().sugar.Debugf(format, args...) }

// Infof - форматированное логирование через глобальный логгер
func Infof(format string, args ...interface{}) { GetGlobalLogger().sugar.Infof(format, args...) }

// Warnf - форматированное логирование через глобальный логгер
func Warnf(format string, args ...interface{}) { GetGlobalLogger().sugar.Warnf(format, args...) }

// Errorf - форматированное логирование через глобальный логгер
func Errorf(format string, args ...interface{}) { GetGlobalLogger().sugar.Errorf(format, args...) }

// fieldsToInterface разворачивает zap-поля в пары ключ/значение для sugar API
func fieldsToInterface(fields []zap.Field) []interface{} {
	result := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		result = append(result, f.Key, f.Interface)
	}
	return result
}

// ============================================================
// Конструкторы типовых полей
// ============================================================

// Component - имя компонента пайплайна (watcher, selector, executor)
func Component(name string) zap.Field { return zap.String("component", name) }

// PositionID - идентификатор позиции
func PositionID(id string) zap.Field { return zap.String("position_id", id) }

// UserAddress - адрес кошелька пользователя
func UserAddress(addr string) zap.Field { return zap.String("user_address", addr) }

// Protocol - имя lending-протокола
func Protocol(name string) zap.Field { return zap.String("protocol", name) }

// Chain - имя сети
func Chain(name string) zap.Field { return zap.String("chain", name) }

// HealthFactor - текущий health factor позиции
func HealthFactor(hf float64) zap.Field { return zap.Float64("health_factor", hf) }

// RiskLevel - уровень риска (safe, watch, warning, critical)
func RiskLevel(level string) zap.Field { return zap.String("risk_level", level) }

// Urgency - срочность алерта 0-10
func Urgency(u int) zap.Field { return zap.Int("urgency", u) }

// APY - годовая доходность в процентах
func APY(apy float64) zap.Field { return zap.Float64("apy", apy) }

// AlertID - идентификатор алерта
func AlertID(id string) zap.Field { return zap.String("alert_id", id) }

// StrategyID - идентификатор стратегии
func StrategyID(id string) zap.Field { return zap.String("strategy_id", id) }

// RouteID - идентификатор маршрута исполнения
func RouteID(id string) zap.Field { return zap.String("route_id", id) }

// Step - номер шага маршрута
func Step(n int) zap.Field { return zap.Int("step", n) }

// Status - статус исполнения
func Status(s string) zap.Field { return zap.String("status", s) }

// GasUSD - стоимость газа в долларах
func GasUSD(v float64) zap.Field { return zap.Float64("gas_usd", v) }

// Latency - задержка операции в миллисекундах
func Latency(ms float64) zap.Field { return zap.Float64("latency_ms", ms) }

// RequestID - идентификатор HTTP запроса
func RequestID(id string) zap.Field { return zap.String("request_id", id) }

// Переэкспорт стандартных конструкторов zap, чтобы вызывающему коду
// не требовался прямой импорт zap ради одного поля

func String(key, value string) zap.Field          { return zap.String(key, value) }
func Int(key string, value int) zap.Field         { return zap.Int(key, value) }
func Int64(key string, value int64) zap.Field     { return zap.Int64(key, value) }
func Float64(key string, v float64) zap.Field     { return zap.Float64(key, v) }
func Bool(key string, value bool) zap.Field       { return zap.Bool(key, value) }
func Err(err error) zap.Field                     { return zap.Error(err) }
func Any(key string, value interface{}) zap.Field { return zap.Any(key, value) }
