package guard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики пайплайна защиты позиций
// ============================================================
//
// Использование:
// - Grafana дашборды для визуализации
// - Alertmanager для уведомлений о проблемах

// ============ Метрики наблюдателя ============

// PositionsMonitored - количество позиций под мониторингом по уровням риска
var PositionsMonitored = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "liquidityguard",
		Subsystem: "watcher",
		Name:      "positions_monitored",
		Help:      "Number of monitored positions by risk level",
	},
	[]string{"risk_level"},
)

// EvaluationLatency - время полной оценки одной позиции
var EvaluationLatency = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "liquidityguard",
		Subsystem: "watcher",
		Name:      "evaluation_latency_ms",
		Help:      "Time to evaluate a single position in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500},
	},
)

// AlertsEmitted - отправленные алерты по уровням риска
var AlertsEmitted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "liquidityguard",
		Subsystem: "watcher",
		Name:      "alerts_emitted_total",
		Help:      "Total number of alerts emitted",
	},
	[]string{"risk_level"},
)

// AlertsSuppressed - алерты, подавленные cooldown-окном
var AlertsSuppressed = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "liquidityguard",
		Subsystem: "watcher",
		Name:      "alerts_suppressed_total",
		Help:      "Alerts suppressed by the cooldown window",
	},
)

// ============ Метрики селектора стратегий ============

// StrategiesProposed - принятые стратегии по методам исполнения
var StrategiesProposed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "liquidityguard",
		Subsystem: "selector",
		Name:      "strategies_proposed_total",
		Help:      "Strategies proposed by execution method",
	},
	[]string{"method"},
)

// StrategiesRejected - отклоненные стратегии по причинам
var StrategiesRejected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "liquidityguard",
		Subsystem: "selector",
		Name:      "strategies_rejected_total",
		Help:      "Strategies rejected by reason",
	},
	[]string{"reason"}, // no_alternative, low_improvement, break_even, protocol_risk
)

// StrategyScore - распределение оценок принятых стратегий
var StrategyScore = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "liquidityguard",
		Subsystem: "selector",
		Name:      "strategy_score",
		Help:      "Score distribution of proposed strategies",
		Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	},
)

// ============ Метрики исполнителя ============

// ExecutionsTotal - завершенные исполнения по исходам
var ExecutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "liquidityguard",
		Subsystem: "executor",
		Name:      "executions_total",
		Help:      "Completed route executions by outcome",
	},
	[]string{"outcome"}, // succeeded, failed
)

// ActiveRoutes - маршруты в исполнении
var ActiveRoutes = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "liquidityguard",
		Subsystem: "executor",
		Name:      "active_routes",
		Help:      "Routes currently pending or in progress",
	},
)

// StepLatency - время исполнения шага по действиям
var StepLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "liquidityguard",
		Subsystem: "executor",
		Name:      "step_latency_ms",
		Help:      "Step execution time in milliseconds by action",
		Buckets:   []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	},
	[]string{"action"},
)

// ============ Метрики внешних источников ============

// FeedErrors - ошибки внешних источников данных
var FeedErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "liquidityguard",
		Subsystem: "feeds",
		Name:      "errors_total",
		Help:      "External feed errors by source",
	},
	[]string{"source"}, // prices, yields, gas, protocol_risk, quotes
)

// BusDropped - сообщения, потерянные на рекомендательных каналах шины
var BusDropped = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "liquidityguard",
		Subsystem: "bus",
		Name:      "dropped_total",
		Help:      "Messages dropped on advisory bus lanes",
	},
	[]string{"lane"},
)

// ============ Вспомогательные функции ============

// RecordAlert записывает отправленный алерт
func RecordAlert(riskLevel string) {
	AlertsEmitted.WithLabelValues(riskLevel).Inc()
}

// RecordSuppressed записывает алерт, подавленный cooldown'ом
func RecordSuppressed() {
	AlertsSuppressed.Inc()
}

// RecordStrategy записывает принятую стратегию
func RecordStrategy(method string, score float64) {
	StrategiesProposed.WithLabelValues(method).Inc()
	StrategyScore.Observe(score)
}

// RecordRejection записывает отклоненную стратегию
func RecordRejection(reason string) {
	StrategiesRejected.WithLabelValues(reason).Inc()
}

// RecordExecution записывает завершенное исполнение
func RecordExecution(success bool) {
	outcome := "failed"
	if success {
		outcome = "succeeded"
	}
	ExecutionsTotal.WithLabelValues(outcome).Inc()
}

// RecordStepLatency записывает время исполнения шага
func RecordStepLatency(action string, latencyMs float64) {
	StepLatency.WithLabelValues(action).Observe(latencyMs)
}

// RecordFeedError записывает ошибку внешнего источника
func RecordFeedError(source string) {
	FeedErrors.WithLabelValues(source).Inc()
}
