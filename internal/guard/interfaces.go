// Package guard реализует пайплайн защиты позиций:
// Position Watcher → Strategy Selector → Route Builder & Executor.
package guard

import (
	"context"

	"liquidityguard/internal/feeds"
	"liquidityguard/internal/models"
)

// PriceSource - источник цен токенов и рыночного контекста
type PriceSource interface {
	Price(ctx context.Context, token string) (float64, error)
	Snapshot(ctx context.Context) (models.MarketSnapshot, error)
}

// YieldSource - источник доходностей протоколов
type YieldSource interface {
	Current(ctx context.Context, protocol, token string) float64
	BestAlternative(ctx context.Context, token, excludeProtocol string) (*feeds.YieldOption, error)
}

// GasEstimator - оценщик стоимости исполнения
type GasEstimator interface {
	EstimateRebalance(ctx context.Context, amountUSD, ethPrice float64, crossChain bool, speed string) feeds.CostEstimate
	EstimateGasless(amountUSD float64) feeds.CostEstimate
}

// RiskScorer - оценщик риска целевых протоколов
type RiskScorer interface {
	Score(ctx context.Context, protocol, chain string, amountUSD float64) int
}

// QuoteProvider - источник котировок обмена
type QuoteProvider interface {
	Quote(ctx context.Context, chain, fromToken, toToken string, amountUSD float64) feeds.SwapQuote
	FusionQuote(ctx context.Context, chain, fromToken, toToken string, amountUSD float64) feeds.SwapQuote
}

// ExecutionBackend исполняет отдельные шаги маршрута
//
// Возвращает хеш транзакции. Ошибка, обернутая в retry.Permanent,
// прерывает маршрут без повторных попыток.
type ExecutionBackend interface {
	ExecuteStep(ctx context.Context, route *models.Route, step models.Step) (txHash string, err error)
}

// Broadcaster - рассылка событий пайплайна подключенным UI клиентам
//
// Интерфейс разрывает циклическую зависимость guard ↔ websocket
// и упрощает тестирование.
type Broadcaster interface {
	BroadcastAlert(alert *models.Alert)
	BroadcastStrategy(strategy *models.Strategy)
	BroadcastExecution(routeID string, status string, result *models.ExecutionResult)
}

// Проверяем, что реальные клиенты реализуют интерфейсы
var (
	_ PriceSource   = (*feeds.PriceSource)(nil)
	_ YieldSource   = (*feeds.YieldSource)(nil)
	_ GasEstimator  = (*feeds.GasEstimator)(nil)
	_ RiskScorer    = (*feeds.RiskScorer)(nil)
	_ QuoteProvider = (*feeds.QuoteProvider)(nil)
)
