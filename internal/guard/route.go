package guard

import (
	"context"
	"time"

	"liquidityguard/internal/feeds"
	"liquidityguard/internal/models"

	"github.com/google/uuid"
)

// Оценки длительности шагов (секунды)
const (
	stepTimeWithdraw = 30
	stepTimeSwap     = 30
	stepTimeSupply   = 30

	bridgeTimeLayerZero = 60  // быстрый мост
	bridgeTimeStandard  = 600 // канонический мост
	bridgeTimeFusion    = 180 // Dutch auction
)

// MethodFor выбирает метод исполнения стратегии
//
// В пределах одной цепочки всегда прямой своп. Между цепочками:
// срочно и крупно - быстрый мост, срочно - стандартный,
// иначе самый дешевый gasless путь.
func MethodFor(urgency int, amountUSD float64, sameChain bool) string {
	if sameChain {
		return models.MethodDirectSwap
	}
	switch {
	case urgency >= 7 && amountUSD > 50_000:
		return models.MethodLayerZeroBridge
	case urgency >= 5:
		return models.MethodStandardBridge
	default:
		return models.MethodFusionCrossChain
	}
}

// SpeedFor возвращает уровень скорости газа для срочности
func SpeedFor(urgency int) string {
	switch {
	case urgency >= 7:
		return feeds.SpeedFast
	case urgency >= 5:
		return feeds.SpeedStandard
	default:
		return feeds.SpeedSlow
	}
}

// bridgeVia возвращает идентификатор моста для метода исполнения
func bridgeVia(method string) string {
	switch method {
	case models.MethodLayerZeroBridge:
		return "layerzero"
	case models.MethodFusionCrossChain:
		return "fusion"
	default:
		return "standard"
	}
}

// RouteBuilder строит упорядоченные планы исполнения стратегий
type RouteBuilder struct {
	quotes QuoteProvider
}

// NewRouteBuilder создает построитель маршрутов
func NewRouteBuilder(quotes QuoteProvider) *RouteBuilder {
	return &RouteBuilder{quotes: quotes}
}

// Build строит маршрут для стратегии
//
// Порядок шагов фиксирован:
//
//	withdraw → supply                          (одна цепочка)
//	withdraw → swap → bridge → swap → supply   (между цепочками)
//
// Swap и bridge появляются только при переносе между цепочками:
// в пределах одной цепочки залог переносится как есть.
// Для fusion-метода swap-шаги помечаются gasless.
func (b *RouteBuilder) Build(ctx context.Context, strategy *models.Strategy) *models.Route {
	gasless := strategy.Method == models.MethodFusionCrossChain
	crossChain := strategy.IsCrossChain()

	// Промежуточный стейбл для переноса между цепочками
	const bridgeToken = "USDC"

	steps := make([]models.Step, 0, 5)
	estimated := int64(0)

	steps = append(steps, models.Step{
		Action:    models.StepWithdraw,
		Protocol:  strategy.CurrentProtocol,
		Chain:     strategy.CurrentChain,
		FromToken: strategy.CollateralToken,
		AmountUSD: strategy.AmountUSD,
	})
	estimated += stepTimeWithdraw

	if crossChain {
		steps = append(steps, models.Step{
			Action:    models.StepSwap,
			Chain:     strategy.CurrentChain,
			FromToken: strategy.CollateralToken,
			ToToken:   bridgeToken,
			AmountUSD: strategy.AmountUSD,
			Gasless:   gasless,
		})
		estimated += b.swapTime(ctx, strategy.CurrentChain, strategy.CollateralToken, bridgeToken, strategy.AmountUSD, gasless)

		steps = append(steps, models.Step{
			Action:    models.StepBridge,
			Chain:     strategy.CurrentChain,
			FromToken: bridgeToken,
			ToToken:   bridgeToken,
			AmountUSD: strategy.AmountUSD,
			Via:       bridgeVia(strategy.Method),
			Gasless:   gasless,
		})
		estimated += bridgeTime(strategy.Method)

		steps = append(steps, models.Step{
			Action:    models.StepSwap,
			Chain:     strategy.TargetChain,
			FromToken: bridgeToken,
			ToToken:   strategy.CollateralToken,
			AmountUSD: strategy.AmountUSD,
			Gasless:   gasless,
		})
		estimated += b.swapTime(ctx, strategy.TargetChain, bridgeToken, strategy.CollateralToken, strategy.AmountUSD, gasless)
	}

	steps = append(steps, models.Step{
		Action:    models.StepSupply,
		Protocol:  strategy.TargetProtocol,
		Chain:     strategy.TargetChain,
		FromToken: strategy.CollateralToken,
		AmountUSD: strategy.AmountUSD,
	})
	estimated += stepTimeSupply

	for i := range steps {
		steps[i].Index = i
	}

	return &models.Route{
		ID:            uuid.NewString(),
		StrategyID:    strategy.ID,
		PositionID:    strategy.PositionID,
		UserAddress:   strategy.UserAddress,
		Method:        strategy.Method,
		Priority:      strategy.Priority,
		Steps:         steps,
		TotalCostUSD:  strategy.EstimatedCostUSD,
		EstimatedTime: estimated,
		Status:        models.ExecutionPending,
		CreatedAt:     time.Now(),
	}
}

// swapTime возвращает длительность swap-шага по котировке
// Gasless свопы идут через Dutch auction и занимают больше времени
func (b *RouteBuilder) swapTime(ctx context.Context, chain, fromToken, toToken string, amountUSD float64, gasless bool) int64 {
	if b.quotes != nil {
		var quote feeds.SwapQuote
		if gasless {
			quote = b.quotes.FusionQuote(ctx, chain, fromToken, toToken, amountUSD)
		} else {
			quote = b.quotes.Quote(ctx, chain, fromToken, toToken, amountUSD)
		}
		if quote.EstimatedTime > 0 {
			return int64(quote.EstimatedTime.Seconds())
		}
	}
	if gasless {
		return bridgeTimeFusion
	}
	return stepTimeSwap
}

// bridgeTime возвращает длительность bridge-шага по методу
func bridgeTime(method string) int64 {
	switch method {
	case models.MethodLayerZeroBridge:
		return bridgeTimeLayerZero
	case models.MethodFusionCrossChain:
		return bridgeTimeFusion
	default:
		return bridgeTimeStandard
	}
}
