package guard

import (
	"context"
	"fmt"
	"time"

	"liquidityguard/internal/bus"
	"liquidityguard/internal/models"
	"liquidityguard/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Максимально допустимая оценка риска целевого протокола
const maxProtocolRisk = 8

// Причины отклонения стратегии
const (
	RejectNoAlternative  = "no_alternative"
	RejectLowImprovement = "low_improvement"
	RejectBreakEven      = "break_even"
	RejectProtocolRisk   = "protocol_risk"
)

// Rejection описывает причину, по которой стратегия не была сформирована
// Отклонение - штатный исход, а не сбой селектора
type Rejection struct {
	Reason string
	Detail string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("strategy rejected (%s): %s", r.Reason, r.Detail)
}

// StrategyStore - персистентность принятых стратегий
// Реализуется repository.StrategyRepository, в тестах подменяется mock'ом
type StrategyStore interface {
	Create(strategy *models.Strategy) error
}

// StrategySelector выбирает прибыльную стратегию ребалансировки для алерта
//
// Конвейер: лучшая альтернатива по APY (исключая текущий протокол) →
// проверка риска целевого протокола → ворота прибыльности
// (минимальный выигрыш, срок окупаемости) → скоринг → публикация.
type StrategySelector struct {
	bus     *bus.Bus
	yields  YieldSource
	gas     GasEstimator
	prices  PriceSource
	scorer  RiskScorer
	store   StrategyStore
	logger  *zap.Logger
	wsHub   Broadcaster
	notifFn func(n *models.Notification) // callback для журнала уведомлений
}

// NewStrategySelector создает селектор стратегий
func NewStrategySelector(b *bus.Bus, yields YieldSource, gas GasEstimator, prices PriceSource, scorer RiskScorer, logger *zap.Logger) *StrategySelector {
	return &StrategySelector{
		bus:    b,
		yields: yields,
		gas:    gas,
		prices: prices,
		scorer: scorer,
		logger: logger,
	}
}

// SetStore устанавливает персистентность стратегий
func (s *StrategySelector) SetStore(store StrategyStore) {
	s.store = store
}

// SetBroadcaster устанавливает WebSocket hub для рассылки стратегий
func (s *StrategySelector) SetBroadcaster(hub Broadcaster) {
	s.wsHub = hub
}

// SetNotifyFunc устанавливает callback создания уведомлений
func (s *StrategySelector) SetNotifyFunc(fn func(n *models.Notification)) {
	s.notifFn = fn
}

// Run потребляет алерты из шины до отмены контекста
// Запускается в отдельной горутине
func (s *StrategySelector) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case alert := <-s.bus.Alerts():
			s.handleAlert(ctx, alert)
		}
	}
}

// handleAlert обрабатывает один алерт
func (s *StrategySelector) handleAlert(ctx context.Context, alert *models.Alert) {
	strategy, err := s.Select(ctx, alert)
	if err != nil {
		if rej, ok := err.(*Rejection); ok {
			RecordRejection(rej.Reason)
			s.logger.Info("strategy rejected",
				zap.String("position_id", alert.PositionID),
				zap.String("reason", rej.Reason),
				zap.String("detail", rej.Detail))
		} else {
			s.logger.Error("strategy selection failed",
				zap.String("position_id", alert.PositionID),
				zap.Error(err))
		}
		return
	}

	if err := s.bus.PublishStrategy(ctx, strategy); err != nil {
		s.logger.Error("failed to publish strategy",
			zap.String("strategy_id", strategy.ID),
			zap.Error(err))
		return
	}

	RecordStrategy(strategy.Method, strategy.Score)

	if s.store != nil {
		if err := s.store.Create(strategy); err != nil {
			s.logger.Error("failed to persist strategy",
				zap.String("strategy_id", strategy.ID),
				zap.Error(err))
		}
	}
	if s.wsHub != nil {
		s.wsHub.BroadcastStrategy(strategy)
	}
	if s.notifFn != nil {
		positionID := strategy.PositionID
		s.notifFn(&models.Notification{
			Type:       models.NotificationTypeStrategy,
			Severity:   models.SeverityInfo,
			PositionID: &positionID,
			Message: fmt.Sprintf("Rebalance %s/%s → %s/%s: +%.2f%% APY, score %.0f",
				strategy.CurrentProtocol, strategy.CurrentChain,
				strategy.TargetProtocol, strategy.TargetChain,
				strategy.APYImprovement, strategy.Score),
			Meta: map[string]interface{}{
				"strategy_id":       strategy.ID,
				"method":            strategy.Method,
				"break_even_months": strategy.BreakEvenMonths,
			},
		})
	}
}

// Select формирует стратегию для алерта или возвращает *Rejection
func (s *StrategySelector) Select(ctx context.Context, alert *models.Alert) (*models.Strategy, error) {
	currentAPY := s.yields.Current(ctx, alert.Protocol, alert.CollateralToken)

	best, err := s.yields.BestAlternative(ctx, alert.CollateralToken, alert.Protocol)
	if err != nil {
		return nil, &Rejection{
			Reason: RejectNoAlternative,
			Detail: fmt.Sprintf("no alternative protocol for %s", alert.CollateralToken),
		}
	}

	// Целевой протокол не должен быть рискованнее допустимого
	if riskScore := s.scorer.Score(ctx, best.Protocol, best.Chain, alert.CollateralValue); riskScore > maxProtocolRisk {
		return nil, &Rejection{
			Reason: RejectProtocolRisk,
			Detail: fmt.Sprintf("%s on %s scored %d/10", best.Protocol, best.Chain, riskScore),
		}
	}

	improvement := best.APY - currentAPY
	if improvement < models.MinAPYImprovement {
		return nil, &Rejection{
			Reason: RejectLowImprovement,
			Detail: fmt.Sprintf("improvement %.2f%% below minimum %.1f%%", improvement, models.MinAPYImprovement),
		}
	}

	crossChain := best.Chain != alert.Chain
	method := MethodFor(alert.Urgency, alert.CollateralValue, !crossChain)
	totalCost := s.estimateCost(ctx, alert, method, crossChain)

	// Срок окупаемости: стоимость исполнения против годового выигрыша
	annualExtra := utils.AnnualYieldUSD(alert.CollateralValue, improvement)
	breakEvenMonths := utils.BreakEvenMonths(totalCost, annualExtra, float64(models.BreakEvenNever))

	// Рискованным позициям даем больше времени на окупаемость
	maxBreakEven := 3.0
	if alert.HealthFactor < 1.4 {
		maxBreakEven = 6.0
	}
	if breakEvenMonths > maxBreakEven {
		return nil, &Rejection{
			Reason: RejectBreakEven,
			Detail: fmt.Sprintf("break-even %.1f months exceeds %.0f", breakEvenMonths, maxBreakEven),
		}
	}

	return &models.Strategy{
		ID:               uuid.NewString(),
		PositionID:       alert.PositionID,
		UserAddress:      alert.UserAddress,
		CurrentProtocol:  alert.Protocol,
		CurrentChain:     alert.Chain,
		TargetProtocol:   best.Protocol,
		TargetChain:      best.Chain,
		CollateralToken:  alert.CollateralToken,
		DebtToken:        alert.DebtToken,
		AmountUSD:        alert.CollateralValue,
		CurrentAPY:       currentAPY,
		TargetAPY:        best.APY,
		APYImprovement:   improvement,
		EstimatedCostUSD: totalCost,
		BreakEvenMonths:  breakEvenMonths,
		Score:            StrategyScoreFor(improvement, breakEvenMonths, alert.Urgency, alert.CollateralValue),
		Urgency:          alert.Urgency,
		Method:           method,
		Priority:         strategyPriority(alert.HealthFactor),
		Timestamp:        time.Now(),
	}, nil
}

// estimateCost оценивает полную стоимость исполнения для метода
func (s *StrategySelector) estimateCost(ctx context.Context, alert *models.Alert, method string, crossChain bool) float64 {
	if method == models.MethodFusionCrossChain {
		return s.gas.EstimateGasless(alert.CollateralValue).TotalUSD
	}

	ethPrice, err := s.prices.Price(ctx, "ETH")
	if err != nil || ethPrice <= 0 {
		RecordFeedError("prices")
		ethPrice = 2500 // консервативный fallback
	}
	return s.gas.EstimateRebalance(ctx, alert.CollateralValue, ethPrice, crossChain, SpeedFor(alert.Urgency)).TotalUSD
}

// StrategyScoreFor вычисляет оценку стратегии (0..100)
//
// Компоненты:
// - выигрыш APY:       min(40, improvement*8)
// - срок окупаемости:  30/20/10/0 для <1 / <3 / <6 месяцев / иначе
// - срочность:         urgency * 2
// - размер суммы:      10/7/4/2 для >$100k / >$50k / >$10k / иначе
func StrategyScoreFor(improvement, breakEvenMonths float64, urgency int, amountUSD float64) float64 {
	score := improvement * 8
	if score > 40 {
		score = 40
	}

	switch {
	case breakEvenMonths < 1:
		score += 30
	case breakEvenMonths < 3:
		score += 20
	case breakEvenMonths < 6:
		score += 10
	}

	score += float64(urgency) * 2

	switch {
	case amountUSD > 100_000:
		score += 10
	case amountUSD > 50_000:
		score += 7
	case amountUSD > 10_000:
		score += 4
	default:
		score += 2
	}

	return score
}

// strategyPriority возвращает приоритет исполнения по health factor
func strategyPriority(hf float64) string {
	switch {
	case hf < 1.3:
		return models.PriorityEmergency
	case hf < 1.5:
		return models.PriorityHigh
	default:
		return models.PriorityNormal
	}
}
