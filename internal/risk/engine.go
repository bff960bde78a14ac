// Package risk содержит правила оценки риска ликвидации позиций.
package risk

import (
	"time"

	"liquidityguard/internal/models"
	"liquidityguard/pkg/utils"
)

// Порог ликвидации lending-протоколов (LTV)
const LiquidationThreshold = 0.85

// Пороги health factor для уровней риска
const (
	hfCritical = 1.3
	hfHigh     = 1.5
	hfModerate = 1.8
	hfLow      = 2.0
)

// Базовые вероятности ликвидации по диапазонам health factor (%)
const (
	probLiquidated = 100.0 // hf < 1.0
	probCritical   = 80.0  // hf < 1.3
	probHigh       = 40.0  // hf < 1.5
	probModerate   = 15.0  // hf < 1.8
	probBase       = 5.0
)

// Пороги сценариев по размеру залога (USD)
const (
	largePositionUSD = 50_000
	whalePositionUSD = 100_000
)

// HealthFactor вычисляет health factor позиции
//
// hf = collateral_usd * 0.85 / debt_usd
// Для нулевого долга возвращает +Inf-подобное большое значение:
// позиция без долга не может быть ликвидирована.
func HealthFactor(collateralUSD, debtUSD float64) float64 {
	if debtUSD <= 0 {
		return 999.0
	}
	return collateralUSD * LiquidationThreshold / debtUSD
}

// Level возвращает уровень риска для health factor
// Функция тотальна: любой hf попадает ровно в один уровень
func Level(hf float64) string {
	switch {
	case hf < hfCritical:
		return models.RiskLevelCritical
	case hf < hfHigh:
		return models.RiskLevelHigh
	case hf < hfModerate:
		return models.RiskLevelModerate
	case hf < hfLow:
		return models.RiskLevelLow
	default:
		return models.RiskLevelSafe
	}
}

// LiquidationProbability оценивает вероятность ликвидации в процентах
//
// Базовая вероятность по диапазону hf, масштабированная волатильностью:
// prob = base * (1 + volatility*0.01), с ограничением [0, 100].
func LiquidationProbability(hf, volatility float64) float64 {
	var base float64
	switch {
	case hf < 1.0:
		base = probLiquidated
	case hf < hfCritical:
		base = probCritical
	case hf < hfHigh:
		base = probHigh
	case hf < hfModerate:
		base = probModerate
	default:
		base = probBase
	}

	return utils.Clamp(base*(1+volatility*0.01), 0, 100)
}

// Urgency вычисляет срочность реагирования по шкале 0..10
//
// Сумма трех компонент:
// - health factor:        4/3/2/1/0 для hf <1.3 / <1.5 / <1.8 / <2.0 / иначе
// - вероятность:          3/2/1/0 для prob >70 / >40 / >15 / иначе
// - время до ликвидации:  3/2/1/0 для <10 мин / <1 ч / <24 ч / иначе
//
// timeToLiq <= 0 означает "не прогнозируется" и не добавляет очков.
func Urgency(hf, prob float64, timeToLiq int64) int {
	score := 0

	switch {
	case hf < hfCritical:
		score += 4
	case hf < hfHigh:
		score += 3
	case hf < hfModerate:
		score += 2
	case hf < hfLow:
		score += 1
	}

	switch {
	case prob > 70:
		score += 3
	case prob > 40:
		score += 2
	case prob > 15:
		score += 1
	}

	if timeToLiq > 0 {
		switch {
		case timeToLiq < 600:
			score += 3
		case timeToLiq < 3600:
			score += 2
		case timeToLiq < 86400:
			score += 1
		}
	}

	if score > 10 {
		return 10
	}
	return score
}

// MatchScenario сопоставляет позицию с известным сценарием риска
// Первое совпадение выигрывает
func MatchScenario(hf, collateralUSD float64) string {
	switch {
	case hf < 1.2 && collateralUSD > largePositionUSD:
		return models.ScenarioCriticalLarge
	case hf < 1.2:
		return models.ScenarioCriticalSmall
	case hf < hfHigh && collateralUSD > whalePositionUSD:
		return models.ScenarioHighWhale
	case hf < hfHigh:
		return models.ScenarioHighRetail
	case hf < hfModerate:
		return models.ScenarioModerate
	default:
		return models.ScenarioLowRisk
	}
}

// scenarioActions - фиксированные списки рекомендаций по сценариям
var scenarioActions = map[string][]string{
	models.ScenarioCriticalLarge: {"emergency_rebalance", "split_execution", "notify_user"},
	models.ScenarioCriticalSmall: {"emergency_rebalance", "notify_user"},
	models.ScenarioHighWhale:     {"rebalance", "compare_yield", "notify_user"},
	models.ScenarioHighRetail:    {"rebalance", "notify_user"},
	models.ScenarioModerate:      {"monitor_closely", "prepare_strategy"},
	models.ScenarioLowRisk:       {"monitor"},
}

// ActionsFor возвращает рекомендованные действия для сценария
// Возвращаемый срез копируется: вызывающий код может его изменять
func ActionsFor(scenario string) []string {
	actions, ok := scenarioActions[scenario]
	if !ok {
		return []string{"monitor"}
	}
	out := make([]string, len(actions))
	copy(out, actions)
	return out
}

// PriorityFor возвращает приоритет исполнения для уровня срочности
func PriorityFor(urgency int) string {
	switch {
	case urgency >= 8:
		return models.PriorityEmergency
	case urgency >= 6:
		return models.PriorityHigh
	case urgency >= 5:
		return models.PriorityNormal
	default:
		return models.PriorityLow
	}
}

// Assess выполняет полную оценку риска позиции
func Assess(pos *models.Position, market models.MarketSnapshot, timeToLiq int64) models.Assessment {
	hf := HealthFactor(pos.CollateralValueUSD, pos.DebtValueUSD)
	prob := LiquidationProbability(hf, market.Volatility)
	urgency := Urgency(hf, prob, timeToLiq)
	scenario := MatchScenario(hf, pos.CollateralValueUSD)

	return models.Assessment{
		PositionID:             pos.ID,
		HealthFactor:           hf,
		RiskLevel:              Level(hf),
		LiquidationProbability: prob,
		Urgency:                urgency,
		Scenario:               scenario,
		RecommendedActions:     ActionsFor(scenario),
		Priority:               PriorityFor(urgency),
		TimeToLiquidation:      timeToLiq,
		Timestamp:              time.Now(),
	}
}
