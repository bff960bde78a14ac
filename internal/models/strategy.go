package models

import "time"

// Strategy - сообщение Strategy Selector → Route Builder
//
// Описывает выбранную ребалансировку: куда переносим залог,
// какой выигрыш по APY и какой метод исполнения.
type Strategy struct {
	ID               string    `json:"id" db:"id"` // uuid
	PositionID       string    `json:"position_id" db:"position_id"`
	UserAddress      string    `json:"user_address" db:"user_address"`
	CurrentProtocol  string    `json:"current_protocol" db:"current_protocol"`
	CurrentChain     string    `json:"current_chain" db:"current_chain"`
	TargetProtocol   string    `json:"target_protocol" db:"target_protocol"`
	TargetChain      string    `json:"target_chain" db:"target_chain"`
	CollateralToken  string    `json:"collateral_token" db:"collateral_token"`
	DebtToken        string    `json:"debt_token" db:"debt_token"`
	AmountUSD        float64   `json:"amount_usd" db:"amount_usd"`
	CurrentAPY       float64   `json:"current_apy" db:"current_apy"`
	TargetAPY        float64   `json:"target_apy" db:"target_apy"`
	APYImprovement   float64   `json:"apy_improvement" db:"apy_improvement"`
	EstimatedCostUSD float64   `json:"estimated_cost_usd" db:"estimated_cost_usd"`
	BreakEvenMonths  float64   `json:"break_even_months" db:"break_even_months"`
	Score            float64   `json:"score" db:"score"`
	Urgency          int       `json:"urgency" db:"urgency"`
	Method           string    `json:"method" db:"method"`
	Priority         string    `json:"priority" db:"priority"`
	Timestamp        time.Time `json:"timestamp" db:"timestamp"`
}

// Методы исполнения ребалансировки
const (
	MethodDirectSwap       = "direct_swap"        // в пределах одной цепочки
	MethodLayerZeroBridge  = "layerzero_bridge"   // быстрый мост, urgency >= 7 и сумма > $50k
	MethodStandardBridge   = "standard_bridge"    // urgency >= 5
	MethodFusionCrossChain = "fusion_cross_chain" // самый дешевый, gasless
)

// IsCrossChain сообщает, требует ли стратегия перехода между цепочками
func (s *Strategy) IsCrossChain() bool {
	return s.CurrentChain != s.TargetChain
}

// Минимальный выигрыш по APY для принятия стратегии (процентные пункты)
const MinAPYImprovement = 1.0

// Сентинел для break-even когда годовой выигрыш неположителен
const BreakEvenNever = 999
