package models

import "time"

// Assessment представляет результат оценки риска одной позиции
type Assessment struct {
	PositionID             string    `json:"position_id"`
	HealthFactor           float64   `json:"health_factor"`
	RiskLevel              string    `json:"risk_level"`
	LiquidationProbability float64   `json:"liquidation_probability"` // 0..100
	Urgency                int       `json:"urgency"`                 // 0..10
	Scenario               string    `json:"scenario"`
	RecommendedActions     []string  `json:"recommended_actions"`
	Priority               string    `json:"priority"`
	TimeToLiquidation      int64     `json:"time_to_liquidation"` // секунды, 0 = не прогнозируется
	Timestamp              time.Time `json:"timestamp"`
}

// Сценарии риска (первое совпадение выигрывает)
const (
	ScenarioCriticalLarge = "CRITICAL-LARGE-POSITION" // hf < 1.2, залог > $50k
	ScenarioCriticalSmall = "CRITICAL-SMALL-POSITION" // hf < 1.2
	ScenarioHighWhale     = "HIGH-RISK-WHALE"         // hf < 1.5, залог > $100k
	ScenarioHighRetail    = "HIGH-RISK-RETAIL"        // hf < 1.5
	ScenarioModerate      = "MODERATE-RISK"           // hf < 1.8
	ScenarioLowRisk       = "LOW-RISK"
)

// Приоритеты исполнения (из urgency)
const (
	PriorityEmergency = "EMERGENCY" // urgency >= 8
	PriorityHigh      = "HIGH"      // urgency >= 6
	PriorityNormal    = "NORMAL"    // urgency >= 5
	PriorityLow       = "LOW"
)
