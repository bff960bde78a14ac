package models

import "time"

// Position представляет отслеживаемую залоговую позицию в lending-протоколе
type Position struct {
	ID                 string    `json:"id" db:"id"`                                     // уникальный идентификатор позиции
	UserAddress        string    `json:"user_address" db:"user_address"`                 // адрес владельца
	Protocol           string    `json:"protocol" db:"protocol"`                         // aave, compound, ...
	Chain              string    `json:"chain" db:"chain"`                               // ethereum, arbitrum, ...
	CollateralToken    string    `json:"collateral_token" db:"collateral_token"`         // ETH, WBTC, ...
	DebtToken          string    `json:"debt_token" db:"debt_token"`                     // USDC, DAI, ...
	CollateralAmount   float64   `json:"collateral_amount" db:"collateral_amount"`       // количество залога в токенах
	DebtAmount         float64   `json:"debt_amount" db:"debt_amount"`                   // размер долга в токенах
	CollateralValueUSD float64   `json:"collateral_value_usd" db:"collateral_value_usd"` // пересчитывается при каждом опросе
	DebtValueUSD       float64   `json:"debt_value_usd" db:"debt_value_usd"`
	HealthFactor       float64   `json:"health_factor" db:"health_factor"`
	RiskLevel          string    `json:"risk_level" db:"risk_level"`
	Status             string    `json:"status" db:"status"` // monitored, paused, rebalancing
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// Статусы позиции
const (
	PositionStatusMonitored   = "monitored"   // активный мониторинг
	PositionStatusPaused      = "paused"      // мониторинг приостановлен
	PositionStatusRebalancing = "rebalancing" // идет исполнение маршрута
)

// Уровни риска ликвидации
const (
	RiskLevelCritical = "critical" // hf < 1.3
	RiskLevelHigh     = "high"     // hf < 1.5
	RiskLevelModerate = "moderate" // hf < 1.8
	RiskLevelLow      = "low"      // hf < 2.0
	RiskLevelSafe     = "safe"     // hf >= 2.0
)

// MarketSnapshot представляет рыночный контекст на момент оценки позиции
type MarketSnapshot struct {
	ETHPriceUSD float64   `json:"eth_price_usd"`
	Volatility  float64   `json:"volatility"` // % за 24ч, масштабирует вероятность ликвидации
	Timestamp   time.Time `json:"timestamp"`
}
