package models

import "time"

// Alert - сообщение Position Watcher → Strategy Selector
//
// Отправляется когда позиция требует ребалансировки (risk level выше safe)
// и (user, position) не находится в cooldown-окне.
type Alert struct {
	ID                string     `json:"id" db:"id"`
	UserAddress       string     `json:"user_address" db:"user_address"`
	PositionID        string     `json:"position_id" db:"position_id"`
	Protocol          string     `json:"protocol" db:"protocol"`
	Chain             string     `json:"chain" db:"chain"`
	HealthFactor      float64    `json:"health_factor" db:"health_factor"`
	CollateralValue   float64    `json:"collateral_value" db:"collateral_value"`
	DebtValue         float64    `json:"debt_value" db:"debt_value"`
	CollateralToken   string     `json:"collateral_token" db:"collateral_token"`
	DebtToken         string     `json:"debt_token" db:"debt_token"`
	RiskLevel         string     `json:"risk_level" db:"risk_level"`
	Urgency           int        `json:"urgency" db:"urgency"`
	Scenario          string     `json:"scenario" db:"scenario"`
	Priority          string     `json:"priority" db:"priority"`
	TimeToLiquidation int64      `json:"time_to_liquidation,omitempty" db:"time_to_liquidation"` // секунды
	Forced            bool       `json:"forced" db:"forced"`                                     // принудительная переоценка (demo trigger)
	Timestamp         time.Time  `json:"timestamp" db:"timestamp"`
	Assessment        Assessment `json:"assessment" db:"-"`
}

// CooldownKey возвращает ключ cooldown-окна алертов
// Не более одного алерта на (user, position) за окно
func (a *Alert) CooldownKey() string {
	return a.UserAddress + ":" + a.PositionID
}
