package models

import "time"

// Step - один шаг исполнения маршрута
type Step struct {
	Index     int     `json:"index" db:"index"`
	Action    string  `json:"action" db:"action"` // withdraw, swap, bridge, supply
	Protocol  string  `json:"protocol" db:"protocol"`
	Chain     string  `json:"chain" db:"chain"`
	FromToken string  `json:"from_token,omitempty" db:"from_token"`
	ToToken   string  `json:"to_token,omitempty" db:"to_token"`
	AmountUSD float64 `json:"amount_usd" db:"amount_usd"`
	Via       string  `json:"via,omitempty" db:"via"` // для bridge: layerzero, standard, fusion
	Gasless   bool    `json:"gasless,omitempty" db:"gasless"`
}

// Действия шагов маршрута
const (
	StepWithdraw = "withdraw" // снять залог из исходного протокола
	StepSwap     = "swap"     // обмен токена
	StepBridge   = "bridge"   // перенос между цепочками
	StepSupply   = "supply"   // внести залог в целевой протокол
)

// Route - упорядоченный план исполнения стратегии
//
// Порядок шагов строгий: withdraw → [swap, bridge, swap] → supply.
// Для маршрутов в пределах одной цепочки bridge и второй swap отсутствуют.
type Route struct {
	ID            string     `json:"id" db:"id"` // uuid
	StrategyID    string     `json:"strategy_id" db:"strategy_id"`
	PositionID    string     `json:"position_id" db:"position_id"`
	UserAddress   string     `json:"user_address" db:"user_address"`
	Method        string     `json:"method" db:"method"`
	Priority      string     `json:"priority" db:"priority"`
	Steps         []Step     `json:"steps" db:"-"`
	TotalCostUSD  float64    `json:"total_cost_usd" db:"total_cost_usd"`
	EstimatedTime int64      `json:"estimated_time" db:"estimated_time"` // секунды
	Status        string     `json:"status" db:"status"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	StartedAt     *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// Состояния исполнения маршрута (state machine)
const (
	ExecutionPending    = "PENDING"     // маршрут принят, ожидает исполнения
	ExecutionInProgress = "IN_PROGRESS" // шаги исполняются по порядку
	ExecutionSucceeded  = "SUCCEEDED"   // все шаги завершены
	ExecutionFailed     = "FAILED"      // шаг не удался, маршрут прерван
)

// ExecutionResult - сообщение Executor → Position Watcher
//
// Ровно один результат на каждый принятый маршрут.
type ExecutionResult struct {
	RouteID        string    `json:"route_id" db:"route_id"`
	StrategyID     string    `json:"strategy_id" db:"strategy_id"`
	PositionID     string    `json:"position_id" db:"position_id"`
	Success        bool      `json:"success" db:"success"`
	Status         string    `json:"status" db:"status"`
	CompletedSteps int       `json:"completed_steps" db:"completed_steps"`
	TotalSteps     int       `json:"total_steps" db:"total_steps"`
	TxHashes       []string  `json:"tx_hashes" db:"-"`
	ActualCostUSD  float64   `json:"actual_cost_usd" db:"actual_cost_usd"`
	Message        string    `json:"message" db:"message"`
	Timestamp      time.Time `json:"timestamp" db:"timestamp"`
}
