package repository

import (
	"database/sql"
	"errors"
	"time"

	"liquidityguard/internal/models"
)

// Ошибки репозитория стратегий
var (
	ErrStrategyNotFound = errors.New("strategy not found")
)

// StrategyRepository - работа с таблицей strategies
type StrategyRepository struct {
	db *sql.DB
}

// NewStrategyRepository создает новый экземпляр репозитория
func NewStrategyRepository(db *sql.DB) *StrategyRepository {
	return &StrategyRepository{db: db}
}

// Create сохраняет принятую стратегию
func (r *StrategyRepository) Create(strategy *models.Strategy) error {
	query := `
		INSERT INTO strategies (id, position_id, user_address, current_protocol, current_chain, target_protocol, target_chain, collateral_token, debt_token, amount_usd, current_apy, target_apy, apy_improvement, estimated_cost_usd, break_even_months, score, urgency, method, priority, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	if strategy.Timestamp.IsZero() {
		strategy.Timestamp = time.Now()
	}

	_, err := r.db.Exec(
		query,
		strategy.ID,
		strategy.PositionID,
		strategy.UserAddress,
		strategy.CurrentProtocol,
		strategy.CurrentChain,
		strategy.TargetProtocol,
		strategy.TargetChain,
		strategy.CollateralToken,
		strategy.DebtToken,
		strategy.AmountUSD,
		strategy.CurrentAPY,
		strategy.TargetAPY,
		strategy.APYImprovement,
		strategy.EstimatedCostUSD,
		strategy.BreakEvenMonths,
		strategy.Score,
		strategy.Urgency,
		strategy.Method,
		strategy.Priority,
		strategy.Timestamp,
	)

	return err
}

// GetByID возвращает стратегию по ID
func (r *StrategyRepository) GetByID(id string) (*models.Strategy, error) {
	query := `
		SELECT id, position_id, user_address, current_protocol, current_chain, target_protocol, target_chain, collateral_token, debt_token, amount_usd, current_apy, target_apy, apy_improvement, estimated_cost_usd, break_even_months, score, urgency, method, priority, timestamp
		FROM strategies
		WHERE id = $1`

	strategy := &models.Strategy{}
	err := r.db.QueryRow(query, id).Scan(
		&strategy.ID,
		&strategy.PositionID,
		&strategy.UserAddress,
		&strategy.CurrentProtocol,
		&strategy.CurrentChain,
		&strategy.TargetProtocol,
		&strategy.TargetChain,
		&strategy.CollateralToken,
		&strategy.DebtToken,
		&strategy.AmountUSD,
		&strategy.CurrentAPY,
		&strategy.TargetAPY,
		&strategy.APYImprovement,
		&strategy.EstimatedCostUSD,
		&strategy.BreakEvenMonths,
		&strategy.Score,
		&strategy.Urgency,
		&strategy.Method,
		&strategy.Priority,
		&strategy.Timestamp,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStrategyNotFound
		}
		return nil, err
	}

	return strategy, nil
}

// GetRecent возвращает последние стратегии
func (r *StrategyRepository) GetRecent(limit int) ([]*models.Strategy, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, position_id, user_address, current_protocol, current_chain, target_protocol, target_chain, collateral_token, debt_token, amount_usd, current_apy, target_apy, apy_improvement, estimated_cost_usd, break_even_months, score, urgency, method, priority, timestamp
		FROM strategies
		ORDER BY timestamp DESC
		LIMIT $1`

	return r.queryStrategies(query, limit)
}

// GetByPosition возвращает стратегии позиции
func (r *StrategyRepository) GetByPosition(positionID string, limit int) ([]*models.Strategy, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, position_id, user_address, current_protocol, current_chain, target_protocol, target_chain, collateral_token, debt_token, amount_usd, current_apy, target_apy, apy_improvement, estimated_cost_usd, break_even_months, score, urgency, method, priority, timestamp
		FROM strategies
		WHERE position_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	return r.queryStrategies(query, positionID, limit)
}

// queryStrategies выполняет запрос и сканирует строки стратегий
func (r *StrategyRepository) queryStrategies(query string, args ...interface{}) ([]*models.Strategy, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var strategies []*models.Strategy
	for rows.Next() {
		strategy := &models.Strategy{}
		err := rows.Scan(
			&strategy.ID,
			&strategy.PositionID,
			&strategy.UserAddress,
			&strategy.CurrentProtocol,
			&strategy.CurrentChain,
			&strategy.TargetProtocol,
			&strategy.TargetChain,
			&strategy.CollateralToken,
			&strategy.DebtToken,
			&strategy.AmountUSD,
			&strategy.CurrentAPY,
			&strategy.TargetAPY,
			&strategy.APYImprovement,
			&strategy.EstimatedCostUSD,
			&strategy.BreakEvenMonths,
			&strategy.Score,
			&strategy.Urgency,
			&strategy.Method,
			&strategy.Priority,
			&strategy.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, strategy)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return strategies, nil
}
