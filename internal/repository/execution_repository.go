package repository

import (
	"database/sql"
	"errors"
	"time"

	"liquidityguard/internal/models"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Ошибки репозитория исполнений
var (
	ErrRouteNotFound  = errors.New("route not found")
	ErrResultNotFound = errors.New("execution result not found")
)

// ExecutionRepository - работа с таблицами routes и execution_results
//
// Шаги маршрута и хеши транзакций хранятся JSONB-колонками:
// они читаются и пишутся только целиком.
type ExecutionRepository struct {
	db *sql.DB
}

// NewExecutionRepository создает новый экземпляр репозитория
func NewExecutionRepository(db *sql.DB) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

// SaveRoute сохраняет новый маршрут
func (r *ExecutionRepository) SaveRoute(route *models.Route) error {
	query := `
		INSERT INTO routes (id, strategy_id, position_id, user_address, method, priority, steps, total_cost_usd, estimated_time, status, created_at, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	steps, err := json.Marshal(route.Steps)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		query,
		route.ID,
		route.StrategyID,
		route.PositionID,
		route.UserAddress,
		route.Method,
		route.Priority,
		steps,
		route.TotalCostUSD,
		route.EstimatedTime,
		route.Status,
		route.CreatedAt,
		route.StartedAt,
		route.CompletedAt,
	)

	return err
}

// UpdateRoute обновляет статус и временные отметки маршрута
func (r *ExecutionRepository) UpdateRoute(route *models.Route) error {
	query := `
		UPDATE routes
		SET status = $1, started_at = $2, completed_at = $3
		WHERE id = $4`

	result, err := r.db.Exec(query, route.Status, route.StartedAt, route.CompletedAt, route.ID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrRouteNotFound
	}

	return nil
}

// GetRouteByID возвращает маршрут по ID
func (r *ExecutionRepository) GetRouteByID(id string) (*models.Route, error) {
	query := `
		SELECT id, strategy_id, position_id, user_address, method, priority, steps, total_cost_usd, estimated_time, status, created_at, started_at, completed_at
		FROM routes
		WHERE id = $1`

	route := &models.Route{}
	var steps []byte
	err := r.db.QueryRow(query, id).Scan(
		&route.ID,
		&route.StrategyID,
		&route.PositionID,
		&route.UserAddress,
		&route.Method,
		&route.Priority,
		&steps,
		&route.TotalCostUSD,
		&route.EstimatedTime,
		&route.Status,
		&route.CreatedAt,
		&route.StartedAt,
		&route.CompletedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRouteNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(steps, &route.Steps); err != nil {
		return nil, err
	}

	return route, nil
}

// GetRecentRoutes возвращает последние маршруты
func (r *ExecutionRepository) GetRecentRoutes(limit int) ([]*models.Route, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, strategy_id, position_id, user_address, method, priority, steps, total_cost_usd, estimated_time, status, created_at, started_at, completed_at
		FROM routes
		ORDER BY created_at DESC
		LIMIT $1`

	return r.queryRoutes(query, limit)
}

// GetRoutesByPosition возвращает маршруты позиции
func (r *ExecutionRepository) GetRoutesByPosition(positionID string, limit int) ([]*models.Route, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, strategy_id, position_id, user_address, method, priority, steps, total_cost_usd, estimated_time, status, created_at, started_at, completed_at
		FROM routes
		WHERE position_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	return r.queryRoutes(query, positionID, limit)
}

// GetActiveRoutes возвращает маршруты в нетерминальных состояниях
func (r *ExecutionRepository) GetActiveRoutes() ([]*models.Route, error) {
	query := `
		SELECT id, strategy_id, position_id, user_address, method, priority, steps, total_cost_usd, estimated_time, status, created_at, started_at, completed_at
		FROM routes
		WHERE status IN ($1, $2)
		ORDER BY created_at ASC`

	return r.queryRoutes(query, models.ExecutionPending, models.ExecutionInProgress)
}

// CountRoutesByStatus возвращает количество маршрутов по состояниям
func (r *ExecutionRepository) CountRoutesByStatus() (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM routes GROUP BY status`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

// SaveResult сохраняет результат исполнения маршрута
func (r *ExecutionRepository) SaveResult(result *models.ExecutionResult) error {
	query := `
		INSERT INTO execution_results (route_id, strategy_id, position_id, success, status, completed_steps, total_steps, tx_hashes, actual_cost_usd, message, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now()
	}

	txHashes, err := json.Marshal(result.TxHashes)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		query,
		result.RouteID,
		result.StrategyID,
		result.PositionID,
		result.Success,
		result.Status,
		result.CompletedSteps,
		result.TotalSteps,
		txHashes,
		result.ActualCostUSD,
		result.Message,
		result.Timestamp,
	)

	return err
}

// GetResultByRouteID возвращает результат исполнения маршрута
func (r *ExecutionRepository) GetResultByRouteID(routeID string) (*models.ExecutionResult, error) {
	query := `
		SELECT route_id, strategy_id, position_id, success, status, completed_steps, total_steps, tx_hashes, actual_cost_usd, message, timestamp
		FROM execution_results
		WHERE route_id = $1`

	result := &models.ExecutionResult{}
	var txHashes []byte
	err := r.db.QueryRow(query, routeID).Scan(
		&result.RouteID,
		&result.StrategyID,
		&result.PositionID,
		&result.Success,
		&result.Status,
		&result.CompletedSteps,
		&result.TotalSteps,
		&txHashes,
		&result.ActualCostUSD,
		&result.Message,
		&result.Timestamp,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(txHashes, &result.TxHashes); err != nil {
		return nil, err
	}

	return result, nil
}

// GetRecentResults возвращает последние результаты исполнений
func (r *ExecutionRepository) GetRecentResults(limit int) ([]*models.ExecutionResult, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT route_id, strategy_id, position_id, success, status, completed_steps, total_steps, tx_hashes, actual_cost_usd, message, timestamp
		FROM execution_results
		ORDER BY timestamp DESC
		LIMIT $1`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*models.ExecutionResult
	for rows.Next() {
		result := &models.ExecutionResult{}
		var txHashes []byte
		err := rows.Scan(
			&result.RouteID,
			&result.StrategyID,
			&result.PositionID,
			&result.Success,
			&result.Status,
			&result.CompletedSteps,
			&result.TotalSteps,
			&txHashes,
			&result.ActualCostUSD,
			&result.Message,
			&result.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(txHashes, &result.TxHashes); err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// SuccessRate возвращает долю успешных исполнений за период (0..1)
func (r *ExecutionRepository) SuccessRate(since time.Time) (float64, error) {
	query := `
		SELECT COUNT(*) FILTER (WHERE success), COUNT(*)
		FROM execution_results
		WHERE timestamp >= $1`

	var succeeded, total int
	err := r.db.QueryRow(query, since).Scan(&succeeded, &total)
	if err != nil {
		return 0, err
	}

	if total == 0 {
		return 0, nil
	}
	return float64(succeeded) / float64(total), nil
}

// queryRoutes выполняет запрос и сканирует строки маршрутов
func (r *ExecutionRepository) queryRoutes(query string, args ...interface{}) ([]*models.Route, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []*models.Route
	for rows.Next() {
		route := &models.Route{}
		var steps []byte
		err := rows.Scan(
			&route.ID,
			&route.StrategyID,
			&route.PositionID,
			&route.UserAddress,
			&route.Method,
			&route.Priority,
			&steps,
			&route.TotalCostUSD,
			&route.EstimatedTime,
			&route.Status,
			&route.CreatedAt,
			&route.StartedAt,
			&route.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(steps, &route.Steps); err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return routes, nil
}
