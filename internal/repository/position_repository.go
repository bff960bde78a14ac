package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"liquidityguard/internal/models"
)

// Ошибки репозитория позиций
var (
	ErrPositionNotFound = errors.New("position not found")
	ErrPositionExists   = errors.New("position already exists")
)

// PositionRepository - работа с таблицей positions
type PositionRepository struct {
	db *sql.DB
}

// NewPositionRepository создает новый экземпляр репозитория
func NewPositionRepository(db *sql.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Create сохраняет новую позицию
func (r *PositionRepository) Create(pos *models.Position) error {
	query := `
		INSERT INTO positions (id, user_address, protocol, chain, collateral_token, debt_token, collateral_amount, debt_amount, collateral_value_usd, debt_value_usd, health_factor, risk_level, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	now := time.Now()
	if pos.CreatedAt.IsZero() {
		pos.CreatedAt = now
	}
	pos.UpdatedAt = now

	if pos.Status == "" {
		pos.Status = models.PositionStatusMonitored
	}

	_, err := r.db.Exec(
		query,
		pos.ID,
		pos.UserAddress,
		pos.Protocol,
		pos.Chain,
		pos.CollateralToken,
		pos.DebtToken,
		pos.CollateralAmount,
		pos.DebtAmount,
		pos.CollateralValueUSD,
		pos.DebtValueUSD,
		pos.HealthFactor,
		pos.RiskLevel,
		pos.Status,
		pos.CreatedAt,
		pos.UpdatedAt,
	)

	if err != nil {
		if isPositionUniqueViolation(err) {
			return ErrPositionExists
		}
		return err
	}

	return nil
}

// GetByID возвращает позицию по ID
func (r *PositionRepository) GetByID(id string) (*models.Position, error) {
	query := `
		SELECT id, user_address, protocol, chain, collateral_token, debt_token, collateral_amount, debt_amount, collateral_value_usd, debt_value_usd, health_factor, risk_level, status, created_at, updated_at
		FROM positions
		WHERE id = $1`

	pos := &models.Position{}
	err := r.db.QueryRow(query, id).Scan(
		&pos.ID,
		&pos.UserAddress,
		&pos.Protocol,
		&pos.Chain,
		&pos.CollateralToken,
		&pos.DebtToken,
		&pos.CollateralAmount,
		&pos.DebtAmount,
		&pos.CollateralValueUSD,
		&pos.DebtValueUSD,
		&pos.HealthFactor,
		&pos.RiskLevel,
		&pos.Status,
		&pos.CreatedAt,
		&pos.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}

	return pos, nil
}

// GetByUser возвращает все позиции пользователя
func (r *PositionRepository) GetByUser(userAddress string) ([]*models.Position, error) {
	query := `
		SELECT id, user_address, protocol, chain, collateral_token, debt_token, collateral_amount, debt_amount, collateral_value_usd, debt_value_usd, health_factor, risk_level, status, created_at, updated_at
		FROM positions
		WHERE user_address = $1
		ORDER BY created_at DESC`

	return r.queryPositions(query, userAddress)
}

// GetAll возвращает все позиции
func (r *PositionRepository) GetAll() ([]*models.Position, error) {
	query := `
		SELECT id, user_address, protocol, chain, collateral_token, debt_token, collateral_amount, debt_amount, collateral_value_usd, debt_value_usd, health_factor, risk_level, status, created_at, updated_at
		FROM positions
		ORDER BY created_at DESC`

	return r.queryPositions(query)
}

// ListMonitored возвращает позиции под активным мониторингом
func (r *PositionRepository) ListMonitored() ([]*models.Position, error) {
	query := `
		SELECT id, user_address, protocol, chain, collateral_token, debt_token, collateral_amount, debt_amount, collateral_value_usd, debt_value_usd, health_factor, risk_level, status, created_at, updated_at
		FROM positions
		WHERE status = $1
		ORDER BY created_at DESC`

	return r.queryPositions(query, models.PositionStatusMonitored)
}

// GetByRiskLevel возвращает позиции заданного уровня риска
func (r *PositionRepository) GetByRiskLevel(riskLevel string) ([]*models.Position, error) {
	query := `
		SELECT id, user_address, protocol, chain, collateral_token, debt_token, collateral_amount, debt_amount, collateral_value_usd, debt_value_usd, health_factor, risk_level, status, created_at, updated_at
		FROM positions
		WHERE risk_level = $1
		ORDER BY health_factor ASC`

	return r.queryPositions(query, riskLevel)
}

// Update обновляет позицию целиком
func (r *PositionRepository) Update(pos *models.Position) error {
	query := `
		UPDATE positions
		SET user_address = $1, protocol = $2, chain = $3, collateral_token = $4, debt_token = $5, collateral_amount = $6, debt_amount = $7, collateral_value_usd = $8, debt_value_usd = $9, health_factor = $10, risk_level = $11, status = $12, updated_at = $13
		WHERE id = $14`

	pos.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		query,
		pos.UserAddress,
		pos.Protocol,
		pos.Chain,
		pos.CollateralToken,
		pos.DebtToken,
		pos.CollateralAmount,
		pos.DebtAmount,
		pos.CollateralValueUSD,
		pos.DebtValueUSD,
		pos.HealthFactor,
		pos.RiskLevel,
		pos.Status,
		pos.UpdatedAt,
		pos.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrPositionNotFound
	}

	return nil
}

// UpdateStatus обновляет статус позиции
func (r *PositionRepository) UpdateStatus(id string, status string) error {
	if status != models.PositionStatusMonitored &&
		status != models.PositionStatusPaused &&
		status != models.PositionStatusRebalancing {
		return errors.New("invalid status: must be 'monitored', 'paused' or 'rebalancing'")
	}

	query := `
		UPDATE positions
		SET status = $1, updated_at = $2
		WHERE id = $3`

	result, err := r.db.Exec(query, status, time.Now(), id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrPositionNotFound
	}

	return nil
}

// Delete удаляет позицию
func (r *PositionRepository) Delete(id string) error {
	query := `DELETE FROM positions WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrPositionNotFound
	}

	return nil
}

// Count возвращает общее количество позиций
func (r *PositionRepository) Count() (int, error) {
	query := `SELECT COUNT(*) FROM positions`

	var count int
	err := r.db.QueryRow(query).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// CountByRiskLevel возвращает количество позиций по уровням риска
func (r *PositionRepository) CountByRiskLevel() (map[string]int, error) {
	query := `SELECT risk_level, COUNT(*) FROM positions GROUP BY risk_level`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, err
		}
		counts[level] = count
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

// queryPositions выполняет запрос и сканирует строки позиций
func (r *PositionRepository) queryPositions(query string, args ...interface{}) ([]*models.Position, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		pos := &models.Position{}
		err := rows.Scan(
			&pos.ID,
			&pos.UserAddress,
			&pos.Protocol,
			&pos.Chain,
			&pos.CollateralToken,
			&pos.DebtToken,
			&pos.CollateralAmount,
			&pos.DebtAmount,
			&pos.CollateralValueUSD,
			&pos.DebtValueUSD,
			&pos.HealthFactor,
			&pos.RiskLevel,
			&pos.Status,
			&pos.CreatedAt,
			&pos.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return positions, nil
}

// isPositionUniqueViolation проверяет, является ли ошибка нарушением UNIQUE constraint
func isPositionUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "23505")
}
