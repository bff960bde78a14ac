package repository

import (
	"database/sql"
	"errors"
	"time"

	"liquidityguard/internal/models"
)

// Ошибки репозитория алертов
var (
	ErrAlertNotFound = errors.New("alert not found")
)

// AlertRepository - работа с таблицей alerts
//
// Хранит журнал алертов пайплайна: что, когда и почему сработало.
// Cooldown-окно живет в памяти наблюдателя, сюда попадают только
// фактически отправленные алерты.
type AlertRepository struct {
	db *sql.DB
}

// NewAlertRepository создает новый экземпляр репозитория
func NewAlertRepository(db *sql.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create сохраняет алерт
func (r *AlertRepository) Create(alert *models.Alert) error {
	query := `
		INSERT INTO alerts (id, user_address, position_id, protocol, chain, health_factor, collateral_value, debt_value, collateral_token, debt_token, risk_level, urgency, scenario, priority, time_to_liquidation, forced, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now()
	}

	_, err := r.db.Exec(
		query,
		alert.ID,
		alert.UserAddress,
		alert.PositionID,
		alert.Protocol,
		alert.Chain,
		alert.HealthFactor,
		alert.CollateralValue,
		alert.DebtValue,
		alert.CollateralToken,
		alert.DebtToken,
		alert.RiskLevel,
		alert.Urgency,
		alert.Scenario,
		alert.Priority,
		alert.TimeToLiquidation,
		alert.Forced,
		alert.Timestamp,
	)

	return err
}

// GetByID возвращает алерт по ID
func (r *AlertRepository) GetByID(id string) (*models.Alert, error) {
	query := `
		SELECT id, user_address, position_id, protocol, chain, health_factor, collateral_value, debt_value, collateral_token, debt_token, risk_level, urgency, scenario, priority, time_to_liquidation, forced, timestamp
		FROM alerts
		WHERE id = $1`

	alert := &models.Alert{}
	err := r.db.QueryRow(query, id).Scan(
		&alert.ID,
		&alert.UserAddress,
		&alert.PositionID,
		&alert.Protocol,
		&alert.Chain,
		&alert.HealthFactor,
		&alert.CollateralValue,
		&alert.DebtValue,
		&alert.CollateralToken,
		&alert.DebtToken,
		&alert.RiskLevel,
		&alert.Urgency,
		&alert.Scenario,
		&alert.Priority,
		&alert.TimeToLiquidation,
		&alert.Forced,
		&alert.Timestamp,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAlertNotFound
		}
		return nil, err
	}

	return alert, nil
}

// GetRecent возвращает последние алерты
func (r *AlertRepository) GetRecent(limit int) ([]*models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_address, position_id, protocol, chain, health_factor, collateral_value, debt_value, collateral_token, debt_token, risk_level, urgency, scenario, priority, time_to_liquidation, forced, timestamp
		FROM alerts
		ORDER BY timestamp DESC
		LIMIT $1`

	return r.queryAlerts(query, limit)
}

// GetByPosition возвращает алерты позиции
func (r *AlertRepository) GetByPosition(positionID string, limit int) ([]*models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_address, position_id, protocol, chain, health_factor, collateral_value, debt_value, collateral_token, debt_token, risk_level, urgency, scenario, priority, time_to_liquidation, forced, timestamp
		FROM alerts
		WHERE position_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	return r.queryAlerts(query, positionID, limit)
}

// CountSince возвращает количество алертов с указанного момента
func (r *AlertRepository) CountSince(since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM alerts WHERE timestamp >= $1`

	var count int
	err := r.db.QueryRow(query, since).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// DeleteOlderThan удаляет алерты старше указанного момента
// Возвращает количество удаленных строк
func (r *AlertRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	query := `DELETE FROM alerts WHERE timestamp < $1`

	result, err := r.db.Exec(query, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// queryAlerts выполняет запрос и сканирует строки алертов
func (r *AlertRepository) queryAlerts(query string, args ...interface{}) ([]*models.Alert, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*models.Alert
	for rows.Next() {
		alert := &models.Alert{}
		err := rows.Scan(
			&alert.ID,
			&alert.UserAddress,
			&alert.PositionID,
			&alert.Protocol,
			&alert.Chain,
			&alert.HealthFactor,
			&alert.CollateralValue,
			&alert.DebtValue,
			&alert.CollateralToken,
			&alert.DebtToken,
			&alert.RiskLevel,
			&alert.Urgency,
			&alert.Scenario,
			&alert.Priority,
			&alert.TimeToLiquidation,
			&alert.Forced,
			&alert.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return alerts, nil
}
