package repository

import (
	"database/sql"
	"time"

	"liquidityguard/internal/models"

	"github.com/lib/pq"
)

// NotificationRepository - работа с таблицей notifications
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository создает новый экземпляр репозитория
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create создает новое уведомление
func (r *NotificationRepository) Create(n *models.Notification) error {
	query := `
		INSERT INTO notifications (timestamp, type, severity, position_id, message, meta)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	if n.Severity == "" {
		n.Severity = models.SeverityInfo
	}

	var meta []byte
	if n.Meta != nil {
		var err error
		meta, err = json.Marshal(n.Meta)
		if err != nil {
			return err
		}
	}

	return r.db.QueryRow(query, n.Timestamp, n.Type, n.Severity, n.PositionID, n.Message, meta).Scan(&n.ID)
}

// GetRecent возвращает последние уведомления
func (r *NotificationRepository) GetRecent(limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, timestamp, type, severity, position_id, message, meta
		FROM notifications
		ORDER BY timestamp DESC
		LIMIT $1`

	return r.queryNotifications(query, limit)
}

// GetByTypes возвращает последние уведомления указанных типов
func (r *NotificationRepository) GetByTypes(types []string, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, timestamp, type, severity, position_id, message, meta
		FROM notifications
		WHERE type = ANY($1)
		ORDER BY timestamp DESC
		LIMIT $2`

	return r.queryNotifications(query, pq.Array(types), limit)
}

// GetByPosition возвращает уведомления позиции
func (r *NotificationRepository) GetByPosition(positionID string, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, timestamp, type, severity, position_id, message, meta
		FROM notifications
		WHERE position_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	return r.queryNotifications(query, positionID, limit)
}

// DeleteAll очищает журнал уведомлений
// Возвращает количество удаленных строк
func (r *NotificationRepository) DeleteAll() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM notifications`)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// DeleteOlderThan удаляет уведомления старше указанного момента
// Возвращает количество удаленных строк
func (r *NotificationRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM notifications WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// Count возвращает общее количество уведомлений
func (r *NotificationRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM notifications`).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

// queryNotifications выполняет запрос и сканирует строки уведомлений
func (r *NotificationRepository) queryNotifications(query string, args ...interface{}) ([]*models.Notification, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var meta []byte
		err := rows.Scan(
			&n.ID,
			&n.Timestamp,
			&n.Type,
			&n.Severity,
			&n.PositionID,
			&n.Message,
			&meta,
		)
		if err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &n.Meta); err != nil {
				return nil, err
			}
		}
		notifications = append(notifications, n)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}
