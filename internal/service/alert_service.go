package service

import (
	"time"

	"liquidityguard/internal/models"
)

// AlertService предоставляет доступ к журналу алертов
//
// Алерты создаются только наблюдателем позиций, сервис
// отдает их API только для чтения.
type AlertService struct {
	alertRepo AlertRepositoryInterface
}

// NewAlertService создает новый экземпляр AlertService
func NewAlertService(alertRepo AlertRepositoryInterface) *AlertService {
	return &AlertService{alertRepo: alertRepo}
}

// GetAlert возвращает алерт по ID
func (s *AlertService) GetAlert(id string) (*models.Alert, error) {
	return s.alertRepo.GetByID(id)
}

// GetRecentAlerts возвращает последние алерты
func (s *AlertService) GetRecentAlerts(limit int) ([]*models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return s.alertRepo.GetRecent(limit)
}

// GetAlertsByPosition возвращает алерты позиции
func (s *AlertService) GetAlertsByPosition(positionID string, limit int) ([]*models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.alertRepo.GetByPosition(positionID, limit)
}

// CountAlertsSince возвращает число алертов за период
func (s *AlertService) CountAlertsSince(since time.Time) (int, error) {
	return s.alertRepo.CountSince(since)
}

// PruneAlerts удаляет алерты старше cutoff, возвращает число удаленных
func (s *AlertService) PruneAlerts(cutoff time.Time) (int64, error) {
	return s.alertRepo.DeleteOlderThan(cutoff)
}
