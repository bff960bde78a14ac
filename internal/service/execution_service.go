package service

import (
	"errors"
	"time"

	"liquidityguard/internal/models"
	"liquidityguard/internal/repository"
)

// RouteDetails - маршрут вместе с результатом исполнения (если есть)
type RouteDetails struct {
	Route  *models.Route           `json:"route"`
	Result *models.ExecutionResult `json:"result,omitempty"`
}

// ExecutionStats - сводка по исполнениям для дашборда
type ExecutionStats struct {
	ByStatus       map[string]int `json:"by_status"`
	SuccessRate24h float64        `json:"success_rate_24h"`
	ActiveRoutes   int            `json:"active_routes"`
}

// ExecutionService предоставляет доступ к журналу маршрутов и результатов
type ExecutionService struct {
	executionRepo ExecutionRepositoryInterface
}

// NewExecutionService создает новый экземпляр ExecutionService
func NewExecutionService(executionRepo ExecutionRepositoryInterface) *ExecutionService {
	return &ExecutionService{executionRepo: executionRepo}
}

// GetRoute возвращает маршрут с результатом исполнения
func (s *ExecutionService) GetRoute(id string) (*RouteDetails, error) {
	route, err := s.executionRepo.GetRouteByID(id)
	if err != nil {
		return nil, err
	}

	details := &RouteDetails{Route: route}

	result, err := s.executionRepo.GetResultByRouteID(id)
	if err != nil {
		// Маршрут еще исполняется - результата пока нет
		if !errors.Is(err, repository.ErrResultNotFound) {
			return nil, err
		}
		return details, nil
	}

	details.Result = result
	return details, nil
}

// GetRecentRoutes возвращает последние маршруты
func (s *ExecutionService) GetRecentRoutes(limit int) ([]*models.Route, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return s.executionRepo.GetRecentRoutes(limit)
}

// GetRoutesByPosition возвращает маршруты позиции
func (s *ExecutionService) GetRoutesByPosition(positionID string, limit int) ([]*models.Route, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.executionRepo.GetRoutesByPosition(positionID, limit)
}

// GetActiveRoutes возвращает маршруты в нетерминальных состояниях
func (s *ExecutionService) GetActiveRoutes() ([]*models.Route, error) {
	return s.executionRepo.GetActiveRoutes()
}

// GetExecutionStats возвращает сводку по исполнениям
func (s *ExecutionService) GetExecutionStats() (*ExecutionStats, error) {
	byStatus, err := s.executionRepo.CountRoutesByStatus()
	if err != nil {
		return nil, err
	}

	rate, err := s.executionRepo.SuccessRate(time.Now().Add(-24 * time.Hour))
	if err != nil {
		return nil, err
	}

	return &ExecutionStats{
		ByStatus:       byStatus,
		SuccessRate24h: rate,
		ActiveRoutes:   byStatus[models.ExecutionPending] + byStatus[models.ExecutionInProgress],
	}, nil
}
