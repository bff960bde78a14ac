package service

import (
	"liquidityguard/internal/models"
)

// StrategyService предоставляет доступ к журналу принятых стратегий
//
// Стратегии создаются только селектором внутри пайплайна,
// сервис отдает их API только для чтения.
type StrategyService struct {
	strategyRepo StrategyRepositoryInterface
}

// NewStrategyService создает новый экземпляр StrategyService
func NewStrategyService(strategyRepo StrategyRepositoryInterface) *StrategyService {
	return &StrategyService{strategyRepo: strategyRepo}
}

// GetStrategy возвращает стратегию по ID
func (s *StrategyService) GetStrategy(id string) (*models.Strategy, error) {
	return s.strategyRepo.GetByID(id)
}

// GetRecentStrategies возвращает последние стратегии
func (s *StrategyService) GetRecentStrategies(limit int) ([]*models.Strategy, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	return s.strategyRepo.GetRecent(limit)
}

// GetStrategiesByPosition возвращает стратегии позиции
func (s *StrategyService) GetStrategiesByPosition(positionID string, limit int) ([]*models.Strategy, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.strategyRepo.GetByPosition(positionID, limit)
}
