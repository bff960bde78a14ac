package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"liquidityguard/internal/models"

	"github.com/google/uuid"
)

// Ошибки сервиса позиций
var (
	ErrInvalidPosition = errors.New("invalid position parameters")
)

// CreatePositionRequest - запрос на постановку позиции под мониторинг
type CreatePositionRequest struct {
	UserAddress      string  `json:"user_address"`
	Protocol         string  `json:"protocol"`
	Chain            string  `json:"chain"`
	CollateralToken  string  `json:"collateral_token"`
	DebtToken        string  `json:"debt_token"`
	CollateralAmount float64 `json:"collateral_amount"`
	DebtAmount       float64 `json:"debt_amount"`
}

// PositionService предоставляет бизнес-логику управления позициями
//
// Держит хранилище и наблюдатель согласованными: каждая операция
// сначала применяется к БД, затем к наблюдателю.
type PositionService struct {
	positionRepo PositionRepositoryInterface
	monitor      PositionMonitor
}

// NewPositionService создает новый экземпляр PositionService
func NewPositionService(positionRepo PositionRepositoryInterface, monitor PositionMonitor) *PositionService {
	return &PositionService{
		positionRepo: positionRepo,
		monitor:      monitor,
	}
}

// CreatePosition ставит новую позицию под мониторинг
func (s *PositionService) CreatePosition(req *CreatePositionRequest) (*models.Position, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	pos := &models.Position{
		ID:               uuid.NewString(),
		UserAddress:      strings.ToLower(strings.TrimSpace(req.UserAddress)),
		Protocol:         strings.ToLower(strings.TrimSpace(req.Protocol)),
		Chain:            strings.ToLower(strings.TrimSpace(req.Chain)),
		CollateralToken:  strings.ToUpper(strings.TrimSpace(req.CollateralToken)),
		DebtToken:        strings.ToUpper(strings.TrimSpace(req.DebtToken)),
		CollateralAmount: req.CollateralAmount,
		DebtAmount:       req.DebtAmount,
		Status:           models.PositionStatusMonitored,
	}

	if err := s.positionRepo.Create(pos); err != nil {
		return nil, err
	}

	if s.monitor != nil {
		s.monitor.Register(pos)
	}

	return pos, nil
}

// GetPosition возвращает позицию по ID
// Предпочитает живое состояние наблюдателя, БД - fallback
func (s *PositionService) GetPosition(id string) (*models.Position, error) {
	if s.monitor != nil {
		if pos, ok := s.monitor.Position(id); ok {
			return pos, nil
		}
	}
	return s.positionRepo.GetByID(id)
}

// GetPositions возвращает позиции пользователя, либо все при пустом адресе
func (s *PositionService) GetPositions(userAddress string) ([]*models.Position, error) {
	userAddress = strings.ToLower(strings.TrimSpace(userAddress))
	if userAddress == "" {
		return s.positionRepo.GetAll()
	}
	return s.positionRepo.GetByUser(userAddress)
}

// PausePosition приостанавливает мониторинг позиции
func (s *PositionService) PausePosition(id string) error {
	if err := s.positionRepo.UpdateStatus(id, models.PositionStatusPaused); err != nil {
		return err
	}
	if s.monitor != nil {
		s.monitor.Pause(id)
	}
	return nil
}

// ResumePosition возобновляет мониторинг позиции
func (s *PositionService) ResumePosition(id string) error {
	if err := s.positionRepo.UpdateStatus(id, models.PositionStatusMonitored); err != nil {
		return err
	}
	if s.monitor != nil {
		s.monitor.Resume(id)
	}
	return nil
}

// DeletePosition снимает позицию с мониторинга и удаляет ее
func (s *PositionService) DeletePosition(id string) error {
	if err := s.positionRepo.Delete(id); err != nil {
		return err
	}
	if s.monitor != nil {
		s.monitor.Unregister(id)
	}
	return nil
}

// ForceEvaluate принудительно переоценивает позицию, минуя cooldown
func (s *PositionService) ForceEvaluate(ctx context.Context, id string) (*models.Assessment, error) {
	if s.monitor == nil {
		return nil, errors.New("position monitor is not running")
	}
	return s.monitor.ForceEvaluate(ctx, id)
}

// GetRiskSummary возвращает распределение позиций по уровням риска
func (s *PositionService) GetRiskSummary() (map[string]int, error) {
	return s.positionRepo.CountByRiskLevel()
}

// validateRequest проверяет параметры запроса создания позиции
func (s *PositionService) validateRequest(req *CreatePositionRequest) error {
	if req == nil {
		return ErrInvalidPosition
	}
	if strings.TrimSpace(req.UserAddress) == "" {
		return fmt.Errorf("%w: user_address is required", ErrInvalidPosition)
	}
	if strings.TrimSpace(req.Protocol) == "" {
		return fmt.Errorf("%w: protocol is required", ErrInvalidPosition)
	}
	if strings.TrimSpace(req.Chain) == "" {
		return fmt.Errorf("%w: chain is required", ErrInvalidPosition)
	}
	if strings.TrimSpace(req.CollateralToken) == "" || strings.TrimSpace(req.DebtToken) == "" {
		return fmt.Errorf("%w: collateral_token and debt_token are required", ErrInvalidPosition)
	}
	if req.CollateralAmount <= 0 {
		return fmt.Errorf("%w: collateral_amount must be positive", ErrInvalidPosition)
	}
	if req.DebtAmount < 0 {
		return fmt.Errorf("%w: debt_amount cannot be negative", ErrInvalidPosition)
	}
	return nil
}
