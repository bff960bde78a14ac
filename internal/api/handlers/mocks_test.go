package handlers

import (
	"context"
	"errors"
	"time"

	"liquidityguard/internal/models"
	"liquidityguard/internal/repository"
	"liquidityguard/internal/service"
)

// ============ Mock PositionService ============

type mockPositionService struct {
	positions  map[string]*models.Position
	assessment *models.Assessment
	createErr  error
	err        error
}

func newMockPositionService() *mockPositionService {
	return &mockPositionService{positions: make(map[string]*models.Position)}
}

func (m *mockPositionService) CreatePosition(req *service.CreatePositionRequest) (*models.Position, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	pos := &models.Position{
		ID:          "generated-id",
		UserAddress: req.UserAddress,
		Protocol:    req.Protocol,
		Chain:       req.Chain,
		Status:      models.PositionStatusMonitored,
	}
	m.positions[pos.ID] = pos
	return pos, nil
}

func (m *mockPositionService) GetPosition(id string) (*models.Position, error) {
	if m.err != nil {
		return nil, m.err
	}
	if pos, ok := m.positions[id]; ok {
		return pos, nil
	}
	return nil, repository.ErrPositionNotFound
}

func (m *mockPositionService) GetPositions(userAddress string) ([]*models.Position, error) {
	if m.err != nil {
		return nil, m.err
	}
	result := make([]*models.Position, 0, len(m.positions))
	for _, pos := range m.positions {
		result = append(result, pos)
	}
	return result, nil
}

func (m *mockPositionService) PausePosition(id string) error {
	if _, ok := m.positions[id]; !ok {
		return repository.ErrPositionNotFound
	}
	m.positions[id].Status = models.PositionStatusPaused
	return nil
}

func (m *mockPositionService) ResumePosition(id string) error {
	if _, ok := m.positions[id]; !ok {
		return repository.ErrPositionNotFound
	}
	m.positions[id].Status = models.PositionStatusMonitored
	return nil
}

func (m *mockPositionService) DeletePosition(id string) error {
	if _, ok := m.positions[id]; !ok {
		return repository.ErrPositionNotFound
	}
	delete(m.positions, id)
	return nil
}

func (m *mockPositionService) ForceEvaluate(ctx context.Context, id string) (*models.Assessment, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.assessment == nil {
		return nil, errors.New("position is not monitored")
	}
	return m.assessment, nil
}

func (m *mockPositionService) GetRiskSummary() (map[string]int, error) {
	summary := make(map[string]int)
	for _, pos := range m.positions {
		if pos.RiskLevel != "" {
			summary[pos.RiskLevel]++
		}
	}
	return summary, nil
}

// ============ Mock NotificationService ============

type mockNotificationService struct {
	notifications []*models.Notification
	err           error
}

func (m *mockNotificationService) GetNotifications(types []string, limit int) ([]*models.Notification, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.notifications, nil
}

func (m *mockNotificationService) ClearNotifications() error {
	if m.err != nil {
		return m.err
	}
	m.notifications = nil
	return nil
}

func (m *mockNotificationService) CreateNotification(n *models.Notification) error {
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *mockNotificationService) GetNotificationCount() (int, error) {
	return len(m.notifications), nil
}

// ============ Mock SettingsService ============

type mockSettingsService struct {
	settings  *models.Settings
	updateErr error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings: &models.Settings{ID: 1, AutoExecute: true},
	}
}

func (m *mockSettingsService) GetSettings() (*models.Settings, error) {
	return m.settings, nil
}

func (m *mockSettingsService) UpdateSettings(req *service.UpdateSettingsRequest) (*models.Settings, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	if req.AutoExecute != nil {
		m.settings.AutoExecute = *req.AutoExecute
	}
	return m.settings, nil
}

func (m *mockSettingsService) GetNotificationPrefs() (*models.NotificationPreferences, error) {
	prefs := m.settings.NotificationPrefs
	return &prefs, nil
}

func (m *mockSettingsService) DecryptedEtherscanKey() (string, error) { return "", nil }
func (m *mockSettingsService) DecryptedOneInchKey() (string, error)   { return "", nil }

func (m *mockSettingsService) ResetToDefaults() error {
	m.settings = &models.Settings{ID: 1, AutoExecute: true}
	return nil
}

// ============ Mock PriceShocker ============

type mockShocker struct {
	drop     float64
	vol      float64
	duration time.Duration
	applied  int
	cleared  int
}

func (m *mockShocker) ApplyShock(drop, volatility float64, duration time.Duration) {
	m.drop = drop
	m.vol = volatility
	m.duration = duration
	m.applied++
}

func (m *mockShocker) ClearShock() {
	m.cleared++
}

// ============ Mock PositionMonitor ============

type mockMonitor struct {
	positions   []*models.Position
	evaluateErr error
	evaluated   []string
}

func (m *mockMonitor) Register(pos *models.Position) {}
func (m *mockMonitor) Unregister(positionID string)  {}
func (m *mockMonitor) Pause(positionID string) bool  { return true }
func (m *mockMonitor) Resume(positionID string) bool { return true }

func (m *mockMonitor) ForceEvaluate(ctx context.Context, positionID string) (*models.Assessment, error) {
	if m.evaluateErr != nil {
		return nil, m.evaluateErr
	}
	m.evaluated = append(m.evaluated, positionID)
	return &models.Assessment{}, nil
}

func (m *mockMonitor) Position(positionID string) (*models.Position, bool) { return nil, false }
func (m *mockMonitor) Positions() []*models.Position                       { return m.positions }

// ============ Mock статусов пайплайна ============

type mockWatcherStatus struct {
	positions []*models.Position
	cooldowns int
}

func (m *mockWatcherStatus) Positions() []*models.Position { return m.positions }
func (m *mockWatcherStatus) Cooldowns() int                { return m.cooldowns }

type mockExecutorStatus struct {
	inFlight int
}

func (m *mockExecutorStatus) InFlight() int { return m.inFlight }

type mockBusStatus struct {
	alerts, strategies, results int
	dropped                     int64
}

func (m *mockBusStatus) PendingAlerts() int     { return m.alerts }
func (m *mockBusStatus) PendingStrategies() int { return m.strategies }
func (m *mockBusStatus) PendingResults() int    { return m.results }
func (m *mockBusStatus) DroppedAlerts() int64   { return m.dropped }
