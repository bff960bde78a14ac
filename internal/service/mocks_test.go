package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"liquidityguard/internal/models"
	"liquidityguard/internal/repository"
)

// ============ Mock PositionRepository ============

type MockPositionRepository struct {
	positions map[string]*models.Position
	createErr error
	getErr    error
	updateErr error
	deleteErr error
}

func NewMockPositionRepository() *MockPositionRepository {
	return &MockPositionRepository{
		positions: make(map[string]*models.Position),
	}
}

func (m *MockPositionRepository) Create(pos *models.Position) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.positions[pos.ID]; exists {
		return repository.ErrPositionExists
	}
	pos.CreatedAt = time.Now()
	pos.UpdatedAt = pos.CreatedAt
	m.positions[pos.ID] = pos
	return nil
}

func (m *MockPositionRepository) GetByID(id string) (*models.Position, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if pos, exists := m.positions[id]; exists {
		return pos, nil
	}
	return nil, repository.ErrPositionNotFound
}

func (m *MockPositionRepository) GetByUser(userAddress string) ([]*models.Position, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make([]*models.Position, 0)
	for _, p := range m.positions {
		if p.UserAddress == userAddress {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *MockPositionRepository) GetAll() ([]*models.Position, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make([]*models.Position, 0, len(m.positions))
	for _, p := range m.positions {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockPositionRepository) ListMonitored() ([]*models.Position, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make([]*models.Position, 0)
	for _, p := range m.positions {
		if p.Status == models.PositionStatusMonitored {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *MockPositionRepository) GetByRiskLevel(riskLevel string) ([]*models.Position, error) {
	result := make([]*models.Position, 0)
	for _, p := range m.positions {
		if p.RiskLevel == riskLevel {
			result = append(result, p)
		}
	}
	return result, nil
}

func (m *MockPositionRepository) Update(pos *models.Position) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, exists := m.positions[pos.ID]; !exists {
		return repository.ErrPositionNotFound
	}
	pos.UpdatedAt = time.Now()
	m.positions[pos.ID] = pos
	return nil
}

func (m *MockPositionRepository) UpdateStatus(id string, status string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	pos, exists := m.positions[id]
	if !exists {
		return repository.ErrPositionNotFound
	}
	pos.Status = status
	return nil
}

func (m *MockPositionRepository) Delete(id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, exists := m.positions[id]; !exists {
		return repository.ErrPositionNotFound
	}
	delete(m.positions, id)
	return nil
}

func (m *MockPositionRepository) Count() (int, error) {
	return len(m.positions), nil
}

func (m *MockPositionRepository) CountByRiskLevel() (map[string]int, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make(map[string]int)
	for _, p := range m.positions {
		if p.RiskLevel != "" {
			result[p.RiskLevel]++
		}
	}
	return result, nil
}

// ============ Mock PositionMonitor ============

type MockMonitor struct {
	registered   map[string]*models.Position
	paused       map[string]bool
	unregistered []string
	evaluateErr  error
	assessment   *models.Assessment
}

func NewMockMonitor() *MockMonitor {
	return &MockMonitor{
		registered: make(map[string]*models.Position),
		paused:     make(map[string]bool),
	}
}

func (m *MockMonitor) Register(pos *models.Position) {
	m.registered[pos.ID] = pos
}

func (m *MockMonitor) Unregister(positionID string) {
	delete(m.registered, positionID)
	m.unregistered = append(m.unregistered, positionID)
}

func (m *MockMonitor) Pause(positionID string) bool {
	if _, exists := m.registered[positionID]; !exists {
		return false
	}
	m.paused[positionID] = true
	return true
}

func (m *MockMonitor) Resume(positionID string) bool {
	if _, exists := m.registered[positionID]; !exists {
		return false
	}
	delete(m.paused, positionID)
	return true
}

func (m *MockMonitor) ForceEvaluate(ctx context.Context, positionID string) (*models.Assessment, error) {
	if m.evaluateErr != nil {
		return nil, m.evaluateErr
	}
	if _, exists := m.registered[positionID]; !exists {
		return nil, errors.New("position not registered")
	}
	return m.assessment, nil
}

func (m *MockMonitor) Position(positionID string) (*models.Position, bool) {
	pos, exists := m.registered[positionID]
	return pos, exists
}

func (m *MockMonitor) Positions() []*models.Position {
	result := make([]*models.Position, 0, len(m.registered))
	for _, p := range m.registered {
		result = append(result, p)
	}
	return result
}

// ============ Mock StrategyRepository ============

type MockStrategyRepository struct {
	strategies map[string]*models.Strategy
	getErr     error
}

func NewMockStrategyRepository() *MockStrategyRepository {
	return &MockStrategyRepository{
		strategies: make(map[string]*models.Strategy),
	}
}

func (m *MockStrategyRepository) Create(strategy *models.Strategy) error {
	m.strategies[strategy.ID] = strategy
	return nil
}

func (m *MockStrategyRepository) GetByID(id string) (*models.Strategy, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if s, exists := m.strategies[id]; exists {
		return s, nil
	}
	return nil, repository.ErrStrategyNotFound
}

func (m *MockStrategyRepository) GetRecent(limit int) ([]*models.Strategy, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make([]*models.Strategy, 0, len(m.strategies))
	for _, s := range m.strategies {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockStrategyRepository) GetByPosition(positionID string, limit int) ([]*models.Strategy, error) {
	result := make([]*models.Strategy, 0)
	for _, s := range m.strategies {
		if s.PositionID == positionID {
			result = append(result, s)
		}
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ============ Mock ExecutionRepository ============

type MockExecutionRepository struct {
	routes      map[string]*models.Route
	results     map[string]*models.ExecutionResult
	successRate float64
	getErr      error
}

func NewMockExecutionRepository() *MockExecutionRepository {
	return &MockExecutionRepository{
		routes:  make(map[string]*models.Route),
		results: make(map[string]*models.ExecutionResult),
	}
}

func (m *MockExecutionRepository) SaveRoute(route *models.Route) error {
	m.routes[route.ID] = route
	return nil
}

func (m *MockExecutionRepository) UpdateRoute(route *models.Route) error {
	if _, exists := m.routes[route.ID]; !exists {
		return repository.ErrRouteNotFound
	}
	m.routes[route.ID] = route
	return nil
}

func (m *MockExecutionRepository) GetRouteByID(id string) (*models.Route, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if r, exists := m.routes[id]; exists {
		return r, nil
	}
	return nil, repository.ErrRouteNotFound
}

func (m *MockExecutionRepository) GetRecentRoutes(limit int) ([]*models.Route, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make([]*models.Route, 0, len(m.routes))
	for _, r := range m.routes {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockExecutionRepository) GetRoutesByPosition(positionID string, limit int) ([]*models.Route, error) {
	result := make([]*models.Route, 0)
	for _, r := range m.routes {
		if r.PositionID == positionID {
			result = append(result, r)
		}
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockExecutionRepository) GetActiveRoutes() ([]*models.Route, error) {
	result := make([]*models.Route, 0)
	for _, r := range m.routes {
		if r.Status == models.ExecutionPending || r.Status == models.ExecutionInProgress {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *MockExecutionRepository) CountRoutesByStatus() (map[string]int, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make(map[string]int)
	for _, r := range m.routes {
		result[r.Status]++
	}
	return result, nil
}

func (m *MockExecutionRepository) SaveResult(result *models.ExecutionResult) error {
	m.results[result.RouteID] = result
	return nil
}

func (m *MockExecutionRepository) GetResultByRouteID(routeID string) (*models.ExecutionResult, error) {
	if r, exists := m.results[routeID]; exists {
		return r, nil
	}
	return nil, repository.ErrResultNotFound
}

func (m *MockExecutionRepository) GetRecentResults(limit int) ([]*models.ExecutionResult, error) {
	result := make([]*models.ExecutionResult, 0, len(m.results))
	for _, r := range m.results {
		result = append(result, r)
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockExecutionRepository) SuccessRate(since time.Time) (float64, error) {
	if m.getErr != nil {
		return 0, m.getErr
	}
	return m.successRate, nil
}

// ============ Mock SettingsRepository ============

type MockSettingsRepository struct {
	settings  *models.Settings
	getErr    error
	updateErr error
	prefsErr  error
}

func NewMockSettingsRepository() *MockSettingsRepository {
	return &MockSettingsRepository{
		settings: &models.Settings{
			ID:          1,
			AutoExecute: true,
			NotificationPrefs: models.NotificationPreferences{
				Alert:         true,
				Strategy:      true,
				Execution:     true,
				ExecutionFail: true,
				Trigger:       true,
				FeedError:     true,
				Pause:         true,
			},
		},
	}
}

func (m *MockSettingsRepository) Get() (*models.Settings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	copied := *m.settings
	return &copied, nil
}

func (m *MockSettingsRepository) Update(settings *models.Settings) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	copied := *settings
	copied.UpdatedAt = time.Now()
	m.settings = &copied
	return nil
}

func (m *MockSettingsRepository) UpdateNotificationPrefs(prefs models.NotificationPreferences) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.settings.NotificationPrefs = prefs
	return nil
}

func (m *MockSettingsRepository) UpdateAutoExecute(autoExecute bool) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.settings.AutoExecute = autoExecute
	return nil
}

func (m *MockSettingsRepository) UpdateMaxConcurrentRoutes(maxRoutes *int) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.settings.MaxConcurrentRoutes = maxRoutes
	return nil
}

func (m *MockSettingsRepository) UpdateAPIKeys(etherscanKey, oneinchKey string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.settings.EtherscanAPIKey = etherscanKey
	m.settings.OneInchAPIKey = oneinchKey
	return nil
}

func (m *MockSettingsRepository) GetNotificationPrefs() (*models.NotificationPreferences, error) {
	if m.prefsErr != nil {
		return nil, m.prefsErr
	}
	prefs := m.settings.NotificationPrefs
	return &prefs, nil
}

func (m *MockSettingsRepository) ResetToDefaults() error {
	m.settings = NewMockSettingsRepository().settings
	return nil
}

// ============ Mock NotificationRepository ============

type MockNotificationRepository struct {
	notifications []*models.Notification
	createErr     error
	getErr        error
	nextID        int
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{nextID: 1}
}

func (m *MockNotificationRepository) Create(n *models.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	n.ID = m.nextID
	m.nextID++
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *MockNotificationRepository) GetRecent(limit int) ([]*models.Notification, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	result := make([]*models.Notification, len(m.notifications))
	copy(result, m.notifications)
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockNotificationRepository) GetByTypes(types []string, limit int) ([]*models.Notification, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	typeSet := make(map[string]bool, len(types))
	for _, t := range types {
		typeSet[t] = true
	}
	result := make([]*models.Notification, 0)
	for _, n := range m.notifications {
		if typeSet[n.Type] {
			result = append(result, n)
		}
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockNotificationRepository) GetByPosition(positionID string, limit int) ([]*models.Notification, error) {
	result := make([]*models.Notification, 0)
	for _, n := range m.notifications {
		if n.PositionID != nil && *n.PositionID == positionID {
			result = append(result, n)
		}
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockNotificationRepository) DeleteAll() (int64, error) {
	count := int64(len(m.notifications))
	m.notifications = nil
	return count, nil
}

func (m *MockNotificationRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	kept := make([]*models.Notification, 0)
	var deleted int64
	for _, n := range m.notifications {
		if n.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	m.notifications = kept
	return deleted, nil
}

func (m *MockNotificationRepository) Count() (int, error) {
	return len(m.notifications), nil
}

// ============ Mock WebSocketBroadcaster ============

type MockBroadcaster struct {
	broadcasts []*models.Notification
}

func (m *MockBroadcaster) BroadcastNotification(n *models.Notification) {
	m.broadcasts = append(m.broadcasts, n)
}
