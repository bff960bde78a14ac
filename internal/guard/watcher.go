package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"liquidityguard/internal/bus"
	"liquidityguard/internal/models"
	"liquidityguard/internal/risk"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Параметры наблюдателя по умолчанию
const (
	defaultPollInterval  = 30 * time.Second
	defaultAlertCooldown = 1800 * time.Second // окно подавления алертов на (user, position)

	// Столько подряд неудачных оценок переводят позицию в paused
	maxConsecutiveErrors = 5
)

// PositionStore - персистентность позиций
// Реализуется repository.PositionRepository, в тестах подменяется mock'ом
type PositionStore interface {
	ListMonitored() ([]*models.Position, error)
	Update(pos *models.Position) error
}

// AlertStore - журнал эмитированных алертов
// Реализуется repository.AlertRepository
type AlertStore interface {
	Create(alert *models.Alert) error
}

// WatcherConfig - параметры цикла наблюдения
type WatcherConfig struct {
	PollInterval  time.Duration
	AlertCooldown time.Duration
}

// DefaultWatcherConfig возвращает параметры наблюдателя по умолчанию
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		PollInterval:  defaultPollInterval,
		AlertCooldown: defaultAlertCooldown,
	}
}

// Watcher опрашивает позиции, оценивает риск и эмитит алерты
//
// Каждый цикл: обновление цен → пересчет стоимостей и health factor →
// оценка риска → алерт, если уровень moderate или хуже и (user, position)
// вне cooldown-окна. Принудительная переоценка сбрасывает cooldown.
type Watcher struct {
	cfg      WatcherConfig
	bus      *bus.Bus
	prices   PriceSource
	assessor risk.Assessor
	store    PositionStore
	alerts   AlertStore
	logger   *zap.Logger
	wsHub    Broadcaster
	notifFn  func(n *models.Notification)

	mu        sync.RWMutex
	positions map[string]*models.Position
	lastAlert map[string]time.Time // cooldown key → время последнего алерта
	errCounts map[string]int       // position id → подряд неудачных оценок
}

// NewWatcher создает наблюдатель позиций
func NewWatcher(cfg WatcherConfig, b *bus.Bus, prices PriceSource, assessor risk.Assessor, logger *zap.Logger) *Watcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.AlertCooldown <= 0 {
		cfg.AlertCooldown = defaultAlertCooldown
	}
	return &Watcher{
		cfg:       cfg,
		bus:       b,
		prices:    prices,
		assessor:  assessor,
		logger:    logger,
		positions: make(map[string]*models.Position),
		lastAlert: make(map[string]time.Time),
		errCounts: make(map[string]int),
	}
}

// SetStore устанавливает персистентность позиций
func (w *Watcher) SetStore(store PositionStore) {
	w.store = store
}

// SetAlertStore устанавливает журнал алертов
func (w *Watcher) SetAlertStore(store AlertStore) {
	w.alerts = store
}

// SetBroadcaster устанавливает WebSocket hub для рассылки алертов
func (w *Watcher) SetBroadcaster(hub Broadcaster) {
	w.wsHub = hub
}

// SetNotifyFunc устанавливает callback создания уведомлений
func (w *Watcher) SetNotifyFunc(fn func(n *models.Notification)) {
	w.notifFn = fn
}

// Restore загружает отслеживаемые позиции из хранилища
// Вызывается один раз при старте
func (w *Watcher) Restore() error {
	if w.store == nil {
		return nil
	}
	positions, err := w.store.ListMonitored()
	if err != nil {
		return fmt.Errorf("failed to restore positions: %w", err)
	}

	w.mu.Lock()
	for _, pos := range positions {
		w.positions[pos.ID] = pos
	}
	w.mu.Unlock()

	w.logger.Info("positions restored", zap.Int("count", len(positions)))
	return nil
}

// Register ставит позицию под мониторинг
func (w *Watcher) Register(pos *models.Position) {
	if pos.ID == "" {
		pos.ID = uuid.NewString()
	}
	if pos.Status == "" {
		pos.Status = models.PositionStatusMonitored
	}
	now := time.Now()
	if pos.CreatedAt.IsZero() {
		pos.CreatedAt = now
	}
	pos.UpdatedAt = now

	w.mu.Lock()
	w.positions[pos.ID] = pos
	w.mu.Unlock()

	w.logger.Info("position registered",
		zap.String("position_id", pos.ID),
		zap.String("protocol", pos.Protocol),
		zap.String("chain", pos.Chain))
}

// Unregister снимает позицию с мониторинга
func (w *Watcher) Unregister(positionID string) {
	w.mu.Lock()
	pos, ok := w.positions[positionID]
	delete(w.positions, positionID)
	if ok {
		delete(w.lastAlert, pos.UserAddress+":"+pos.ID)
		delete(w.errCounts, positionID)
	}
	w.mu.Unlock()
}

// Pause приостанавливает мониторинг позиции
func (w *Watcher) Pause(positionID string) bool {
	return w.setStatus(positionID, models.PositionStatusPaused)
}

// Resume возобновляет мониторинг позиции
func (w *Watcher) Resume(positionID string) bool {
	w.mu.Lock()
	delete(w.errCounts, positionID)
	w.mu.Unlock()
	return w.setStatus(positionID, models.PositionStatusMonitored)
}

// setStatus меняет статус позиции и сохраняет ее
func (w *Watcher) setStatus(positionID, status string) bool {
	w.mu.Lock()
	pos, ok := w.positions[positionID]
	if ok {
		pos.Status = status
		pos.UpdatedAt = time.Now()
	}
	w.mu.Unlock()

	if ok {
		w.persist(pos)
	}
	return ok
}

// Position возвращает копию позиции по id
func (w *Watcher) Position(positionID string) (*models.Position, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	pos, ok := w.positions[positionID]
	if !ok {
		return nil, false
	}
	cp := *pos
	return &cp, true
}

// Positions возвращает копии всех отслеживаемых позиций
func (w *Watcher) Positions() []*models.Position {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*models.Position, 0, len(w.positions))
	for _, pos := range w.positions {
		cp := *pos
		out = append(out, &cp)
	}
	return out
}

// Run запускает цикл опроса до отмены контекста
// Запускается в отдельной горутине
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case result := <-w.bus.Results():
			w.handleResult(result)
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick выполняет один цикл оценки всех позиций
func (w *Watcher) Tick(ctx context.Context) {
	market, err := w.prices.Snapshot(ctx)
	if err != nil {
		RecordFeedError("prices")
		w.logger.Error("failed to fetch market snapshot", zap.Error(err))
		return
	}

	w.mu.RLock()
	batch := make([]*models.Position, 0, len(w.positions))
	for _, pos := range w.positions {
		if pos.Status == models.PositionStatusMonitored {
			batch = append(batch, pos)
		}
	}
	w.mu.RUnlock()

	levels := make(map[string]int)
	for _, pos := range batch {
		if assessment, ok := w.evaluate(ctx, pos, market, false); ok {
			levels[assessment.RiskLevel]++
		}
	}

	for _, level := range []string{models.RiskLevelCritical, models.RiskLevelHigh, models.RiskLevelModerate, models.RiskLevelLow, models.RiskLevelSafe} {
		PositionsMonitored.WithLabelValues(level).Set(float64(levels[level]))
	}
}

// ForceEvaluate принудительно переоценивает позицию, минуя cooldown
// Используется demo-триггером и ручным запросом из API
func (w *Watcher) ForceEvaluate(ctx context.Context, positionID string) (*models.Assessment, error) {
	w.mu.Lock()
	pos, ok := w.positions[positionID]
	if ok {
		delete(w.lastAlert, pos.UserAddress+":"+pos.ID)
	}
	w.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("position %s is not monitored", positionID)
	}

	market, err := w.prices.Snapshot(ctx)
	if err != nil {
		RecordFeedError("prices")
		return nil, fmt.Errorf("failed to fetch market snapshot: %w", err)
	}

	assessment, evaluated := w.evaluate(ctx, pos, market, true)
	if !evaluated {
		return nil, fmt.Errorf("failed to evaluate position %s", positionID)
	}
	return &assessment, nil
}

// evaluate пересчитывает позицию и при необходимости эмитит алерт
func (w *Watcher) evaluate(ctx context.Context, pos *models.Position, market models.MarketSnapshot, forced bool) (models.Assessment, bool) {
	start := time.Now()
	defer func() {
		EvaluationLatency.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if err := w.refreshValues(ctx, pos); err != nil {
		RecordFeedError("prices")
		w.recordError(pos, err)
		return models.Assessment{}, false
	}

	timeToLiq := estimateTimeToLiquidation(pos.HealthFactor, market.Volatility)
	assessment, err := w.assessor.Assess(ctx, pos, market, timeToLiq)
	if err != nil {
		w.recordError(pos, err)
		return models.Assessment{}, false
	}

	w.mu.Lock()
	delete(w.errCounts, pos.ID)
	pos.HealthFactor = assessment.HealthFactor
	pos.RiskLevel = assessment.RiskLevel
	pos.UpdatedAt = time.Now()
	w.mu.Unlock()
	w.persist(pos)

	if alertableLevel(assessment.RiskLevel) {
		w.emitAlert(ctx, pos, assessment, forced)
	}
	return assessment, true
}

// alertableLevel сообщает, эмитится ли алерт для уровня риска
// Порог - граница moderate (hf < 1.8): low и safe не алертятся
func alertableLevel(level string) bool {
	switch level {
	case models.RiskLevelCritical, models.RiskLevelHigh, models.RiskLevelModerate:
		return true
	default:
		return false
	}
}

// refreshValues пересчитывает долларовые стоимости позиции по текущим ценам
func (w *Watcher) refreshValues(ctx context.Context, pos *models.Position) error {
	collateralPrice, err := w.prices.Price(ctx, pos.CollateralToken)
	if err != nil {
		return fmt.Errorf("collateral price for %s: %w", pos.CollateralToken, err)
	}
	debtPrice, err := w.prices.Price(ctx, pos.DebtToken)
	if err != nil {
		return fmt.Errorf("debt price for %s: %w", pos.DebtToken, err)
	}

	w.mu.Lock()
	pos.CollateralValueUSD = pos.CollateralAmount * collateralPrice
	pos.DebtValueUSD = pos.DebtAmount * debtPrice
	w.mu.Unlock()
	return nil
}

// emitAlert публикует алерт с учетом cooldown-окна
func (w *Watcher) emitAlert(ctx context.Context, pos *models.Position, assessment models.Assessment, forced bool) {
	key := pos.UserAddress + ":" + pos.ID

	w.mu.Lock()
	if !forced {
		if last, ok := w.lastAlert[key]; ok && time.Since(last) < w.cfg.AlertCooldown {
			remaining := w.cfg.AlertCooldown - time.Since(last)
			w.mu.Unlock()
			RecordSuppressed()
			w.logger.Debug("alert suppressed by cooldown",
				zap.String("position_id", pos.ID),
				zap.String("user_address", pos.UserAddress),
				zap.String("risk_level", assessment.RiskLevel),
				zap.Duration("remaining", remaining))
			return
		}
	}
	w.lastAlert[key] = time.Now()
	w.mu.Unlock()

	alert := &models.Alert{
		ID:                uuid.NewString(),
		UserAddress:       pos.UserAddress,
		PositionID:        pos.ID,
		Protocol:          pos.Protocol,
		Chain:             pos.Chain,
		HealthFactor:      assessment.HealthFactor,
		CollateralValue:   pos.CollateralValueUSD,
		DebtValue:         pos.DebtValueUSD,
		CollateralToken:   pos.CollateralToken,
		DebtToken:         pos.DebtToken,
		RiskLevel:         assessment.RiskLevel,
		Urgency:           assessment.Urgency,
		Scenario:          assessment.Scenario,
		Priority:          assessment.Priority,
		TimeToLiquidation: assessment.TimeToLiquidation,
		Forced:            forced,
		Timestamp:         time.Now(),
		Assessment:        assessment,
	}

	if err := w.bus.PublishAlert(ctx, alert); err != nil {
		w.logger.Error("failed to publish alert",
			zap.String("position_id", pos.ID),
			zap.Error(err))
		return
	}

	if w.alerts != nil {
		if err := w.alerts.Create(alert); err != nil {
			w.logger.Error("failed to persist alert",
				zap.String("alert_id", alert.ID),
				zap.Error(err))
		}
	}

	RecordAlert(alert.RiskLevel)
	w.logger.Warn("alert emitted",
		zap.String("position_id", pos.ID),
		zap.String("risk_level", alert.RiskLevel),
		zap.Float64("health_factor", alert.HealthFactor),
		zap.Int("urgency", alert.Urgency),
		zap.String("scenario", alert.Scenario),
		zap.Bool("forced", forced))

	if w.wsHub != nil {
		w.wsHub.BroadcastAlert(alert)
	}
	if w.notifFn != nil {
		positionID := pos.ID
		severity := models.SeverityWarn
		if alert.RiskLevel == models.RiskLevelCritical {
			severity = models.SeverityError
		}
		w.notifFn(&models.Notification{
			Type:       models.NotificationTypeAlert,
			Severity:   severity,
			PositionID: &positionID,
			Message: fmt.Sprintf("Position at %s risk: health factor %.3f, urgency %d/10",
				alert.RiskLevel, alert.HealthFactor, alert.Urgency),
			Meta: map[string]interface{}{
				"alert_id": alert.ID,
				"scenario": alert.Scenario,
				"priority": alert.Priority,
			},
		})
	}
}

// handleResult обрабатывает результат исполнения маршрута
//
// Успешная ребалансировка сбрасывает cooldown: позиция изменилась
// и должна быть переоценена на следующем цикле без подавления.
func (w *Watcher) handleResult(result *models.ExecutionResult) {
	w.mu.Lock()
	pos, ok := w.positions[result.PositionID]
	if ok {
		pos.Status = models.PositionStatusMonitored
		pos.UpdatedAt = time.Now()
		if result.Success {
			delete(w.lastAlert, pos.UserAddress+":"+pos.ID)
		}
	}
	w.mu.Unlock()

	if !ok {
		w.logger.Warn("execution result for unknown position",
			zap.String("position_id", result.PositionID),
			zap.String("route_id", result.RouteID))
		return
	}

	w.persist(pos)
	w.logger.Info("execution result processed",
		zap.String("position_id", result.PositionID),
		zap.String("route_id", result.RouteID),
		zap.Bool("success", result.Success),
		zap.Int("completed_steps", result.CompletedSteps))
}

// recordError считает подряд идущие ошибки оценки
// После maxConsecutiveErrors позиция приостанавливается
func (w *Watcher) recordError(pos *models.Position, err error) {
	w.mu.Lock()
	w.errCounts[pos.ID]++
	count := w.errCounts[pos.ID]
	paused := false
	if count >= maxConsecutiveErrors && pos.Status == models.PositionStatusMonitored {
		pos.Status = models.PositionStatusPaused
		pos.UpdatedAt = time.Now()
		paused = true
	}
	w.mu.Unlock()

	w.logger.Error("position evaluation failed",
		zap.String("position_id", pos.ID),
		zap.Int("consecutive_errors", count),
		zap.Error(err))

	if paused {
		w.persist(pos)
		if w.notifFn != nil {
			positionID := pos.ID
			w.notifFn(&models.Notification{
				Type:       models.NotificationTypePause,
				Severity:   models.SeverityError,
				PositionID: &positionID,
				Message: fmt.Sprintf("Monitoring paused after %d consecutive evaluation failures",
					count),
			})
		}
	}
}

// persist сохраняет позицию, если хранилище подключено
func (w *Watcher) persist(pos *models.Position) {
	if w.store == nil {
		return
	}
	if err := w.store.Update(pos); err != nil {
		w.logger.Error("failed to persist position",
			zap.String("position_id", pos.ID),
			zap.Error(err))
	}
}

// Cooldowns возвращает число активных cooldown-окон (для health-check)
func (w *Watcher) Cooldowns() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.lastAlert)
}

// estimateTimeToLiquidation прогнозирует время до ликвидации (секунды)
//
// Модель: цена залога дрейфует со скоростью дневной волатильности.
// Ликвидация наступает при падении health factor до 1.0, то есть
// при снижении цены залога в 1/hf раз. Для безопасных позиций
// и нулевой волатильности прогноз не строится (0).
func estimateTimeToLiquidation(hf, volatility float64) int64 {
	if hf <= 1.0 {
		return 0
	}
	if hf >= 1.8 || volatility <= 0 {
		return 0
	}
	dropNeeded := 1.0 - 1.0/hf       // доля падения цены до ликвидации
	dailyDrift := volatility / 100.0 // доля дневного движения
	days := dropNeeded / dailyDrift
	return int64(days * 86400)
}
