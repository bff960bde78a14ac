package guard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"liquidityguard/internal/bus"
	"liquidityguard/internal/models"
	"liquidityguard/pkg/retry"

	"go.uber.org/zap"
)

// RouteStore - персистентность маршрутов и результатов
// Реализуется repository.ExecutionRepository, в тестах подменяется mock'ом
type RouteStore interface {
	SaveRoute(route *models.Route) error
	UpdateRoute(route *models.Route) error
	SaveResult(result *models.ExecutionResult) error
}

// Executor исполняет маршруты ребалансировки
//
// Потребляет стратегии из шины, строит маршрут и исполняет шаги
// строго по порядку. Первый неудавшийся шаг прерывает маршрут:
// отката нет, частичный прогресс фиксируется в результате.
// Для одной позиции одновременно исполняется не более одного маршрута.
// Каждый принятый маршрут завершается ровно одним ExecutionResult.
type Executor struct {
	bus     *bus.Bus
	builder *RouteBuilder
	backend ExecutionBackend
	store   RouteStore
	logger  *zap.Logger
	wsHub   Broadcaster
	notifFn func(n *models.Notification)

	// Повторы временных ошибок шагов; Permanent прерывает сразу
	stepRetry retry.Config

	mu       sync.Mutex
	inFlight map[string]string // position id → route id
}

// NewExecutor создает исполнитель маршрутов
func NewExecutor(b *bus.Bus, builder *RouteBuilder, backend ExecutionBackend, logger *zap.Logger) *Executor {
	stepRetry := retry.AggressiveConfig()
	stepRetry.RetryIf = retry.IsRetryable

	return &Executor{
		bus:       b,
		builder:   builder,
		backend:   backend,
		logger:    logger,
		stepRetry: stepRetry,
		inFlight:  make(map[string]string),
	}
}

// SetStore устанавливает персистентность маршрутов
func (e *Executor) SetStore(store RouteStore) {
	e.store = store
}

// SetBroadcaster устанавливает WebSocket hub
func (e *Executor) SetBroadcaster(hub Broadcaster) {
	e.wsHub = hub
}

// SetNotifyFunc устанавливает callback создания уведомлений
func (e *Executor) SetNotifyFunc(fn func(n *models.Notification)) {
	e.notifFn = fn
}

// Run потребляет стратегии из шины до отмены контекста
// Запускается в отдельной горутине
func (e *Executor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case strategy := <-e.bus.Strategies():
			e.Execute(ctx, strategy)
		}
	}
}

// Execute строит и исполняет маршрут для стратегии
//
// Если по позиции уже исполняется маршрут, стратегия отбрасывается:
// результат выдаст уже идущее исполнение.
func (e *Executor) Execute(ctx context.Context, strategy *models.Strategy) {
	route := e.builder.Build(ctx, strategy)

	e.mu.Lock()
	if activeID, busy := e.inFlight[route.PositionID]; busy {
		e.mu.Unlock()
		e.logger.Warn("position already rebalancing, strategy dropped",
			zap.String("position_id", route.PositionID),
			zap.String("active_route", activeID),
			zap.String("strategy_id", strategy.ID))
		return
	}
	e.inFlight[route.PositionID] = route.ID
	e.mu.Unlock()

	ActiveRoutes.Inc()
	defer func() {
		e.mu.Lock()
		delete(e.inFlight, route.PositionID)
		e.mu.Unlock()
		ActiveRoutes.Dec()
	}()

	if e.store != nil {
		if err := e.store.SaveRoute(route); err != nil {
			e.logger.Error("failed to persist route", zap.String("route_id", route.ID), zap.Error(err))
		}
	}

	result := e.runRoute(ctx, route)

	RecordExecution(result.Success)
	if e.store != nil {
		if err := e.store.UpdateRoute(route); err != nil {
			e.logger.Error("failed to update route", zap.String("route_id", route.ID), zap.Error(err))
		}
		if err := e.store.SaveResult(result); err != nil {
			e.logger.Error("failed to persist result", zap.String("route_id", route.ID), zap.Error(err))
		}
	}
	if e.wsHub != nil {
		e.wsHub.BroadcastExecution(route.ID, route.Status, result)
	}
	e.notify(route, result)

	// Ровно один результат на принятый маршрут
	if err := e.bus.PublishResult(ctx, result); err != nil {
		e.logger.Error("failed to publish execution result",
			zap.String("route_id", route.ID),
			zap.Error(err))
	}
}

// runRoute исполняет шаги маршрута и возвращает результат
func (e *Executor) runRoute(ctx context.Context, route *models.Route) *models.ExecutionResult {
	result := &models.ExecutionResult{
		RouteID:    route.ID,
		StrategyID: route.StrategyID,
		PositionID: route.PositionID,
		TotalSteps: len(route.Steps),
	}

	now := time.Now()
	route.StartedAt = &now

	if err := TryTransition(route, models.ExecutionInProgress); err != nil {
		// Маршрут не в PENDING - исполнять нечего
		ForceTransition(route, models.ExecutionFailed)
		return e.finishRoute(route, result, err.Error())
	}
	e.broadcastStatus(route)

	for _, step := range route.Steps {
		txHash, err := e.runStep(ctx, route, step)
		if err != nil {
			e.logger.Error("step failed, aborting route",
				zap.String("route_id", route.ID),
				zap.Int("step", step.Index),
				zap.String("action", step.Action),
				zap.Error(err))

			if terr := TryTransition(route, models.ExecutionFailed); terr != nil {
				ForceTransition(route, models.ExecutionFailed)
			}
			return e.finishRoute(route, result,
				fmt.Sprintf("step %d (%s) failed: %v", step.Index, step.Action, err))
		}

		result.CompletedSteps++
		if txHash != "" {
			result.TxHashes = append(result.TxHashes, txHash)
		}
	}

	if err := TryTransition(route, models.ExecutionSucceeded); err != nil {
		ForceTransition(route, models.ExecutionFailed)
		return e.finishRoute(route, result, err.Error())
	}

	result.Success = true
	result.ActualCostUSD = route.TotalCostUSD
	return e.finishRoute(route, result, "rebalance completed")
}

// runStep исполняет один шаг с повторами временных ошибок
func (e *Executor) runStep(ctx context.Context, route *models.Route, step models.Step) (string, error) {
	start := time.Now()
	defer func() {
		RecordStepLatency(step.Action, float64(time.Since(start).Milliseconds()))
	}()

	return retry.DoWithResult(ctx, func() (string, error) {
		return e.backend.ExecuteStep(ctx, route, step)
	}, e.stepRetry)
}

// finishRoute проставляет финальные поля результата
func (e *Executor) finishRoute(route *models.Route, result *models.ExecutionResult, message string) *models.ExecutionResult {
	now := time.Now()
	route.CompletedAt = &now

	result.Status = route.Status
	result.Message = message
	result.Timestamp = now
	e.broadcastStatus(route)
	return result
}

// broadcastStatus рассылает изменение состояния маршрута
func (e *Executor) broadcastStatus(route *models.Route) {
	if e.wsHub != nil {
		e.wsHub.BroadcastExecution(route.ID, route.Status, nil)
	}
}

// notify пишет уведомление об исходе исполнения
func (e *Executor) notify(route *models.Route, result *models.ExecutionResult) {
	if e.notifFn == nil {
		return
	}

	positionID := route.PositionID
	if result.Success {
		e.notifFn(&models.Notification{
			Type:       models.NotificationTypeExecution,
			Severity:   models.SeverityInfo,
			PositionID: &positionID,
			Message: fmt.Sprintf("Route %s completed: %d/%d steps",
				route.ID, result.CompletedSteps, result.TotalSteps),
			Meta: map[string]interface{}{
				"route_id":  route.ID,
				"method":    route.Method,
				"tx_hashes": result.TxHashes,
			},
		})
		return
	}

	e.notifFn(&models.Notification{
		Type:       models.NotificationTypeExecutionFail,
		Severity:   models.SeverityError,
		PositionID: &positionID,
		Message: fmt.Sprintf("Route %s aborted after %d/%d steps: %s",
			route.ID, result.CompletedSteps, result.TotalSteps, result.Message),
		Meta: map[string]interface{}{
			"route_id": route.ID,
			"method":   route.Method,
		},
	})
}

// InFlight возвращает число исполняющихся маршрутов (для health-check)
func (e *Executor) InFlight() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.inFlight)
}
