// Package bus предоставляет типизированную внутрипроцессную шину сообщений
// между стадиями пайплайна.
package bus

import (
	"context"
	"sync/atomic"

	"liquidityguard/internal/models"
)

// Размер буфера каналов по умолчанию
const defaultBufferSize = 128

// Bus - шина сообщений пайплайна
//
// Каждому типу сообщения соответствует свой буферизированный канал:
//
//	Alerts:    Position Watcher → Strategy Selector
//	Strategies: Strategy Selector → Route Builder & Executor
//	Results:   Executor → Position Watcher
//
// Publish* блокируется при заполненном буфере (backpressure на стадию-производителя),
// но уважает context. TryPublish* не блокируется и инкрементирует счетчик потерь -
// используется только для рекомендательных рассылок.
type Bus struct {
	alerts     chan *models.Alert
	strategies chan *models.Strategy
	results    chan *models.ExecutionResult

	droppedAlerts     atomic.Int64
	droppedStrategies atomic.Int64
	droppedResults    atomic.Int64
}

// New создает шину с буферами заданного размера
func New(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Bus{
		alerts:     make(chan *models.Alert, bufferSize),
		strategies: make(chan *models.Strategy, bufferSize),
		results:    make(chan *models.ExecutionResult, bufferSize),
	}
}

// PublishAlert отправляет алерт селектору стратегий
func (b *Bus) PublishAlert(ctx context.Context, alert *models.Alert) error {
	select {
	case b.alerts <- alert:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishStrategy отправляет стратегию исполнителю
func (b *Bus) PublishStrategy(ctx context.Context, strategy *models.Strategy) error {
	select {
	case b.strategies <- strategy:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishResult отправляет результат исполнения наблюдателю
func (b *Bus) PublishResult(ctx context.Context, result *models.ExecutionResult) error {
	select {
	case b.results <- result:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPublishAlert - неблокирующая отправка, при заполненном буфере сообщение теряется
func (b *Bus) TryPublishAlert(alert *models.Alert) bool {
	select {
	case b.alerts <- alert:
		return true
	default:
		b.droppedAlerts.Add(1)
		return false
	}
}

// Alerts возвращает канал алертов для единственного потребителя
func (b *Bus) Alerts() <-chan *models.Alert {
	return b.alerts
}

// Strategies возвращает канал стратегий для единственного потребителя
func (b *Bus) Strategies() <-chan *models.Strategy {
	return b.strategies
}

// Results возвращает канал результатов для единственного потребителя
func (b *Bus) Results() <-chan *models.ExecutionResult {
	return b.results
}

// DroppedAlerts возвращает число потерянных алертов (TryPublish при полном буфере)
func (b *Bus) DroppedAlerts() int64 {
	return b.droppedAlerts.Load()
}

// PendingAlerts возвращает число алертов в буфере (для health-check)
func (b *Bus) PendingAlerts() int {
	return len(b.alerts)
}

// PendingStrategies возвращает число стратегий в буфере
func (b *Bus) PendingStrategies() int {
	return len(b.strategies)
}

// PendingResults возвращает число результатов в буфере
func (b *Bus) PendingResults() int {
	return len(b.results)
}
