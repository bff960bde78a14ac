package guard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"liquidityguard/internal/models"
)

// Длительности шагов симуляции
// Реальное исполнение занимает десятки секунд, для демо масштабируем вниз
const (
	simTimeWithdraw = 300 * time.Millisecond
	simTimeSwap     = 200 * time.Millisecond
	simTimeBridge   = 800 * time.Millisecond
	simTimeSupply   = 300 * time.Millisecond
)

// SimulatedBackend исполняет шаги маршрута без реальных транзакций
//
// Хеши транзакций детерминированы (route id + индекс шага), поэтому
// результаты воспроизводимы. Через FailOn можно внедрять ошибки
// для проверки прерывания маршрутов.
type SimulatedBackend struct {
	// Масштаб длительности шага: 1.0 - реалистичные задержки,
	// 0 - мгновенное исполнение (тесты)
	TimeScale float64

	// FailOn, если задан, вызывается перед исполнением шага
	// Ненулевая ошибка прерывает шаг
	FailOn func(route *models.Route, step models.Step) error

	executed atomic.Int64
}

// NewSimulatedBackend создает симулятор с реалистичными задержками
func NewSimulatedBackend() *SimulatedBackend {
	return &SimulatedBackend{TimeScale: 1.0}
}

// ExecuteStep симулирует исполнение одного шага
func (b *SimulatedBackend) ExecuteStep(ctx context.Context, route *models.Route, step models.Step) (string, error) {
	if b.FailOn != nil {
		if err := b.FailOn(route, step); err != nil {
			return "", err
		}
	}

	delay := time.Duration(float64(b.stepDelay(step.Action)) * b.TimeScale)
	if delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}

	b.executed.Add(1)
	return simulatedTxHash(route.ID, step.Index), nil
}

// ExecutedSteps возвращает количество исполненных шагов
func (b *SimulatedBackend) ExecutedSteps() int64 {
	return b.executed.Load()
}

// stepDelay возвращает базовую задержку для действия
func (b *SimulatedBackend) stepDelay(action string) time.Duration {
	switch action {
	case models.StepWithdraw:
		return simTimeWithdraw
	case models.StepSwap:
		return simTimeSwap
	case models.StepBridge:
		return simTimeBridge
	case models.StepSupply:
		return simTimeSupply
	default:
		return simTimeSwap
	}
}

// simulatedTxHash строит детерминированный псевдо-хеш транзакции
func simulatedTxHash(routeID string, stepIndex int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", routeID, stepIndex)))
	return "0x" + hex.EncodeToString(sum[:])
}

var _ ExecutionBackend = (*SimulatedBackend)(nil)
