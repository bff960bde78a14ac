package guard

import (
	"fmt"

	"liquidityguard/internal/models"
)

// ValidTransitions определяет допустимые переходы между состояниями исполнения
var ValidTransitions = map[string][]string{
	models.ExecutionPending:    {models.ExecutionInProgress, models.ExecutionFailed}, // Failed при невалидном маршруте
	models.ExecutionInProgress: {models.ExecutionSucceeded, models.ExecutionFailed},
	models.ExecutionSucceeded:  {}, // терминальное
	models.ExecutionFailed:     {}, // терминальное
}

// CanTransition проверяет допустимость перехода
func CanTransition(from, to string) bool {
	allowed, ok := ValidTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// StateTransitionError описывает недопустимый переход состояния маршрута
type StateTransitionError struct {
	RouteID string
	From    string
	To      string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("invalid execution transition %s → %s for route %s", e.From, e.To, e.RouteID)
}

// TryTransition выполняет переход состояния маршрута с проверкой допустимости
//
// Возвращает *StateTransitionError если переход запрещен.
// Состояние маршрута изменяется только при успехе.
func TryTransition(route *models.Route, to string) error {
	if !CanTransition(route.Status, to) {
		return &StateTransitionError{
			RouteID: route.ID,
			From:    route.Status,
			To:      to,
		}
	}
	route.Status = to
	return nil
}

// ForceTransition выполняет переход без проверки допустимости
// Используется только при восстановлении после рестарта
func ForceTransition(route *models.Route, to string) {
	route.Status = to
}

// StateInfo возвращает описание состояния для UI
func StateInfo(s string) string {
	switch s {
	case models.ExecutionPending:
		return "Маршрут принят, ожидает исполнения"
	case models.ExecutionInProgress:
		return "Исполнение шагов маршрута..."
	case models.ExecutionSucceeded:
		return "Ребалансировка завершена"
	case models.ExecutionFailed:
		return "Исполнение прервано, требуется внимание"
	default:
		return "Неизвестное состояние"
	}
}

// IsTerminal возвращает true если состояние терминальное
// Из терминального состояния переходы невозможны
func IsTerminal(s string) bool {
	return s == models.ExecutionSucceeded || s == models.ExecutionFailed
}

// IsActive возвращает true если маршрут еще исполняется
func IsActive(s string) bool {
	return s == models.ExecutionPending || s == models.ExecutionInProgress
}
