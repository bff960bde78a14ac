package utils

// math.go - финансовая арифметика пайплайна
//
// Чистые функции без состояния: доходность, окупаемость,
// процентные изменения. Держим их отдельно от бизнес-правил,
// чтобы числовые формулы можно было тестировать изолированно.

import "math"

// ============================================================
// Доходность и окупаемость
// ============================================================

// AnnualYieldUSD возвращает годовой доход в долларах
// для суммы principal и ставки apyPct (проценты годовых)
func AnnualYieldUSD(principal, apyPct float64) float64 {
	if principal <= 0 || apyPct <= 0 {
		return 0
	}
	return principal * apyPct / 100
}

// BreakEvenMonths возвращает срок окупаемости разовой стоимости
// costUSD при годовом дополнительном доходе annualExtraUSD.
// Нулевой или отрицательный доход означает, что затраты не окупятся:
// возвращается neverMonths.
func BreakEvenMonths(costUSD, annualExtraUSD, neverMonths float64) float64 {
	if annualExtraUSD <= 0 {
		return neverMonths
	}
	if costUSD <= 0 {
		return 0
	}
	return costUSD * 12 / annualExtraUSD
}

// CompoundAPY преобразует ставку за период в годовую с капитализацией
//
// periodsPerYear - число периодов начисления в году
func CompoundAPY(periodRatePct float64, periodsPerYear int) float64 {
	if periodsPerYear <= 0 {
		return 0
	}
	rate := periodRatePct / 100
	return (math.Pow(1+rate, float64(periodsPerYear)) - 1) * 100
}

// ============================================================
// Процентные изменения
// ============================================================

// PercentChange возвращает изменение от oldValue к newValue в процентах
// Для нулевой базы возвращает 0: изменение неопределимо
func PercentChange(oldValue, newValue float64) float64 {
	if oldValue == 0 {
		return 0
	}
	return (newValue - oldValue) / oldValue * 100
}

// ApplyDrop возвращает значение после падения на dropPct процентов
func ApplyDrop(value, dropPct float64) float64 {
	return value * (1 - dropPct/100)
}

// BasisPointsToPercent переводит базисные пункты в проценты
func BasisPointsToPercent(bps float64) float64 {
	return bps / 100
}

// ============================================================
// Агрегация
// ============================================================

// WeightedAverage возвращает взвешенное среднее values по weights
// Срезы разной длины или нулевая сумма весов дают 0
func WeightedAverage(values, weights []float64) float64 {
	if len(values) != len(weights) || len(values) == 0 {
		return 0
	}

	var sum, weightSum float64
	for i, v := range values {
		sum += v * weights[i]
		weightSum += weights[i]
	}

	if weightSum == 0 {
		return 0
	}
	return sum / weightSum
}

// ============================================================
// Элементарные помощники
// ============================================================

// Abs возвращает абсолютное значение
func Abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Min возвращает меньшее из двух значений
func Min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Max возвращает большее из двух значений
func Max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Clamp ограничивает значение диапазоном [min, max]
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// RoundTo округляет значение до decimals знаков после запятой
func RoundTo(value float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(value*pow) / pow
}
