package utils

// time.go - работа с временными окнами и форматирование длительностей
//
// Статистика пайплайна считается по скользящим окнам (последние N часов),
// а не по календарным суткам: позиции мониторятся непрерывно.

import (
	"fmt"
	"time"
)

// ============================================================
// Временные окна
// ============================================================

// TimeRange - полуинтервал [Start, End)
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains проверяет попадание момента в интервал
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && t.Before(tr.End)
}

// Duration возвращает длину интервала
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// LastNHours возвращает окно последних n часов до текущего момента
func LastNHours(n int) TimeRange {
	now := time.Now()
	return TimeRange{
		Start: now.Add(-time.Duration(n) * time.Hour),
		End:   now,
	}
}

// LastNDays возвращает окно последних n суток до текущего момента
func LastNDays(n int) TimeRange {
	now := time.Now()
	return TimeRange{
		Start: now.AddDate(0, 0, -n),
		End:   now,
	}
}

// DayStart возвращает начало суток для момента t (в его локации)
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ============================================================
// Форматирование
// ============================================================

// FormatDuration возвращает человекочитаемую длительность
//
// Примеры: "45s", "12m30s", "2h05m", "3d14h"
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}

	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		if s == 0 {
			return fmt.Sprintf("%dm", m)
		}
		return fmt.Sprintf("%dm%02ds", m, s)
	case d < 24*time.Hour:
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%02dm", h, m)
	default:
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		if h == 0 {
			return fmt.Sprintf("%dd", days)
		}
		return fmt.Sprintf("%dd%dh", days, h)
	}
}

// ============================================================
// Unix-метки
// ============================================================

// UnixMillis возвращает текущее время в миллисекундах Unix
func UnixMillis() int64 {
	return time.Now().UnixMilli()
}

// FromUnixMillis восстанавливает время из миллисекунд Unix
func FromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
