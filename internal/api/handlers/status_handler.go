package handlers

import (
	"net/http"
	"time"

	"liquidityguard/internal/models"
	"liquidityguard/pkg/utils"
)

// WatcherStatus - срез состояния наблюдателя позиций
// Реализуется guard.Watcher
type WatcherStatus interface {
	Positions() []*models.Position
	Cooldowns() int
}

// ExecutorStatus - срез состояния исполнителя маршрутов
// Реализуется guard.Executor
type ExecutorStatus interface {
	InFlight() int
}

// BusStatus - глубины очередей шины сообщений
// Реализуется bus.Bus
type BusStatus interface {
	PendingAlerts() int
	PendingStrategies() int
	PendingResults() int
	DroppedAlerts() int64
}

// StatusHandler отвечает за сводку состояния пайплайна
//
// Endpoints:
// - GET /api/v1/status - состояние всех стадий пайплайна
type StatusHandler struct {
	watcher  WatcherStatus
	executor ExecutorStatus
	bus      BusStatus
	started  time.Time
}

// NewStatusHandler создает новый StatusHandler с внедрением зависимостей
func NewStatusHandler(watcher WatcherStatus, executor ExecutorStatus, bus BusStatus) *StatusHandler {
	return &StatusHandler{
		watcher:  watcher,
		executor: executor,
		bus:      bus,
		started:  time.Now(),
	}
}

// PipelineStatus - состояние пайплайна для дашборда
type PipelineStatus struct {
	UptimeSeconds int64          `json:"uptime_seconds"`
	Uptime        string         `json:"uptime"`
	Watcher       WatcherInfo    `json:"watcher"`
	Executor      ExecutorInfo   `json:"executor"`
	Bus           BusInfo        `json:"bus"`
	RiskLevels    map[string]int `json:"risk_levels"`
}

// WatcherInfo - состояние наблюдателя
type WatcherInfo struct {
	Positions       int `json:"positions"`
	Monitored       int `json:"monitored"`
	Paused          int `json:"paused"`
	ActiveCooldowns int `json:"active_cooldowns"`
}

// ExecutorInfo - состояние исполнителя
type ExecutorInfo struct {
	InFlight int `json:"in_flight"`
}

// BusInfo - глубины очередей шины
type BusInfo struct {
	PendingAlerts     int   `json:"pending_alerts"`
	PendingStrategies int   `json:"pending_strategies"`
	PendingResults    int   `json:"pending_results"`
	DroppedAlerts     int64 `json:"dropped_alerts"`
}

// GetStatus возвращает состояние всех стадий пайплайна
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	positions := h.watcher.Positions()

	monitored, paused := 0, 0
	riskLevels := make(map[string]int)
	for _, pos := range positions {
		switch pos.Status {
		case models.PositionStatusMonitored:
			monitored++
		case models.PositionStatusPaused:
			paused++
		}
		if pos.RiskLevel != "" {
			riskLevels[pos.RiskLevel]++
		}
	}

	status := PipelineStatus{
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Uptime:        utils.FormatDuration(time.Since(h.started)),
		Watcher: WatcherInfo{
			Positions:       len(positions),
			Monitored:       monitored,
			Paused:          paused,
			ActiveCooldowns: h.watcher.Cooldowns(),
		},
		Executor: ExecutorInfo{
			InFlight: h.executor.InFlight(),
		},
		Bus: BusInfo{
			PendingAlerts:     h.bus.PendingAlerts(),
			PendingStrategies: h.bus.PendingStrategies(),
			PendingResults:    h.bus.PendingResults(),
			DroppedAlerts:     h.bus.DroppedAlerts(),
		},
		RiskLevels: riskLevels,
	}

	respondWithJSON(w, http.StatusOK, status)
}
