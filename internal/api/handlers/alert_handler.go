package handlers

import (
	"errors"
	"net/http"

	"liquidityguard/internal/repository"
	"liquidityguard/internal/service"
	"liquidityguard/pkg/utils"

	"github.com/gorilla/mux"
)

// AlertHandler отвечает за журнал алертов
//
// Endpoints:
// - GET /api/v1/alerts - последние алерты (?limit=50)
// - GET /api/v1/alerts/{id} - алерт по ID
// - GET /api/v1/positions/{id}/alerts - алерты позиции
type AlertHandler struct {
	alertService service.AlertServiceInterface
}

// NewAlertHandler создает новый AlertHandler с внедрением зависимости
func NewAlertHandler(alertService service.AlertServiceInterface) *AlertHandler {
	return &AlertHandler{alertService: alertService}
}

// GetAlerts возвращает последние алерты
func (h *AlertHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alertService.GetRecentAlerts(parseLimit(r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get alerts: "+err.Error())
		return
	}

	// Счетчик за последние сутки для заголовка дашборда
	last24h, err := h.alertService.CountAlertsSince(utils.LastNHours(24).Start)
	if err != nil {
		last24h = 0
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"alerts":   alerts,
		"total":    len(alerts),
		"last_24h": last24h,
	})
}

// GetAlert возвращает алерт по ID
func (h *AlertHandler) GetAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	alert, err := h.alertService.GetAlert(id)
	if err != nil {
		if errors.Is(err, repository.ErrAlertNotFound) {
			respondWithError(w, http.StatusNotFound, "Alert not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get alert: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, alert)
}

// GetPositionAlerts возвращает алерты позиции
func (h *AlertHandler) GetPositionAlerts(w http.ResponseWriter, r *http.Request) {
	positionID := mux.Vars(r)["id"]

	alerts, err := h.alertService.GetAlertsByPosition(positionID, parseLimit(r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get alerts: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"total":  len(alerts),
	})
}
