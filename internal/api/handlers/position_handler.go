package handlers

import (
	"errors"
	"net/http"

	"liquidityguard/internal/repository"
	"liquidityguard/internal/service"

	"github.com/gorilla/mux"
)

// PositionHandler отвечает за управление отслеживаемыми позициями
//
// Endpoints:
// - GET /api/v1/positions - список позиций (фильтр ?user=0x...)
// - POST /api/v1/positions - поставить позицию под мониторинг
// - GET /api/v1/positions/{id} - получить позицию
// - DELETE /api/v1/positions/{id} - снять с мониторинга
// - POST /api/v1/positions/{id}/pause - приостановить мониторинг
// - POST /api/v1/positions/{id}/resume - возобновить мониторинг
// - POST /api/v1/positions/{id}/evaluate - принудительная переоценка
// - GET /api/v1/positions/risk-summary - распределение по уровням риска
type PositionHandler struct {
	positionService service.PositionServiceInterface
}

// NewPositionHandler создает новый PositionHandler с внедрением зависимости
func NewPositionHandler(positionService service.PositionServiceInterface) *PositionHandler {
	return &PositionHandler{positionService: positionService}
}

// GetPositions возвращает список позиций
//
// GET /api/v1/positions?user=0xabc - позиции пользователя
// GET /api/v1/positions - все позиции
func (h *PositionHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.positionService.GetPositions(r.URL.Query().Get("user"))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get positions: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"positions": positions,
		"total":     len(positions),
	})
}

// CreatePosition ставит новую позицию под мониторинг
//
// POST /api/v1/positions
//
// HTTP коды:
// - 201 Created: позиция создана и зарегистрирована в наблюдателе
// - 400 Bad Request: невалидные параметры
// - 409 Conflict: позиция уже существует
func (h *PositionHandler) CreatePosition(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	pos, err := h.positionService.CreatePosition(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPosition):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrPositionExists):
			respondWithError(w, http.StatusConflict, "Position already exists")
		default:
			respondWithError(w, http.StatusInternalServerError, "Failed to create position: "+err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, pos)
}

// GetPosition возвращает позицию по ID
func (h *PositionHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	pos, err := h.positionService.GetPosition(id)
	if err != nil {
		if errors.Is(err, repository.ErrPositionNotFound) {
			respondWithError(w, http.StatusNotFound, "Position not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get position: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, pos)
}

// DeletePosition снимает позицию с мониторинга и удаляет ее
func (h *PositionHandler) DeletePosition(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.positionService.DeletePosition(id); err != nil {
		if errors.Is(err, repository.ErrPositionNotFound) {
			respondWithError(w, http.StatusNotFound, "Position not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to delete position: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Position deleted"})
}

// PausePosition приостанавливает мониторинг позиции
func (h *PositionHandler) PausePosition(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.positionService.PausePosition(id); err != nil {
		if errors.Is(err, repository.ErrPositionNotFound) {
			respondWithError(w, http.StatusNotFound, "Position not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to pause position: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Monitoring paused"})
}

// ResumePosition возобновляет мониторинг позиции
func (h *PositionHandler) ResumePosition(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.positionService.ResumePosition(id); err != nil {
		if errors.Is(err, repository.ErrPositionNotFound) {
			respondWithError(w, http.StatusNotFound, "Position not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to resume position: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Monitoring resumed"})
}

// EvaluatePosition принудительно переоценивает позицию, минуя cooldown
//
// POST /api/v1/positions/{id}/evaluate
//
// Возвращает свежую оценку риска. Алерт, если позиция в зоне риска,
// эмитится немедленно независимо от cooldown-окна.
func (h *PositionHandler) EvaluatePosition(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	assessment, err := h.positionService.ForceEvaluate(r.Context(), id)
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, "Failed to evaluate position: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, assessment)
}

// GetRiskSummary возвращает распределение позиций по уровням риска
func (h *PositionHandler) GetRiskSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.positionService.GetRiskSummary()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get risk summary: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}
