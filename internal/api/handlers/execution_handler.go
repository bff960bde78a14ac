package handlers

import (
	"errors"
	"net/http"

	"liquidityguard/internal/repository"
	"liquidityguard/internal/service"

	"github.com/gorilla/mux"
)

// ExecutionHandler отвечает за журнал маршрутов и результатов исполнения
//
// Endpoints:
// - GET /api/v1/routes - последние маршруты (?limit=50)
// - GET /api/v1/routes/{id} - маршрут с результатом исполнения
// - GET /api/v1/routes/active - маршруты в нетерминальных состояниях
// - GET /api/v1/executions/stats - сводка по исполнениям
// - GET /api/v1/positions/{id}/routes - маршруты позиции
type ExecutionHandler struct {
	executionService service.ExecutionServiceInterface
}

// NewExecutionHandler создает новый ExecutionHandler с внедрением зависимости
func NewExecutionHandler(executionService service.ExecutionServiceInterface) *ExecutionHandler {
	return &ExecutionHandler{executionService: executionService}
}

// GetRoutes возвращает последние маршруты
func (h *ExecutionHandler) GetRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := h.executionService.GetRecentRoutes(parseLimit(r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get routes: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"routes": routes,
		"total":  len(routes),
	})
}

// GetRoute возвращает маршрут с результатом исполнения
//
// У исполняющегося маршрута поле result отсутствует.
func (h *ExecutionHandler) GetRoute(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	details, err := h.executionService.GetRoute(id)
	if err != nil {
		if errors.Is(err, repository.ErrRouteNotFound) {
			respondWithError(w, http.StatusNotFound, "Route not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get route: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, details)
}

// GetActiveRoutes возвращает маршруты в состояниях PENDING и IN_PROGRESS
func (h *ExecutionHandler) GetActiveRoutes(w http.ResponseWriter, r *http.Request) {
	routes, err := h.executionService.GetActiveRoutes()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get active routes: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"routes": routes,
		"total":  len(routes),
	})
}

// GetExecutionStats возвращает сводку по исполнениям
func (h *ExecutionHandler) GetExecutionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.executionService.GetExecutionStats()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get execution stats: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// GetPositionRoutes возвращает маршруты позиции
func (h *ExecutionHandler) GetPositionRoutes(w http.ResponseWriter, r *http.Request) {
	positionID := mux.Vars(r)["id"]

	routes, err := h.executionService.GetRoutesByPosition(positionID, parseLimit(r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get routes: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"routes": routes,
		"total":  len(routes),
	})
}
