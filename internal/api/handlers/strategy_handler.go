package handlers

import (
	"errors"
	"net/http"

	"liquidityguard/internal/repository"
	"liquidityguard/internal/service"

	"github.com/gorilla/mux"
)

// StrategyHandler отвечает за журнал принятых стратегий
//
// Endpoints:
// - GET /api/v1/strategies - последние стратегии (?limit=50)
// - GET /api/v1/strategies/{id} - стратегия по ID
// - GET /api/v1/positions/{id}/strategies - стратегии позиции
type StrategyHandler struct {
	strategyService service.StrategyServiceInterface
}

// NewStrategyHandler создает новый StrategyHandler с внедрением зависимости
func NewStrategyHandler(strategyService service.StrategyServiceInterface) *StrategyHandler {
	return &StrategyHandler{strategyService: strategyService}
}

// GetStrategies возвращает последние стратегии
func (h *StrategyHandler) GetStrategies(w http.ResponseWriter, r *http.Request) {
	strategies, err := h.strategyService.GetRecentStrategies(parseLimit(r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get strategies: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"strategies": strategies,
		"total":      len(strategies),
	})
}

// GetStrategy возвращает стратегию по ID
func (h *StrategyHandler) GetStrategy(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	strategy, err := h.strategyService.GetStrategy(id)
	if err != nil {
		if errors.Is(err, repository.ErrStrategyNotFound) {
			respondWithError(w, http.StatusNotFound, "Strategy not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to get strategy: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, strategy)
}

// GetPositionStrategies возвращает стратегии позиции
func (h *StrategyHandler) GetPositionStrategies(w http.ResponseWriter, r *http.Request) {
	positionID := mux.Vars(r)["id"]

	strategies, err := h.strategyService.GetStrategiesByPosition(positionID, parseLimit(r))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get strategies: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"strategies": strategies,
		"total":      len(strategies),
	})
}
