package handlers

import (
	"fmt"
	"net/http"
	"time"

	"liquidityguard/internal/models"
	"liquidityguard/internal/service"

	"go.uber.org/zap"
)

// Границы параметров demo-триггера
const (
	maxTriggerDuration = 300 * time.Second
	defaultShockVol    = 60.0 // волатильность во время шока, % в день
)

// PriceShocker накладывает синтетический шок цен
// Реализуется feeds.PriceSource
type PriceShocker interface {
	ApplyShock(drop, volatility float64, duration time.Duration)
	ClearShock()
}

// TriggerHandler отвечает за demo-trigger: синтетический обвал цен
//
// Endpoints:
// - POST /api/v1/demo/trigger - применить шок цен
// - DELETE /api/v1/demo/trigger - снять шок досрочно
//
// Endpoint защищен заголовком X-Trigger-Secret (middleware.TriggerAuth).
// После наложения шока все отслеживаемые позиции принудительно
// переоцениваются, минуя cooldown-окна.
type TriggerHandler struct {
	shocker             PriceShocker
	monitor             service.PositionMonitor
	notificationService service.NotificationServiceInterface
	logger              *zap.Logger
}

// NewTriggerHandler создает новый TriggerHandler с внедрением зависимостей
func NewTriggerHandler(
	shocker PriceShocker,
	monitor service.PositionMonitor,
	notificationService service.NotificationServiceInterface,
	logger *zap.Logger,
) *TriggerHandler {
	return &TriggerHandler{
		shocker:             shocker,
		monitor:             monitor,
		notificationService: notificationService,
		logger:              logger,
	}
}

// TriggerRequest - запрос применения ценового шока
type TriggerRequest struct {
	ETHDrop    float64 `json:"eth_drop"`             // доля падения цены ETH, (0, 1]
	Duration   int     `json:"duration"`             // секунды, [1, 300]
	Volatility float64 `json:"volatility,omitempty"` // опционально, % в день
}

// TriggerResponse - результат применения шока
type TriggerResponse struct {
	Message   string `json:"message"`
	Evaluated int    `json:"evaluated"`  // переоценено позиций
	Failed    int    `json:"failed"`     // не удалось переоценить
	ExpiresAt string `json:"expires_at"` // момент снятия шока
}

// ApplyTrigger накладывает синтетический шок цен
//
// POST /api/v1/demo/trigger
//
// HTTP коды:
// - 200 OK: шок применен, позиции переоценены
// - 400 Bad Request: параметры вне допустимых границ
func (h *TriggerHandler) ApplyTrigger(w http.ResponseWriter, r *http.Request) {
	var req TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.ETHDrop <= 0 || req.ETHDrop > 1 {
		respondWithError(w, http.StatusBadRequest, "eth_drop must be in (0, 1]")
		return
	}
	duration := time.Duration(req.Duration) * time.Second
	if duration < time.Second || duration > maxTriggerDuration {
		respondWithError(w, http.StatusBadRequest, "duration must be between 1 and 300 seconds")
		return
	}
	volatility := req.Volatility
	if volatility <= 0 {
		volatility = defaultShockVol
	}

	h.shocker.ApplyShock(req.ETHDrop, volatility, duration)
	expiresAt := time.Now().Add(duration)

	h.logger.Warn("demo trigger applied",
		zap.Float64("eth_drop", req.ETHDrop),
		zap.Float64("volatility", volatility),
		zap.Duration("duration", duration))

	// Принудительная переоценка всех позиций под новым рынком
	evaluated, failed := 0, 0
	for _, pos := range h.monitor.Positions() {
		if pos.Status != models.PositionStatusMonitored {
			continue
		}
		if _, err := h.monitor.ForceEvaluate(r.Context(), pos.ID); err != nil {
			failed++
			h.logger.Error("trigger evaluation failed",
				zap.String("position_id", pos.ID),
				zap.Error(err))
			continue
		}
		evaluated++
	}

	if h.notificationService != nil {
		h.notificationService.CreateNotification(&models.Notification{
			Type:     models.NotificationTypeTrigger,
			Severity: models.SeverityWarn,
			Message: fmt.Sprintf("Synthetic ETH drop %.0f%% applied for %d seconds, %d positions re-evaluated",
				req.ETHDrop*100, req.Duration, evaluated),
			Meta: map[string]interface{}{
				"eth_drop":   req.ETHDrop,
				"duration":   req.Duration,
				"volatility": volatility,
			},
		})
	}

	respondWithJSON(w, http.StatusOK, TriggerResponse{
		Message:   "Price shock applied",
		Evaluated: evaluated,
		Failed:    failed,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	})
}

// ClearTrigger снимает шок цен досрочно
//
// DELETE /api/v1/demo/trigger
func (h *TriggerHandler) ClearTrigger(w http.ResponseWriter, r *http.Request) {
	h.shocker.ClearShock()
	h.logger.Info("demo trigger cleared")

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Price shock cleared"})
}
