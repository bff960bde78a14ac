package handlers

import (
	"errors"
	"net/http"

	"liquidityguard/internal/service"
)

// SettingsHandler отвечает за глобальные настройки пайплайна
//
// Endpoints:
// - GET /api/v1/settings - получить настройки (ключи API скрыты)
// - PATCH /api/v1/settings - частичное обновление
// - POST /api/v1/settings/reset - сброс к значениям по умолчанию
type SettingsHandler struct {
	settingsService service.SettingsServiceInterface
}

// NewSettingsHandler создает новый SettingsHandler с внедрением зависимости
func NewSettingsHandler(settingsService service.SettingsServiceInterface) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// GetSettings возвращает текущие настройки
// API ключи не сериализуются в ответ (json:"-" на модели)
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.GetSettings()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get settings: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, settings)
}

// UpdateSettings применяет частичное обновление настроек
//
// PATCH /api/v1/settings
//
// nil-поля запроса не изменяются. Ключи API принимаются открытым
// текстом и шифруются перед записью.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	settings, err := h.settingsService.UpdateSettings(&req)
	if err != nil {
		if errors.Is(err, service.ErrEncryptionKeyMissing) {
			respondWithError(w, http.StatusServiceUnavailable, "Encryption key is not configured")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to update settings: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, settings)
}

// ResetSettings сбрасывает настройки к значениям по умолчанию
func (h *SettingsHandler) ResetSettings(w http.ResponseWriter, r *http.Request) {
	if err := h.settingsService.ResetToDefaults(); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to reset settings: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Settings reset to defaults"})
}
