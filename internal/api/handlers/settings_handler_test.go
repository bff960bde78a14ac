package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"liquidityguard/internal/models"
	"liquidityguard/internal/service"
)

func TestGetSettingsHandler(t *testing.T) {
	h := NewSettingsHandler(newMockSettingsService())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)
	rec := httptest.NewRecorder()

	h.GetSettings(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, ожидалось 200", rec.Code)
	}

	var settings models.Settings
	if err := json.Unmarshal(rec.Body.Bytes(), &settings); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if !settings.AutoExecute {
		t.Error("AutoExecute должен быть включен по умолчанию")
	}
}

func TestUpdateSettingsHandler(t *testing.T) {
	svc := newMockSettingsService()
	h := NewSettingsHandler(svc)

	body := []byte(`{"auto_execute": false}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/settings", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.UpdateSettings(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, ожидалось 200: %s", rec.Code, rec.Body.String())
	}
	if svc.settings.AutoExecute {
		t.Error("AutoExecute не обновлен")
	}
}

func TestUpdateSettingsHandlerInvalidBody(t *testing.T) {
	h := NewSettingsHandler(newMockSettingsService())

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/settings", bytes.NewReader([]byte("{oops")))
	rec := httptest.NewRecorder()

	h.UpdateSettings(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, ожидалось 400", rec.Code)
	}
}

func TestUpdateSettingsHandlerEncryptionKeyMissing(t *testing.T) {
	svc := newMockSettingsService()
	svc.updateErr = service.ErrEncryptionKeyMissing
	h := NewSettingsHandler(svc)

	body := []byte(`{"etherscan_api_key": "secret"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/settings", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.UpdateSettings(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, ожидалось 503", rec.Code)
	}
}

func TestResetSettingsHandler(t *testing.T) {
	svc := newMockSettingsService()
	svc.settings.AutoExecute = false
	h := NewSettingsHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/settings/reset", nil)
	rec := httptest.NewRecorder()

	h.ResetSettings(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, ожидалось 200", rec.Code)
	}
	if !svc.settings.AutoExecute {
		t.Error("настройки не сброшены")
	}
}
