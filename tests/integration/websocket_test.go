//go:build integration

// WebSocket интеграционные тесты: подключение клиентов к /ws/stream
// и доставка broadcast-событий пайплайна.
package integration

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"liquidityguard/internal/models"

	gws "github.com/gorilla/websocket"
)

// dialWS подключает тестового WebSocket клиента к серверу
func dialWS(t *testing.T, ts *TestServer) *gws.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/ws/stream"
	conn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	return conn
}

// readMessage читает одно сообщение с таймаутом
func readMessage(t *testing.T, conn *gws.Conn, timeout time.Duration) map[string]interface{} {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(timeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}

	var msg map[string]interface{}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("message is not valid JSON: %v", err)
	}
	return msg
}

func TestWebSocketConnect(t *testing.T) {
	ts := SetupTestServer(t)
	if ts == nil {
		return
	}
	defer ts.Cleanup()

	conn := dialWS(t, ts)
	defer conn.Close()

	if !waitFor(t, 2*time.Second, func() bool { return ts.Hub.ClientCount() == 1 }) {
		t.Errorf("ClientCount = %d, want 1", ts.Hub.ClientCount())
	}
}

func TestWebSocketBroadcastAlert(t *testing.T) {
	ts := SetupTestServer(t)
	if ts == nil {
		return
	}
	defer ts.Cleanup()

	conn := dialWS(t, ts)
	defer conn.Close()

	if !waitFor(t, 2*time.Second, func() bool { return ts.Hub.ClientCount() == 1 }) {
		t.Fatal("клиент не зарегистрировался")
	}

	ts.Hub.BroadcastAlert(&models.Alert{
		ID:           "alert-ws-1",
		PositionID:   "pos-ws-1",
		UserAddress:  "0xabc",
		RiskLevel:    models.RiskLevelCritical,
		HealthFactor: 1.1,
		Urgency:      8,
		Timestamp:    time.Now(),
	})

	msg := readMessage(t, conn, 3*time.Second)
	if msg["type"] != "alert" {
		t.Errorf("type = %v, want alert", msg["type"])
	}

	alert, ok := msg["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("payload отсутствует: %v", msg)
	}
	if alert["id"] != "alert-ws-1" {
		t.Errorf("alert.id = %v, want alert-ws-1", alert["id"])
	}
}

func TestWebSocketExecutionProgress(t *testing.T) {
	ts := SetupTestServer(t)
	if ts == nil {
		return
	}
	defer ts.Cleanup()

	conn := dialWS(t, ts)
	defer conn.Close()

	if !waitFor(t, 2*time.Second, func() bool { return ts.Hub.ClientCount() == 1 }) {
		t.Fatal("клиент не зарегистрировался")
	}

	// Промежуточный статус без результата
	ts.Hub.BroadcastExecution("route-ws-1", models.ExecutionInProgress, nil)

	msg := readMessage(t, conn, 3*time.Second)
	if msg["type"] != "execution" {
		t.Errorf("type = %v, want execution", msg["type"])
	}
	if msg["route_id"] != "route-ws-1" {
		t.Errorf("route_id = %v", msg["route_id"])
	}
	if msg["status"] != models.ExecutionInProgress {
		t.Errorf("status = %v, want IN_PROGRESS", msg["status"])
	}
	if _, hasResult := msg["result"]; hasResult {
		t.Error("промежуточный статус не должен содержать result")
	}
}

func TestWebSocketNotificationBroadcast(t *testing.T) {
	ts := SetupTestServer(t)
	if ts == nil {
		return
	}
	defer ts.Cleanup()

	conn := dialWS(t, ts)
	defer conn.Close()

	if !waitFor(t, 2*time.Second, func() bool { return ts.Hub.ClientCount() == 1 }) {
		t.Fatal("клиент не зарегистрировался")
	}

	// Создание уведомления через сервис рассылает его подключенным клиентам
	if err := ts.Services.Notification.CreateNotification(&models.Notification{
		Type:     models.NotificationTypeTrigger,
		Severity: models.SeverityWarn,
		Message:  "shock applied",
	}); err != nil {
		t.Fatalf("create notification: %v", err)
	}

	msg := readMessage(t, conn, 3*time.Second)
	if msg["type"] != "notification" {
		t.Errorf("type = %v, want notification", msg["type"])
	}
}

func TestWebSocketMultipleClients(t *testing.T) {
	ts := SetupTestServer(t)
	if ts == nil {
		return
	}
	defer ts.Cleanup()

	conn1 := dialWS(t, ts)
	defer conn1.Close()
	conn2 := dialWS(t, ts)
	defer conn2.Close()

	if !waitFor(t, 2*time.Second, func() bool { return ts.Hub.ClientCount() == 2 }) {
		t.Fatalf("ClientCount = %d, want 2", ts.Hub.ClientCount())
	}

	ts.Hub.BroadcastStrategy(&models.Strategy{
		ID:         "strat-ws-1",
		PositionID: "pos-ws-1",
		Method:     models.MethodDirectSwap,
		Timestamp:  time.Now(),
	})

	// Оба клиента получают одно и то же сообщение
	for i, conn := range []*gws.Conn{conn1, conn2} {
		msg := readMessage(t, conn, 3*time.Second)
		if msg["type"] != "strategy" {
			t.Errorf("клиент %d: type = %v, want strategy", i+1, msg["type"])
		}
	}
}

func TestWebSocketClientDisconnect(t *testing.T) {
	ts := SetupTestServer(t)
	if ts == nil {
		return
	}
	defer ts.Cleanup()

	conn := dialWS(t, ts)

	if !waitFor(t, 2*time.Second, func() bool { return ts.Hub.ClientCount() == 1 }) {
		t.Fatal("клиент не зарегистрировался")
	}

	conn.Close()

	if !waitFor(t, 3*time.Second, func() bool { return ts.Hub.ClientCount() == 0 }) {
		t.Errorf("после отключения ClientCount = %d, want 0", ts.Hub.ClientCount())
	}
}
