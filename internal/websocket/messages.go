package websocket

// Типы broadcast сообщений
const (
	MessageTypeAlert        = "alert"        // позиция в зоне риска
	MessageTypeStrategy     = "strategy"     // принята стратегия ребалансировки
	MessageTypeExecution    = "execution"    // изменение статуса маршрута
	MessageTypeNotification = "notification" // новое уведомление
)

// Типизированные сообщения - без map[string]interface{},
// сериализация известных типов обходится без рефлексии.

// AlertMessage - сообщение об алерте
type AlertMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// StrategyMessage - сообщение о принятой стратегии
type StrategyMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ExecutionMessage - сообщение об изменении статуса маршрута
type ExecutionMessage struct {
	Type    string      `json:"type"`
	RouteID string      `json:"route_id"`
	Status  string      `json:"status"`
	Result  interface{} `json:"result,omitempty"`
}

// NotificationMessage - сообщение с уведомлением
type NotificationMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}
