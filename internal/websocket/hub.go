package websocket

import (
	"bytes"
	"sync"

	"liquidityguard/internal/models"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Пул JSON буферов убирает аллокации при каждом Broadcast
var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// Hub управляет всеми активными WebSocket соединениями
//
// Центральный менеджер для broadcast событий пайплайна всем
// подключенным UI клиентам: алерты, стратегии, статусы маршрутов,
// уведомления. Медленные клиенты отключаются, чтобы не блокировать
// рассылку остальным.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *zap.Logger

	mu sync.RWMutex
}

// NewHub создает новый Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run запускает главный цикл Hub
// Запускается в отдельной горутине: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("websocket client connected", zap.Int("total", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("websocket client disconnected", zap.Int("total", total))

		case message := <-h.broadcast:
			// Копируем список клиентов под коротким RLock,
			// отправляем без блокировки
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var toRemove []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					// Клиент не успевает читать - отключаем
					toRemove = append(toRemove, client)
				}
			}

			if len(toRemove) > 0 {
				h.mu.Lock()
				for _, client := range toRemove {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				total := len(h.clients)
				h.mu.Unlock()
				h.logger.Warn("removed slow websocket clients",
					zap.Int("removed", len(toRemove)),
					zap.Int("total", total))
			}
		}
	}
}

// Stop останавливает цикл Hub и закрывает все соединения
func (h *Hub) Stop() {
	close(h.done)
}

// Broadcast сериализует сообщение и рассылает его всем клиентам
func (h *Hub) Broadcast(message interface{}) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	if err := json.NewEncoder(buf).Encode(message); err != nil {
		h.logger.Error("failed to marshal broadcast message", zap.Error(err))
		jsonBufferPool.Put(buf)
		return
	}

	// Encode добавляет trailing newline
	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}

	msgCopy := make([]byte, len(data))
	copy(msgCopy, data)
	jsonBufferPool.Put(buf)

	select {
	case h.broadcast <- msgCopy:
	default:
		h.logger.Warn("broadcast buffer full, message dropped")
	}
}

// BroadcastAlert рассылает алерт наблюдателя
func (h *Hub) BroadcastAlert(alert *models.Alert) {
	h.Broadcast(&AlertMessage{
		Type: MessageTypeAlert,
		Data: alert,
	})
}

// BroadcastStrategy рассылает принятую стратегию
func (h *Hub) BroadcastStrategy(strategy *models.Strategy) {
	h.Broadcast(&StrategyMessage{
		Type: MessageTypeStrategy,
		Data: strategy,
	})
}

// BroadcastExecution рассылает изменение статуса маршрута
// result передается только для терминальных состояний
func (h *Hub) BroadcastExecution(routeID string, status string, result *models.ExecutionResult) {
	msg := &ExecutionMessage{
		Type:    MessageTypeExecution,
		RouteID: routeID,
		Status:  status,
	}
	if result != nil {
		msg.Result = result
	}
	h.Broadcast(msg)
}

// BroadcastNotification рассылает новое уведомление
func (h *Hub) BroadcastNotification(n *models.Notification) {
	h.Broadcast(&NotificationMessage{
		Type: MessageTypeNotification,
		Data: n,
	})
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
