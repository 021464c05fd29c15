package handler

import (
	"encoding/json"
	"sync"

	"blackscar-server/internal/interfaces"
	"blackscar-server/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const sendBufferSize = 32

// Client одно WebSocket-соединение, подписанное на сессию.
type Client struct {
	SessionID string
	Conn      *websocket.Conn
	send      chan []byte
}

func newClient(sessionID string, conn *websocket.Conn) *Client {
	return &Client{SessionID: sessionID, Conn: conn, send: make(chan []byte, sendBufferSize)}
}

// ConnectionManager хранит подписчиков сессий. Одна сессия может быть
// открыта в нескольких вкладках.
type ConnectionManager struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	logger  *zap.Logger
}

var _ interfaces.SessionNotifier = (*ConnectionManager)(nil)

// NewConnectionManager создает менеджер соединений.
func NewConnectionManager(logger *zap.Logger) *ConnectionManager {
	return &ConnectionManager{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logger.Named("ConnectionManager"),
	}
}

// Register добавляет клиента.
func (m *ConnectionManager) Register(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.clients[client.SessionID]
	if !ok {
		set = make(map[*Client]struct{})
		m.clients[client.SessionID] = set
	}
	set[client] = struct{}{}
	m.logger.Debug("Client registered", zap.String("sessionID", client.SessionID), zap.Int("clients", len(set)))
}

// Unregister удаляет клиента и закрывает его очередь отправки.
// Повторный вызов безопасен.
func (m *ConnectionManager) Unregister(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.clients[client.SessionID]
	if !ok {
		return
	}
	if _, ok := set[client]; !ok {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(m.clients, client.SessionID)
	}
	m.logger.Debug("Client unregistered", zap.String("sessionID", client.SessionID))
}

// ClientCount возвращает число подписчиков сессии.
func (m *ConnectionManager) ClientCount(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients[sessionID])
}

func (m *ConnectionManager) NotifyState(sessionID string, view models.SessionView) {
	m.send(sessionID, models.ClientMessage{Type: models.ClientMessageState, State: &view})
}

func (m *ConnectionManager) NotifyVoice(sessionID string, line string, audio []byte, format string) {
	m.send(sessionID, models.ClientMessage{
		Type:        models.ClientMessageVoice,
		Line:        line,
		Audio:       audio,
		AudioFormat: format,
	})
}

// send ставит сообщение в очередь каждому подписчику. Переполненная очередь
// означает медленного клиента: сообщение для него отбрасывается.
func (m *ConnectionManager) send(sessionID string, msg models.ClientMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		m.logger.Error("Failed to marshal client message", zap.String("sessionID", sessionID), zap.Error(err))
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for client := range m.clients[sessionID] {
		select {
		case client.send <- payload:
		default:
			m.logger.Warn("Client send queue is full, message dropped",
				zap.String("sessionID", sessionID),
				zap.String("messageType", string(msg.Type)),
			)
		}
	}
}
