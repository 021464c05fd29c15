package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// ServeWS подписывает соединение на обновления сессии из токена (?token=).
// Клиент получает сообщения state и voice; входящие сообщения игнорируются.
func (h *GameHandler) ServeWS(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		h.logger.Warn("Missing 'token' query parameter")
		handleServiceError(c, errMissingToken, nil)
		return
	}
	sessionID, err := h.tokens.Parse(tokenString)
	if err != nil {
		h.logger.Warn("Invalid websocket token", zap.Error(err))
		handleServiceError(c, err, nil)
		return
	}
	view, err := h.service.View(c.Request.Context(), sessionID)
	if err != nil {
		handleServiceError(c, err, nil)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrader уже ответил клиенту
		h.logger.Error("Failed to upgrade connection", zap.String("sessionID", sessionID), zap.Error(err))
		return
	}

	log := h.logger.With(zap.String("sessionID", sessionID))
	log.Info("WebSocket connection established")

	client := newClient(sessionID, conn)
	h.manager.Register(client)
	// Текущее состояние сразу после подключения
	h.manager.NotifyState(sessionID, view)

	go client.writePump(log)
	go client.readPump(h.manager, log)
}

func (h *GameHandler) newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowAll {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		},
	}
}

func (c *Client) readPump(manager *ConnectionManager, log *zap.Logger) {
	defer func() {
		manager.Unregister(c)
		_ = c.Conn.Close()
		log.Debug("readPump finished")
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("WebSocket read error", zap.Error(err))
			} else {
				log.Info("WebSocket connection closed")
			}
			return
		}
		log.Debug("Received unexpected message from client (ignored)")
	}
}

func (c *Client) writePump(log *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
		log.Debug("writePump finished")
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Одно сообщение на кадр: клиент разбирает каждый кадр как JSON
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error("Failed to write message", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug("Ping failed", zap.Error(err))
				return
			}
		}
	}
}
