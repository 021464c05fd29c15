package models

import "time"

// GameEventType тип события игры.
type GameEventType string

const (
	EventSessionCreated   GameEventType = "session_created"
	EventGameStarted      GameEventType = "game_started"
	EventActionCommitted  GameEventType = "action_committed"
	EventTransitionFailed GameEventType = "transition_failed"
	EventGameOver         GameEventType = "game_over"
)

// GameEvent событие, публикуемое в обменник game_events.
type GameEvent struct {
	Type      GameEventType `json:"type"`
	SessionID string        `json:"session_id"`
	Status    GameStatus    `json:"status"`
	Turn      int           `json:"turn"`
	Power     float64       `json:"power"`
	Morale    float64       `json:"morale"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// ClientMessageType тип сообщения, отправляемого клиенту по WebSocket.
type ClientMessageType string

const (
	ClientMessageState ClientMessageType = "state"
	ClientMessageVoice ClientMessageType = "voice"
)

// ClientMessage сообщение клиенту по WebSocket.
type ClientMessage struct {
	Type  ClientMessageType `json:"type"`
	State *SessionView      `json:"state,omitempty"`
	// Аудио реплики агента, base64 (кодируется encoding/json из []byte)
	Audio       []byte `json:"audio,omitempty"`
	AudioFormat string `json:"audioFormat,omitempty"`
	Line        string `json:"line,omitempty"`
}
