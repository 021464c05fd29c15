package interfaces

import (
	"context"

	"blackscar-server/internal/models"
)

// GameEventPublisher публикует события игры во внешнюю шину.
type GameEventPublisher interface {
	PublishGameEvent(ctx context.Context, event models.GameEvent) error
	Close() error
}

// SessionNotifier доставляет обновления подписчикам сессии (WebSocket).
type SessionNotifier interface {
	NotifyState(sessionID string, view models.SessionView)
	NotifyVoice(sessionID string, line string, audio []byte, format string)
}
