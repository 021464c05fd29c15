package interfaces

import (
	"context"

	"blackscar-server/internal/models"
)

// SessionRepository хранит снимки состояния сессий.
type SessionRepository interface {
	// Save перезаписывает снимок сессии целиком.
	Save(ctx context.Context, sessionID string, state *models.GameState) error
	// Get возвращает models.ErrSessionNotFound, если сессии нет.
	Get(ctx context.Context, sessionID string) (*models.GameState, error)
	Delete(ctx context.Context, sessionID string) error
}

// TurnRepository журнал зафиксированных ходов.
type TurnRepository interface {
	Append(ctx context.Context, turn *models.GameTurn) error
	ListBySession(ctx context.Context, sessionID string) ([]models.GameTurn, error)
}
