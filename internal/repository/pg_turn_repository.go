package repository

import (
	"context"
	"fmt"

	"blackscar-server/internal/interfaces"
	"blackscar-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"go.uber.org/zap"
)

const (
	insertTurnQuery = `
        INSERT INTO game_turns (
            id, session_id, turn_number, kind, action, description, agent_prompt,
            image_url, situation_context, power, morale, status, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `
	listTurnsBySessionQuery = `
        SELECT id, session_id, turn_number, kind, action, description, agent_prompt,
               image_url, situation_context, power, morale, status, created_at
        FROM game_turns
        WHERE session_id = $1
        ORDER BY turn_number
    `
)

var _ interfaces.TurnRepository = (*pgTurnRepository)(nil)

type pgTurnRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgTurnRepository создает журнал ходов в PostgreSQL.
func NewPgTurnRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.TurnRepository {
	return &pgTurnRepository{
		db:     db,
		logger: logger.Named("PgTurnRepo"),
	}
}

// Append добавляет зафиксированный ход.
func (r *pgTurnRepository) Append(ctx context.Context, turn *models.GameTurn) error {
	log := r.logger.With(zap.String("sessionID", turn.SessionID), zap.Int("turn", turn.TurnNumber))

	_, err := r.db.Exec(ctx, insertTurnQuery,
		turn.ID, turn.SessionID, turn.TurnNumber, turn.Kind, turn.Action, turn.Description, turn.AgentPrompt,
		turn.ImageURL, turn.SituationContext, turn.Power, turn.Morale, turn.Status, turn.CreatedAt,
	)
	if err != nil {
		log.Error("Failed to insert game turn", zap.Error(err))
		return fmt.Errorf("failed to insert game turn: %w", err)
	}
	log.Debug("Game turn inserted")
	return nil
}

// ListBySession возвращает ходы сессии по порядку. Пустой журнал не ошибка.
func (r *pgTurnRepository) ListBySession(ctx context.Context, sessionID string) ([]models.GameTurn, error) {
	turns := make([]models.GameTurn, 0)
	if err := pgxscan.Select(ctx, r.db, &turns, listTurnsBySessionQuery, sessionID); err != nil {
		r.logger.Error("Failed to list game turns", zap.String("sessionID", sessionID), zap.Error(err))
		return nil, fmt.Errorf("failed to list game turns for session %s: %w", sessionID, err)
	}
	return turns, nil
}
