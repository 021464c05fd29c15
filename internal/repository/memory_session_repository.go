package repository

import (
	"context"
	"sync"

	"blackscar-server/internal/interfaces"
	"blackscar-server/internal/models"

	"go.uber.org/zap"
)

var _ interfaces.SessionRepository = (*memorySessionRepository)(nil)

// memorySessionRepository хранит сессии в памяти процесса (REDIS_ADDR не задан).
type memorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*models.GameState
	logger   *zap.Logger
}

// NewMemorySessionRepository создает репозиторий сессий в памяти.
func NewMemorySessionRepository(logger *zap.Logger) interfaces.SessionRepository {
	return &memorySessionRepository{
		sessions: make(map[string]*models.GameState),
		logger:   logger.Named("MemorySessionRepo"),
	}
}

func (r *memorySessionRepository) Save(_ context.Context, sessionID string, state *models.GameState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = state.Clone()
	return nil
}

func (r *memorySessionRepository) Get(_ context.Context, sessionID string) (*models.GameState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.sessions[sessionID]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return state.Clone(), nil
}

func (r *memorySessionRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}
