package mocks

import (
	"context"

	"blackscar-server/internal/interfaces"
	"blackscar-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// Mock SessionRepository
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Save(ctx context.Context, sessionID string, state *models.GameState) error {
	args := m.Called(ctx, sessionID, state)
	return args.Error(0)
}
func (m *SessionRepository) Get(ctx context.Context, sessionID string) (*models.GameState, error) {
	args := m.Called(ctx, sessionID)
	state, _ := args.Get(0).(*models.GameState)
	return state, args.Error(1)
}
func (m *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// Mock TurnRepository
type TurnRepository struct {
	mock.Mock
}

func (m *TurnRepository) Append(ctx context.Context, turn *models.GameTurn) error {
	args := m.Called(ctx, turn)
	return args.Error(0)
}
func (m *TurnRepository) ListBySession(ctx context.Context, sessionID string) ([]models.GameTurn, error) {
	args := m.Called(ctx, sessionID)
	turns, _ := args.Get(0).([]models.GameTurn)
	return turns, args.Error(1)
}

var (
	_ interfaces.SessionRepository = (*SessionRepository)(nil)
	_ interfaces.TurnRepository    = (*TurnRepository)(nil)
)
