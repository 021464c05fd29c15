package mocks

import (
	"context"

	"blackscar-server/internal/interfaces"
	"blackscar-server/internal/models"

	"github.com/stretchr/testify/mock"
)

// Mock GameEventPublisher
type GameEventPublisher struct {
	mock.Mock
}

func (m *GameEventPublisher) PublishGameEvent(ctx context.Context, event models.GameEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
func (m *GameEventPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Mock SessionNotifier
type SessionNotifier struct {
	mock.Mock
}

func (m *SessionNotifier) NotifyState(sessionID string, view models.SessionView) {
	m.Called(sessionID, view)
}
func (m *SessionNotifier) NotifyVoice(sessionID string, line string, audio []byte, format string) {
	m.Called(sessionID, line, audio, format)
}

var (
	_ interfaces.GameEventPublisher = (*GameEventPublisher)(nil)
	_ interfaces.SessionNotifier    = (*SessionNotifier)(nil)
)
