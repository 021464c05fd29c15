package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"blackscar-server/internal/interfaces"
	"blackscar-server/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sessionKeyPrefix = "game_session:"

// Compile-time check to ensure redisSessionRepository implements SessionRepository
var _ interfaces.SessionRepository = (*redisSessionRepository)(nil)

type redisSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisSessionRepository creates a Redis-backed SessionRepository.
// Every save refreshes the TTL, so only idle sessions expire.
func NewRedisSessionRepository(client *redis.Client, ttl time.Duration, logger *zap.Logger) interfaces.SessionRepository {
	return &redisSessionRepository{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisSessionRepo"),
	}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func (r *redisSessionRepository) Save(ctx context.Context, sessionID string, state *models.GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", sessionID, err)
	}
	if err := r.client.Set(ctx, sessionKey(sessionID), data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save session in redis", zap.String("sessionID", sessionID), zap.Error(err))
		return fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	r.logger.Debug("Session saved", zap.String("sessionID", sessionID), zap.Duration("ttl", r.ttl))
	return nil
}

func (r *redisSessionRepository) Get(ctx context.Context, sessionID string) (*models.GameState, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrSessionNotFound
		}
		r.logger.Error("Failed to get session from redis", zap.String("sessionID", sessionID), zap.Error(err))
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}

	var state models.GameState
	if err := json.Unmarshal(data, &state); err != nil {
		r.logger.Error("Corrupted session snapshot", zap.String("sessionID", sessionID), zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}
	if state.History == nil {
		state.History = []string{}
	}
	return &state, nil
}

func (r *redisSessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}
