package service

import (
	"context"
	"testing"
	"time"

	"blackscar-server/internal/config"
	"blackscar-server/internal/generation"
	"blackscar-server/internal/models"
	"blackscar-server/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func localModelConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AIClientType:       config.AIClientTypeOllama,
		AIBaseURL:          "http://127.0.0.1:11434",
		AIModel:            "llama3",
		AITimeout:          time.Second,
		ImageBaseURL:       "http://127.0.0.1:1/v1",
		ImageModel:         "dall-e-3",
		ImageTimeout:       time.Second,
		ImageSavePath:      t.TempDir(),
		ImagePublicBaseURL: "/images",
	}
}

func newOrchestratorFromConfig(t *testing.T, cfg *config.Config, imageFatal bool) *SceneOrchestrator {
	t.Helper()
	client, err := generation.NewTextClient(cfg, zap.NewNop())
	require.NoError(t, err)
	images, err := generation.NewImageService(cfg, zap.NewNop())
	require.NoError(t, err)
	scenes := generation.NewSceneService(client, "narrate", zap.NewNop())
	return NewSceneOrchestrator(scenes, images, nil, OrchestratorConfig{ImageFailureFatal: imageFatal}, zap.NewNop())
}

func TestSceneOrchestrator_LocalTextModelWithoutImageKey(t *testing.T) {
	cfg := localModelConfig(t)

	orch := newOrchestratorFromConfig(t, cfg, true)
	assert.False(t, orch.IsConfigured(), "a fatal image step without a key cannot succeed")

	svc := NewGameService(GameServiceDeps{Orchestrator: orch, Sessions: repository.NewMemorySessionRepository(zap.NewNop())}, zap.NewNop())
	assert.False(t, svc.IsConfigured())

	view, err := svc.CreateSession(context.Background())
	require.NoError(t, err)
	_, err = svc.Start(context.Background(), view.SessionID)
	require.ErrorIs(t, err, models.ErrConfiguration)

	// Text-only scenes are acceptable when image failures are not fatal.
	assert.True(t, newOrchestratorFromConfig(t, cfg, false).IsConfigured())

	cfg.AIAPIKey = "sk-test"
	assert.True(t, newOrchestratorFromConfig(t, cfg, true).IsConfigured())
}
