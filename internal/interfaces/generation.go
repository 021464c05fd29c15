package interfaces

import (
	"context"

	"blackscar-server/internal/models"
)

// SceneGenerator produces the next narrative beat.
type SceneGenerator interface {
	// IsConfigured reports whether the service has credentials. Never fails.
	IsConfigured() bool
	// GenerateNextScene returns a scene without an image.
	// Failures wrap models.ErrGeneration (or models.ErrConfiguration).
	GenerateNextScene(ctx context.Context, priorContext, action string, morale, power float64) (*models.GameScene, error)
}

// ImageGenerator renders an illustration and returns a reference to it.
type ImageGenerator interface {
	// IsConfigured reports whether the image backend has credentials.
	IsConfigured() bool
	// GenerateSceneImage failures wrap models.ErrGeneration.
	GenerateSceneImage(ctx context.Context, prompt string, isInitial bool) (string, error)
}

// VoiceSynthesizer turns the agent line into playable audio.
type VoiceSynthesizer interface {
	// SpeakLine failures wrap models.ErrSynthesis.
	SpeakLine(ctx context.Context, text string) ([]byte, error)
	// AudioFormat is the container of the returned bytes, e.g. "mp3".
	AudioFormat() string
}
