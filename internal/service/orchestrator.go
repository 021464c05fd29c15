package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"blackscar-server/internal/interfaces"
	"blackscar-server/internal/models"

	"go.uber.org/zap"
)

const defaultVoiceTimeout = 30 * time.Second

// VoiceDelivery receives synthesized audio for a committed scene.
type VoiceDelivery func(line string, audio []byte, format string)

// OrchestratorConfig tunes the orchestrator.
type OrchestratorConfig struct {
	// ImageFailureFatal aborts the transition when the image call fails.
	// When false the scene is committed without an image.
	ImageFailureFatal bool
	VoiceTimeout      time.Duration
}

// SceneOrchestrator sequences the generation calls of one transition.
type SceneOrchestrator struct {
	scenes interfaces.SceneGenerator
	images interfaces.ImageGenerator
	voice  interfaces.VoiceSynthesizer // nil disables voice
	cfg    OrchestratorConfig
	logger *zap.Logger

	voiceWG sync.WaitGroup
}

// NewSceneOrchestrator creates an orchestrator. voice may be nil.
func NewSceneOrchestrator(
	scenes interfaces.SceneGenerator,
	images interfaces.ImageGenerator,
	voice interfaces.VoiceSynthesizer,
	cfg OrchestratorConfig,
	logger *zap.Logger,
) *SceneOrchestrator {
	if cfg.VoiceTimeout <= 0 {
		cfg.VoiceTimeout = defaultVoiceTimeout
	}
	return &SceneOrchestrator{
		scenes: scenes,
		images: images,
		voice:  voice,
		cfg:    cfg,
		logger: logger.Named("SceneOrchestrator"),
	}
}

// IsConfigured reports whether a transition can succeed at all. With a fatal
// image step the image backend must be configured too.
func (o *SceneOrchestrator) IsConfigured() bool {
	if !o.scenes.IsConfigured() {
		return false
	}
	return !o.cfg.ImageFailureFatal || o.images.IsConfigured()
}

// NextScene requests the scene text and then its image.
// No retries; the first fatal failure is returned as is.
func (o *SceneOrchestrator) NextScene(ctx context.Context, priorContext, action string, morale, power float64) (*models.GameScene, error) {
	log := o.logger.With(zap.Float64("morale", morale), zap.Float64("power", power))

	scene, err := o.scenes.GenerateNextScene(ctx, priorContext, action, morale, power)
	if err != nil {
		return nil, err
	}
	if scene == nil {
		return nil, fmt.Errorf("%w: generator returned no scene", models.ErrGeneration)
	}

	imageURL, err := o.images.GenerateSceneImage(ctx, scene.Description, false)
	if err != nil {
		if o.cfg.ImageFailureFatal {
			return nil, err
		}
		log.Warn("Image generation failed, committing text-only scene (IMAGE_FAILURE_FATAL=false)", zap.Error(err))
		return scene.WithImage(""), nil
	}

	return scene.WithImage(imageURL), nil
}

// DispatchVoice synthesizes the agent line in the background and hands the
// audio to deliver. Failures are logged and dropped. Never blocks the caller.
func (o *SceneOrchestrator) DispatchVoice(sessionID, line string, deliver VoiceDelivery) {
	log := o.logger.With(zap.String("sessionID", sessionID))
	if o.voice == nil || line == "" {
		voiceDispatchTotal.WithLabelValues("skipped").Inc()
		return
	}

	o.voiceWG.Add(1)
	go func() {
		defer o.voiceWG.Done()
		defer func() {
			if r := recover(); r != nil {
				voiceDispatchTotal.WithLabelValues("failed").Inc()
				log.Error("Panic during voice synthesis", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), o.cfg.VoiceTimeout)
		defer cancel()

		audio, err := o.voice.SpeakLine(ctx, line)
		if err != nil {
			voiceDispatchTotal.WithLabelValues("failed").Inc()
			if errors.Is(err, models.ErrSynthesis) {
				log.Warn("Voice synthesis failed", zap.Error(err))
			} else {
				log.Error("Unexpected voice synthesis error", zap.Error(err))
			}
			return
		}

		voiceDispatchTotal.WithLabelValues("delivered").Inc()
		if deliver != nil {
			deliver(line, audio, o.voice.AudioFormat())
		}
	}()
}

// Wait blocks until all dispatched voice tasks have finished.
func (o *SceneOrchestrator) Wait() {
	o.voiceWG.Wait()
}
