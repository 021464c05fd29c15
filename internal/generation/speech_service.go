package generation

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"blackscar-server/internal/config"
	"blackscar-server/internal/interfaces"
	"blackscar-server/internal/models"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// SpeechService озвучивает реплики агента (TTS).
type SpeechService struct {
	client *openaigo.Client
	model  string
	voice  string
	hasKey bool
	logger *zap.Logger
}

var _ interfaces.VoiceSynthesizer = (*SpeechService)(nil)

// NewSpeechService создает сервис озвучки.
func NewSpeechService(cfg *config.Config, logger *zap.Logger) *SpeechService {
	openaiConfig := openaigo.DefaultConfig(cfg.AIAPIKey)
	openaiConfig.BaseURL = cfg.SpeechBaseURL
	openaiConfig.HTTPClient = &http.Client{Timeout: cfg.SpeechTimeout}

	return &SpeechService{
		client: openaigo.NewClientWithConfig(openaiConfig),
		model:  cfg.SpeechModel,
		voice:  cfg.SpeechVoice,
		hasKey: cfg.AIAPIKey != "",
		logger: logger.Named("SpeechService"),
	}
}

func (s *SpeechService) AudioFormat() string {
	return string(openaigo.SpeechResponseFormatMp3)
}

// SpeakLine возвращает mp3 с репликой агента.
func (s *SpeechService) SpeakLine(ctx context.Context, text string) ([]byte, error) {
	if !s.hasKey {
		return nil, fmt.Errorf("%w: %w", models.ErrSynthesis, models.ErrConfiguration)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty line", models.ErrSynthesis)
	}

	resp, err := s.client.CreateSpeech(ctx, openaigo.CreateSpeechRequest{
		Model:          openaigo.SpeechModel(s.model),
		Input:          text,
		Voice:          openaigo.SpeechVoice(s.voice),
		ResponseFormat: openaigo.SpeechResponseFormatMp3,
	})
	if err != nil {
		speechRequestsTotal.WithLabelValues(s.model, "error").Inc()
		return nil, fmt.Errorf("%w: speech API: %v", models.ErrSynthesis, err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		speechRequestsTotal.WithLabelValues(s.model, "error_read").Inc()
		return nil, fmt.Errorf("%w: read audio: %v", models.ErrSynthesis, err)
	}
	if len(audio) == 0 {
		speechRequestsTotal.WithLabelValues(s.model, "error_empty_response").Inc()
		return nil, fmt.Errorf("%w: empty audio", models.ErrSynthesis)
	}

	speechRequestsTotal.WithLabelValues(s.model, "success").Inc()
	s.logger.Debug("Agent line synthesized", zap.Int("sizeBytes", len(audio)))
	return audio, nil
}
