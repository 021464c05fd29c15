package generation

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"blackscar-server/internal/config"
	"blackscar-server/internal/interfaces"
	"blackscar-server/internal/models"

	"github.com/google/uuid"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ImageService генерирует иллюстрации сцен, сохраняет их в IMAGE_SAVE_PATH
// и возвращает публичный URL.
type ImageService struct {
	client             *openaigo.Client
	model              string
	size               string
	hasKey             bool
	imageSavePath      string
	imageBaseURL       string
	promptStyleSuffix  string
	initialStyleSuffix string
	logger             *zap.Logger
}

var _ interfaces.ImageGenerator = (*ImageService)(nil)

// NewImageService создает сервис и директорию для файлов.
func NewImageService(cfg *config.Config, logger *zap.Logger) (*ImageService, error) {
	if cfg.ImageSavePath == "" {
		return nil, errors.New("image save path (IMAGE_SAVE_PATH) is not configured")
	}
	if cfg.ImagePublicBaseURL == "" {
		return nil, errors.New("image public base URL (IMAGE_PUBLIC_BASE_URL) is not configured")
	}
	if err := os.MkdirAll(cfg.ImageSavePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory %s: %w", cfg.ImageSavePath, err)
	}

	openaiConfig := openaigo.DefaultConfig(cfg.AIAPIKey)
	openaiConfig.BaseURL = cfg.ImageBaseURL
	openaiConfig.HTTPClient = &http.Client{Timeout: cfg.ImageTimeout}

	return &ImageService{
		client:             openaigo.NewClientWithConfig(openaiConfig),
		model:              cfg.ImageModel,
		size:               cfg.ImageSize,
		hasKey:             cfg.AIAPIKey != "",
		imageSavePath:      cfg.ImageSavePath,
		imageBaseURL:       strings.TrimSuffix(cfg.ImagePublicBaseURL, "/"),
		promptStyleSuffix:  cfg.ImagePromptStyleSuffix,
		initialStyleSuffix: cfg.ImageInitialStyleSuffix,
		logger:             logger.Named("ImageService"),
	}, nil
}

// IsConfigured сообщает, задан ли ключ API для генерации изображений.
func (s *ImageService) IsConfigured() bool { return s.hasKey }

// GenerateSceneImage генерирует изображение по описанию сцены.
// isInitial выбирает стиль заставки стартового экрана.
func (s *ImageService) GenerateSceneImage(ctx context.Context, prompt string, isInitial bool) (string, error) {
	if !s.hasKey {
		return "", fmt.Errorf("%w: %w", models.ErrGeneration, models.ErrConfiguration)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: image prompt is empty", models.ErrGeneration)
	}

	suffix := s.promptStyleSuffix
	if isInitial {
		suffix = s.initialStyleSuffix
	}
	fullPrompt := prompt + suffix
	log := s.logger.With(zap.Bool("isInitial", isInitial), zap.Int("promptBytes", len(fullPrompt)))

	startTime := time.Now()
	resp, err := s.client.CreateImage(ctx, openaigo.ImageRequest{
		Prompt:         fullPrompt,
		Model:          s.model,
		N:              1,
		Size:           s.size,
		ResponseFormat: openaigo.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		imageRequestsTotal.WithLabelValues(s.model, "error").Inc()
		log.Error("Image API call failed", zap.Error(err))
		return "", fmt.Errorf("%w: image API: %v", models.ErrGeneration, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		imageRequestsTotal.WithLabelValues(s.model, "error_empty_response").Inc()
		return "", fmt.Errorf("%w: image API returned empty data", models.ErrGeneration)
	}

	imageData, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		imageRequestsTotal.WithLabelValues(s.model, "error_decode").Inc()
		return "", fmt.Errorf("%w: decode image: %v", models.ErrGeneration, err)
	}

	fileName := uuid.New().String() + ".png"
	filePath := filepath.Join(s.imageSavePath, fileName)
	if err := os.WriteFile(filePath, imageData, 0o644); err != nil {
		imageRequestsTotal.WithLabelValues(s.model, "error_save").Inc()
		log.Error("Failed to save image to file", zap.String("path", filePath), zap.Error(err))
		return "", fmt.Errorf("%w: save image: %v", models.ErrGeneration, err)
	}

	imageRequestsTotal.WithLabelValues(s.model, "success").Inc()
	imageURL := s.imageBaseURL + "/" + fileName
	log.Info("Scene image generated",
		zap.String("url", imageURL),
		zap.Int("sizeBytes", len(imageData)),
		zap.Duration("duration", time.Since(startTime)),
	)
	return imageURL, nil
}
