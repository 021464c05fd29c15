package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"blackscar-server/internal/config"
	"blackscar-server/internal/models"

	"github.com/ollama/ollama/api"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// UsageInfo содержит информацию об использовании токенов.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	Estimated        bool
}

// TextClient запрашивает у модели ответ в формате JSON.
type TextClient interface {
	GenerateJSON(ctx context.Context, systemPrompt, userInput string) (string, UsageInfo, error)
	// Configured сообщает, есть ли у клиента все необходимое (ключ API).
	Configured() bool
	Model() string
}

// --- OpenAI Client Implementation ---

// openAIClient работает с OpenAI-совместимым API (OpenAI, OpenRouter, vLLM).
type openAIClient struct {
	client      *openaigo.Client
	model       string
	maxTokens   int
	temperature float32
	hasKey      bool
	logger      *zap.Logger
}

func (c *openAIClient) Configured() bool { return c.hasKey }
func (c *openAIClient) Model() string    { return c.model }

func (c *openAIClient) GenerateJSON(ctx context.Context, systemPrompt, userInput string) (string, UsageInfo, error) {
	var usage UsageInfo
	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", usage, fmt.Errorf("%w: system prompt is empty", models.ErrGeneration)
	}

	messages := []openaigo.ChatCompletionMessage{
		{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openaigo.ChatMessageRoleUser, Content: userInput},
	}

	startTime := time.Now()
	c.logger.Debug("Sending request to AI",
		zap.String("model", c.model),
		zap.Int("systemPromptBytes", len(systemPrompt)),
		zap.Int("userInputBytes", len(userInput)),
	)

	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		ResponseFormat: &openaigo.ChatCompletionResponseFormat{
			Type: openaigo.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	duration := time.Since(startTime)

	if err != nil {
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		c.logger.Error("AI API error", zap.Duration("duration", duration), zap.Error(err))
		return "", usage, fmt.Errorf("%w: %v", models.ErrGeneration, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		aiRequestsTotal.WithLabelValues(c.model, "error_empty_response").Inc()
		return "", usage, fmt.Errorf("%w: empty response", models.ErrGeneration)
	}

	aiRequestsTotal.WithLabelValues(c.model, "success").Inc()
	aiRequestDuration.WithLabelValues(c.model).Observe(duration.Seconds())

	text := resp.Choices[0].Message.Content
	if resp.Usage.TotalTokens > 0 {
		usage.PromptTokens = resp.Usage.PromptTokens
		usage.CompletionTokens = resp.Usage.CompletionTokens
	} else {
		usage = estimateUsage(c.model, systemPrompt+userInput, text)
	}
	observeUsage(c.model, usage)

	c.logger.Debug("AI response received",
		zap.Duration("duration", duration),
		zap.Int("responseBytes", len(text)),
		zap.Int("promptTokens", usage.PromptTokens),
		zap.Int("completionTokens", usage.CompletionTokens),
	)
	return text, usage, nil
}

// --- Ollama Client Implementation ---

// ollamaClient работает с нативным API Ollama.
type ollamaClient struct {
	client      *api.Client
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	logger      *zap.Logger
}

// Локальная модель не требует ключа.
func (c *ollamaClient) Configured() bool { return true }
func (c *ollamaClient) Model() string    { return c.model }

func (c *ollamaClient) GenerateJSON(ctx context.Context, systemPrompt, userInput string) (string, UsageInfo, error) {
	var usage UsageInfo
	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", usage, fmt.Errorf("%w: system prompt is empty", models.ErrGeneration)
	}

	stream := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userInput},
		},
		Stream: &stream,
		Format: json.RawMessage(`"json"`),
		Options: map[string]interface{}{
			"temperature": c.temperature,
			"num_predict": c.maxTokens,
		},
	}

	requestCtx, cancel := ctx, context.CancelFunc(func() {})
	if c.timeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	defer cancel()

	startTime := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.logger.Error("Ollama API timeout", zap.Duration("timeout", c.timeout), zap.Error(err))
		} else {
			c.logger.Error("Ollama API error", zap.Duration("duration", duration), zap.Error(err))
		}
		aiRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", usage, fmt.Errorf("%w: %v", models.ErrGeneration, err)
	}
	if resp.Message.Content == "" {
		aiRequestsTotal.WithLabelValues(c.model, "error_empty_response").Inc()
		return "", usage, fmt.Errorf("%w: empty response", models.ErrGeneration)
	}

	aiRequestsTotal.WithLabelValues(c.model, "success").Inc()
	aiRequestDuration.WithLabelValues(c.model).Observe(duration.Seconds())

	text := resp.Message.Content
	if resp.PromptEvalCount > 0 || resp.EvalCount > 0 {
		usage.PromptTokens = resp.PromptEvalCount
		usage.CompletionTokens = resp.EvalCount
	} else {
		usage = estimateUsage(c.model, systemPrompt+userInput, text)
	}
	observeUsage(c.model, usage)

	return text, usage, nil
}

func estimateUsage(model, prompt, completion string) UsageInfo {
	return UsageInfo{
		PromptTokens:     estimateTokens(model, prompt),
		CompletionTokens: estimateTokens(model, completion),
		Estimated:        true,
	}
}

func observeUsage(model string, usage UsageInfo) {
	source := "usage"
	if usage.Estimated {
		source = "estimated"
	}
	if usage.PromptTokens > 0 {
		aiPromptTokens.WithLabelValues(model, source).Observe(float64(usage.PromptTokens))
	}
	if usage.CompletionTokens > 0 {
		aiCompletionTokens.WithLabelValues(model, source).Observe(float64(usage.CompletionTokens))
	}
}

// --- Factory Function ---

// NewTextClient создает клиент в зависимости от AI_CLIENT_TYPE.
func NewTextClient(cfg *config.Config, logger *zap.Logger) (TextClient, error) {
	logger = logger.Named("TextClient")
	switch strings.ToLower(cfg.AIClientType) {
	case config.AIClientTypeOpenAI:
		openaiConfig := openaigo.DefaultConfig(cfg.AIAPIKey)
		openaiConfig.BaseURL = cfg.AIBaseURL
		openaiConfig.HTTPClient = &http.Client{Timeout: cfg.AITimeout}
		logger.Info("OpenAI client created",
			zap.String("baseURL", cfg.AIBaseURL),
			zap.String("model", cfg.AIModel),
			zap.Duration("timeout", cfg.AITimeout),
		)
		return &openAIClient{
			client:      openaigo.NewClientWithConfig(openaiConfig),
			model:       cfg.AIModel,
			maxTokens:   cfg.AIMaxTokens,
			temperature: float32(cfg.AITemperature),
			hasKey:      cfg.AIAPIKey != "",
			logger:      logger,
		}, nil
	case config.AIClientTypeOllama:
		// api.NewClient требует URL без суффикса /v1
		baseURL := strings.TrimSuffix(strings.TrimSuffix(cfg.AIBaseURL, "/"), "/v1")
		parsedURL, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("ошибка парсинга Ollama Base URL '%s': %w", baseURL, err)
		}
		logger.Info("Ollama client created",
			zap.String("baseURL", baseURL),
			zap.String("model", cfg.AIModel),
			zap.Duration("timeout", cfg.AITimeout),
		)
		return &ollamaClient{
			client:      api.NewClient(parsedURL, &http.Client{Timeout: cfg.AITimeout}),
			model:       cfg.AIModel,
			maxTokens:   cfg.AIMaxTokens,
			temperature: cfg.AITemperature,
			timeout:     cfg.AITimeout,
			logger:      logger,
		}, nil
	default:
		return nil, fmt.Errorf("неизвестный тип AI клиента: '%s'", cfg.AIClientType)
	}
}
