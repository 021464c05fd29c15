package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// AI client types
const (
	AIClientTypeOpenAI = "openai"
	AIClientTypeOllama = "ollama"
)

// Config содержит конфигурацию игрового сервера.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	Port        string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	SecretsDir  string `envconfig:"SECRETS_DIR"` // пусто: DefaultSecretsDir

	// CORS: список через запятую, "*" разрешает все
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// Генерация текста сцен
	AIClientType  string        `envconfig:"AI_CLIENT_TYPE" default:"openai"`
	AIBaseURL     string        `envconfig:"AI_BASE_URL" default:"https://api.openai.com/v1"`
	AIModel       string        `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	AITimeout     time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`
	AIMaxTokens   int           `envconfig:"AI_MAX_TOKENS" default:"1024"`
	AITemperature float64       `envconfig:"AI_TEMPERATURE" default:"0.9"`
	PromptsDir    string        `envconfig:"PROMPTS_DIR" default:""` // пусто: встроенный промпт
	// Секретное поле БЕЗ envconfig тега
	AIAPIKey string

	// Генерация изображений
	ImageBaseURL            string        `envconfig:"IMAGE_BASE_URL" default:"https://api.openai.com/v1"`
	ImageModel              string        `envconfig:"IMAGE_MODEL" default:"dall-e-3"`
	ImageSize               string        `envconfig:"IMAGE_SIZE" default:"1024x1024"`
	ImageTimeout            time.Duration `envconfig:"IMAGE_TIMEOUT" default:"120s"`
	ImageSavePath           string        `envconfig:"IMAGE_SAVE_PATH" default:"./generated_images"`
	ImagePublicBaseURL      string        `envconfig:"IMAGE_PUBLIC_BASE_URL" default:"/images"`
	ImageRoutePath          string        `envconfig:"IMAGE_ROUTE_PATH" default:""` // пусто: путь из IMAGE_PUBLIC_BASE_URL
	ImagePromptStyleSuffix  string        `envconfig:"IMAGE_PROMPT_STYLE_SUFFIX" default:", dark cinematic war illustration, desaturated, grim atmosphere"`
	ImageInitialStyleSuffix string        `envconfig:"IMAGE_INITIAL_STYLE_SUFFIX" default:", extreme close-up, black background, dramatic rim light"`
	ImageFailureFatal       bool          `envconfig:"IMAGE_FAILURE_FATAL" default:"true"`
	StartImagePrompt        string        `envconfig:"START_IMAGE_PROMPT" default:"soldier bleeding hand"`

	// Озвучка реплик агента
	SpeechEnabled bool          `envconfig:"SPEECH_ENABLED" default:"true"`
	SpeechBaseURL string        `envconfig:"SPEECH_BASE_URL" default:"https://api.openai.com/v1"`
	SpeechModel   string        `envconfig:"SPEECH_MODEL" default:"tts-1"`
	SpeechVoice   string        `envconfig:"SPEECH_VOICE" default:"onyx"`
	SpeechTimeout time.Duration `envconfig:"SPEECH_TIMEOUT" default:"30s"`

	// Настройки Redis (пустой адрес: сессии хранятся в памяти)
	RedisAddr  string        `envconfig:"REDIS_ADDR" default:""`
	RedisDB    int           `envconfig:"REDIS_DB" default:"0"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"72h"`
	// Как часто из памяти выгружаются сессии, простоявшие дольше SessionTTL
	SessionSweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"5m"`
	// Секретное поле БЕЗ envconfig тега
	RedisPassword string

	// Настройки PostgreSQL (пустой хост: журнал ходов отключен)
	DBHost        string        `envconfig:"DB_HOST" default:""`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"blackscar"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string

	// Настройки RabbitMQ (пустой URL: события не публикуются)
	RabbitMQURL        string `envconfig:"RABBITMQ_URL" default:""`
	GameEventsExchange string `envconfig:"GAME_EVENTS_EXCHANGE" default:"game_events"`

	// Токены сессий
	SessionTokenTTL time.Duration `envconfig:"SESSION_TOKEN_TTL" default:"72h"`
	// Секретное поле БЕЗ envconfig тега
	JWTSecret string

	// Лимит действий игрока, формат gin-rate-limit: запросов в секунду
	ActionRateLimit int `envconfig:"ACTION_RATE_LIMIT" default:"2"`
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// GetAllowedOrigins разбирает CORS_ALLOWED_ORIGINS.
func (c *Config) GetAllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// ImageRoute возвращает путь, по которому сервер сам раздает изображения.
// Если IMAGE_PUBLIC_BASE_URL указывает на внешний адрес (CDN) и
// IMAGE_ROUTE_PATH не задан, раздачу не регистрируем.
func (c *Config) ImageRoute() (string, bool) {
	route := c.ImageRoutePath
	if route == "" {
		route = c.ImagePublicBaseURL
	}
	if !strings.HasPrefix(route, "/") || strings.HasPrefix(route, "//") {
		return "", false
	}
	return route, true
}

// JournalEnabled сообщает, настроен ли PostgreSQL.
func (c *Config) JournalEnabled() bool { return c.DBHost != "" }

// LoadConfig загружает конфигурацию из переменных окружения и секретов.
// Ключ AI необязателен: без него сервер стартует, но игра не начнется.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	if cfg.SecretsDir == "" {
		cfg.SecretsDir = DefaultSecretsDir
	}

	if cfg.AIClientType != AIClientTypeOpenAI && cfg.AIClientType != AIClientTypeOllama {
		return nil, fmt.Errorf("неизвестный AI_CLIENT_TYPE: %q", cfg.AIClientType)
	}

	var err error
	if cfg.AIAPIKey, err = secretOrEnv(cfg.SecretsDir, "ai_api_key", "AI_API_KEY"); err != nil {
		return nil, err
	}
	if cfg.RedisPassword, err = secretOrEnv(cfg.SecretsDir, "redis_password", "REDIS_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.DBPassword, err = secretOrEnv(cfg.SecretsDir, "db_password", "DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.JWTSecret, err = secretOrEnv(cfg.SecretsDir, "jwt_secret", "JWT_SECRET"); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret не задан (ни файл секрета, ни JWT_SECRET)")
	}

	return &cfg, nil
}

// LogSummary пишет конфигурацию в лог без секретов.
func (c *Config) LogSummary(logger *zap.Logger) {
	fields := []zap.Field{
		zap.String("env", c.Env),
		zap.String("port", c.Port),
		zap.String("logLevel", c.LogLevel),
		zap.String("aiClientType", c.AIClientType),
		zap.String("aiBaseURL", c.AIBaseURL),
		zap.String("aiModel", c.AIModel),
		zap.Bool("aiKeyLoaded", c.AIAPIKey != ""),
		zap.String("imageModel", c.ImageModel),
		zap.Bool("imageFailureFatal", c.ImageFailureFatal),
		zap.Bool("speechEnabled", c.SpeechEnabled),
		zap.String("redisAddr", c.RedisAddr),
		zap.Duration("sessionTTL", c.SessionTTL),
		zap.String("imagePublicBaseURL", c.ImagePublicBaseURL),
		zap.Bool("rabbitMQEnabled", c.RabbitMQURL != ""),
		zap.String("gameEventsExchange", c.GameEventsExchange),
		zap.Int("actionRateLimit", c.ActionRateLimit),
	}
	if c.JournalEnabled() {
		fields = append(fields, zap.String("dbDSN", fmt.Sprintf("postgres://%s:***@%s:%s/%s?sslmode=%s",
			c.DBUser, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)))
	}
	logger.Info("Configuration loaded", fields...)
}
