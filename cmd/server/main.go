package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blackscar-server/internal/config"
	"blackscar-server/internal/generation"
	"blackscar-server/internal/handler"
	"blackscar-server/internal/interfaces"
	"blackscar-server/internal/logger"
	"blackscar-server/internal/messaging"
	"blackscar-server/internal/middleware"
	"blackscar-server/internal/repository"
	"blackscar-server/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	// .env нужен только для локального запуска
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: could not load .env file:", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	appLogger, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()
	zap.ReplaceGlobals(appLogger)
	cfg.LogSummary(appLogger)

	// --- Хранилище сессий ---
	var redisClient *redis.Client
	var sessionRepo interfaces.SessionRepository
	if cfg.RedisAddr != "" {
		redisClient, err = setupRedis(cfg)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		sessionRepo = repository.NewRedisSessionRepository(redisClient, cfg.SessionTTL, appLogger)
		appLogger.Info("Redis session repository enabled", zap.String("addr", cfg.RedisAddr))
	} else {
		sessionRepo = repository.NewMemorySessionRepository(appLogger)
		appLogger.Warn("REDIS_ADDR not set, sessions are kept in memory only")
	}

	// --- Журнал ходов ---
	var turnRepo interfaces.TurnRepository
	if cfg.JournalEnabled() {
		if err := repository.ApplyMigrations(cfg.GetDSN(), appLogger); err != nil {
			appLogger.Fatal("Failed to apply database migrations", zap.Error(err))
		}
		dbPool, err := setupDatabase(cfg)
		if err != nil {
			appLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer dbPool.Close()
		turnRepo = repository.NewPgTurnRepository(dbPool, appLogger)
		appLogger.Info("Turn journal enabled")
	}

	// --- События игры ---
	publisher := messaging.NewNopPublisher()
	if cfg.RabbitMQURL != "" {
		rabbitConn, err := messaging.ConnectRabbitMQ(cfg.RabbitMQURL, 5, 5*time.Second, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer rabbitConn.Close()
		publisher, err = messaging.NewRabbitMQEventPublisher(rabbitConn, cfg.GameEventsExchange, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to create game event publisher", zap.Error(err))
		}
	}
	defer publisher.Close()

	// --- Генерация ---
	textClient, err := generation.NewTextClient(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create text client", zap.Error(err))
	}
	systemPrompt, err := generation.LoadPrompt(cfg.PromptsDir, generation.ScenePromptName)
	if err != nil {
		appLogger.Fatal("Failed to load scene prompt", zap.Error(err))
	}
	sceneService := generation.NewSceneService(textClient, systemPrompt, appLogger)
	imageService, err := generation.NewImageService(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create image service", zap.Error(err))
	}
	var voice interfaces.VoiceSynthesizer
	if cfg.SpeechEnabled {
		voice = generation.NewSpeechService(cfg, appLogger)
	}

	orchestrator := service.NewSceneOrchestrator(sceneService, imageService, voice, service.OrchestratorConfig{
		ImageFailureFatal: cfg.ImageFailureFatal,
		VoiceTimeout:      cfg.SpeechTimeout,
	}, appLogger)

	connManager := handler.NewConnectionManager(appLogger)
	gameService := service.NewGameService(service.GameServiceDeps{
		Orchestrator: orchestrator,
		Images:       imageService,
		Sessions:     sessionRepo,
		Turns:        turnRepo,
		Publisher:    publisher,
		Notifier:     connManager,
		IdleTTL:      cfg.SessionTTL,
	}, appLogger)

	if !gameService.IsConfigured() {
		appLogger.Warn("Generation service is not configured: games cannot be started until an API key is provided")
	}

	primeCtx, primeCancel := context.WithTimeout(context.Background(), cfg.ImageTimeout)
	defer primeCancel()
	go gameService.PrimeStartImage(primeCtx, cfg.StartImagePrompt)

	evictCtx, evictCancel := context.WithCancel(context.Background())
	defer evictCancel()
	go gameService.RunEvictor(evictCtx, cfg.SessionSweepInterval)

	// --- HTTP ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(middleware.GinZapLogger(appLogger))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	corsConfig := cors.DefaultConfig()
	allowedOrigins := cfg.GetAllowedOrigins()
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)
	if route, ok := cfg.ImageRoute(); ok {
		router.Static(route, cfg.ImageSavePath)
	} else {
		appLogger.Info("Images are served externally, static route not registered",
			zap.String("publicBaseURL", cfg.ImagePublicBaseURL))
	}

	tokens := handler.NewTokenIssuer(cfg.JWTSecret, cfg.SessionTokenTTL)
	actionLimiter := handler.NewActionRateLimiter(redisClient, cfg.ActionRateLimit, time.Second, appLogger)
	gameHandler := handler.NewGameHandler(gameService, tokens, connManager, allowedOrigins, appLogger)
	gameHandler.RegisterRoutes(router, actionLimiter)

	// Prometheus подключаем после регистрации маршрутов
	p.Use(router)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Переход ждет текст и изображение, поэтому запись ограничена по таймаутам генерации
		WriteTimeout: cfg.AITimeout + cfg.ImageTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	evictCancel()
	// Дожидаемся фоновой озвучки
	gameService.Shutdown()
	appLogger.Info("Server exiting")
}

func setupRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// setupDatabase инициализирует пул соединений с БД.
func setupDatabase(cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	dbPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать пул соединений: %w", err)
	}
	if err = dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("не удалось подключиться к БД (ping failed): %w", err)
	}
	return dbPool, nil
}
