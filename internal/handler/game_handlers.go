package handler

import (
	"context"
	"fmt"
	"net/http"

	"blackscar-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var errMissingToken = fmt.Errorf("%w: missing token", models.ErrUnauthorized)

// GameService операции игры, доступные через HTTP.
type GameService interface {
	IsConfigured() bool
	CreateSession(ctx context.Context) (models.SessionView, error)
	View(ctx context.Context, sessionID string) (models.SessionView, error)
	Start(ctx context.Context, sessionID string) (models.SessionView, error)
	SubmitAction(ctx context.Context, sessionID, action string) (models.SessionView, error)
	ListTurns(ctx context.Context, sessionID string) ([]models.GameTurn, error)
	StartImage() (string, error)
}

// GameHandler HTTP и WebSocket обработчики игры.
type GameHandler struct {
	service  GameService
	tokens   *TokenIssuer
	manager  *ConnectionManager
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewGameHandler создает обработчик. allowedOrigins ограничивает WebSocket
// так же, как CORS.
func NewGameHandler(s GameService, tokens *TokenIssuer, manager *ConnectionManager, allowedOrigins []string, logger *zap.Logger) *GameHandler {
	h := &GameHandler{
		service: s,
		tokens:  tokens,
		manager: manager,
		logger:  logger.Named("GameHandler"),
	}
	h.upgrader = h.newUpgrader(allowedOrigins)
	return h
}

// RegisterRoutes регистрирует маршруты. actionLimiter применяется только
// к отправке действий, nil отключает ограничение.
func (h *GameHandler) RegisterRoutes(router gin.IRouter, actionLimiter gin.HandlerFunc) {
	router.GET("/ws", h.ServeWS)

	api := router.Group("/api/v1")
	{
		api.GET("/status", h.getStatus)
		api.GET("/start-image", h.getStartImage)
		api.POST("/sessions", h.createSession)
	}

	current := api.Group("/sessions/current", h.SessionAuthMiddleware())
	{
		current.GET("", h.getSession)
		current.POST("/start", h.startGame)
		actionHandlers := []gin.HandlerFunc{h.submitAction}
		if actionLimiter != nil {
			actionHandlers = append([]gin.HandlerFunc{actionLimiter}, actionHandlers...)
		}
		current.POST("/actions", actionHandlers...)
		current.GET("/turns", h.listTurns)
	}
}

type statusResponse struct {
	Configured bool `json:"configured"`
}

type startImageResponse struct {
	ImageURL string `json:"imageUrl"`
}

type createSessionResponse struct {
	SessionID string             `json:"sessionId"`
	Token     string             `json:"token"`
	ExpiresAt int64              `json:"expiresAt"`
	Session   models.SessionView `json:"session"`
}

type submitActionRequest struct {
	Action string `json:"action" binding:"max=2000"`
}

func (h *GameHandler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, statusResponse{Configured: h.service.IsConfigured()})
}

func (h *GameHandler) getStartImage(c *gin.Context) {
	url, err := h.service.StartImage()
	if err != nil {
		handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, startImageResponse{ImageURL: url})
}

func (h *GameHandler) createSession(c *gin.Context) {
	view, err := h.service.CreateSession(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, nil)
		return
	}
	token, expiresAt, err := h.tokens.Issue(view.SessionID)
	if err != nil {
		handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, createSessionResponse{
		SessionID: view.SessionID,
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
		Session:   view,
	})
}

func (h *GameHandler) getSession(c *gin.Context) {
	view, err := h.service.View(c.Request.Context(), sessionIDFromContext(c))
	if err != nil {
		handleServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *GameHandler) startGame(c *gin.Context) {
	sessionID := sessionIDFromContext(c)
	view, err := h.service.Start(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Info("Start rejected", zap.String("sessionID", sessionID), zap.Error(err))
		handleServiceError(c, err, &view)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *GameHandler) submitAction(c *gin.Context) {
	sessionID := sessionIDFromContext(c)
	var req submitActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, fmt.Errorf("%w: %v", models.ErrInvalidInput, err), nil)
		return
	}

	view, err := h.service.SubmitAction(c.Request.Context(), sessionID, req.Action)
	if err != nil {
		h.logger.Info("Action rejected", zap.String("sessionID", sessionID), zap.Error(err))
		handleServiceError(c, err, &view)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *GameHandler) listTurns(c *gin.Context) {
	turns, err := h.service.ListTurns(c.Request.Context(), sessionIDFromContext(c))
	if err != nil {
		handleServiceError(c, err, nil)
		return
	}
	if turns == nil {
		turns = []models.GameTurn{}
	}
	c.JSON(http.StatusOK, turns)
}
