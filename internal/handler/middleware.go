package handler

import (
	"strings"

	"blackscar-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionIDKey = "session_id"

// SessionAuthMiddleware проверяет Bearer-токен и кладет ID сессии в контекст.
func (h *GameHandler) SessionAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			handleServiceError(c, models.ErrUnauthorized, nil)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			h.logger.Warn("Invalid Authorization header format")
			handleServiceError(c, models.ErrTokenInvalid, nil)
			return
		}

		sessionID, err := h.tokens.Parse(parts[1])
		if err != nil {
			h.logger.Warn("Session token verification failed", zap.Error(err))
			handleServiceError(c, err, nil)
			return
		}

		c.Set(sessionIDKey, sessionID)
		c.Next()
	}
}

func sessionIDFromContext(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
