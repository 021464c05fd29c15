package handler

import (
	"net/http"
	"time"

	"blackscar-server/internal/models"

	rateli "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewActionRateLimiter ограничивает отправку действий: limit запросов за rate
// на сессию. При redisClient == nil счетчики хранятся в памяти.
// Должен стоять после SessionAuthMiddleware.
func NewActionRateLimiter(redisClient *redis.Client, limit int, rate time.Duration, logger *zap.Logger) gin.HandlerFunc {
	var store rateli.Store
	if redisClient != nil {
		store = rateli.RedisStore(&rateli.RedisOptions{
			RedisClient: redisClient,
			Rate:        rate,
			Limit:       uint(limit),
		})
	} else {
		store = rateli.InMemoryStore(&rateli.InMemoryOptions{
			Rate:  rate,
			Limit: uint(limit),
		})
	}

	return rateli.RateLimiter(store, &rateli.Options{
		ErrorHandler: func(c *gin.Context, info rateli.Info) {
			logger.Warn("Rate limit exceeded",
				zap.String("sessionID", sessionIDFromContext(c)),
				zap.Time("resetTime", info.ResetTime),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Code:    models.ErrCodeTooManyRequests,
				Message: "Too many requests. Try again in " + time.Until(info.ResetTime).Round(time.Millisecond).String(),
			})
		},
		KeyFunc: func(c *gin.Context) string {
			if sessionID := sessionIDFromContext(c); sessionID != "" {
				return "action:" + sessionID
			}
			return "action-ip:" + c.ClientIP()
		},
	})
}
