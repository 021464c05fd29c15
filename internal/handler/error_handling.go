package handler

import (
	"errors"
	"net/http"

	"blackscar-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleServiceError отвечает клиенту ошибкой. Для отклоненных переходов
// view содержит неизменное состояние сессии.
func handleServiceError(c *gin.Context, err error, view *models.SessionView) {
	var statusCode int
	var errResp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrConfiguration):
		statusCode = http.StatusServiceUnavailable
		errResp = models.ErrorResponse{Code: models.ErrCodeNotConfigured, Message: "Generation service is not configured"}
	case errors.Is(err, models.ErrGeneration):
		statusCode = http.StatusBadGateway
		errResp = models.ErrorResponse{Code: models.ErrCodeGenerationFailed, Message: "Scene generation failed, please retry"}
	case errors.Is(err, models.ErrEmptyAction):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeEmptyAction, Message: "Action must not be empty"}
	case errors.Is(err, models.ErrTransitionInFlight):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeTransitionBusy, Message: "Previous action is still being processed"}
	case errors.Is(err, models.ErrGameOver):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeGameOver, Message: "Game is over"}
	case errors.Is(err, models.ErrAlreadyStarted), errors.Is(err, models.ErrNotStarted):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeConflict, Message: err.Error()}
	case errors.Is(err, models.ErrSessionNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Session not found"}
	case errors.Is(err, models.ErrStartImageNotReady), errors.Is(err, models.ErrJournalDisabled):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: err.Error()}
	case errors.Is(err, models.ErrTokenExpired):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeTokenExpired, Message: "Token has expired"}
	case errors.Is(err, models.ErrTokenInvalid):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeTokenInvalid, Message: "Token is invalid or malformed"}
	case errors.Is(err, models.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeUnauthorized, Message: "Unauthorized"}
	case errors.Is(err, models.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}

	if view != nil && view.State != nil {
		errResp.State = view
	}
	c.AbortWithStatusJSON(statusCode, errResp)
}
