package models

import "errors"

// Таксономия ошибок игры
var (
	// Сервис генерации не настроен (нет ключа API и т.п.)
	ErrConfiguration = errors.New("generation service is not configured")
	// Не удалось получить сцену или изображение
	ErrGeneration = errors.New("scene generation failed")
	// Не удалось синтезировать голос агента
	ErrSynthesis = errors.New("voice synthesis failed")

	// Ошибки переходов сессии
	ErrEmptyAction        = errors.New("action is empty")
	ErrTransitionInFlight = errors.New("a transition is already in flight")
	ErrAlreadyStarted     = errors.New("game already started")
	ErrNotStarted         = errors.New("game has not started yet")
	ErrGameOver           = errors.New("game is over")

	// Сессии и доступ
	ErrSessionNotFound = errors.New("session not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrTokenInvalid    = errors.New("token is invalid")
	ErrTokenExpired    = errors.New("token has expired")

	// Прочее
	ErrStartImageNotReady = errors.New("start image is not ready yet")
	ErrJournalDisabled    = errors.New("turn journal is disabled")
	ErrInvalidInput       = errors.New("invalid input data")
	ErrInternalServer     = errors.New("internal server error")
)
