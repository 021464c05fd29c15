package models

// Коды ошибок API
const (
	ErrCodeBadRequest       = 40000
	ErrCodeEmptyAction      = 40001
	ErrCodeUnauthorized     = 40100
	ErrCodeTokenInvalid     = 40101
	ErrCodeTokenExpired     = 40102
	ErrCodeNotFound         = 40400
	ErrCodeConflict         = 40900
	ErrCodeTransitionBusy   = 40901
	ErrCodeGameOver         = 40902
	ErrCodeTooManyRequests  = 42900
	ErrCodeInternal         = 50000
	ErrCodeGenerationFailed = 50200
	ErrCodeNotConfigured    = 50300
)

// ErrorResponse стандартное тело ответа об ошибке.
// State заполняется для отклоненных переходов: клиент получает неизменное состояние.
type ErrorResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	State   *SessionView `json:"state,omitempty"`
}
