package models

import (
	"time"

	"github.com/google/uuid"
)

// TurnKind вид записи журнала ходов.
type TurnKind string

const (
	TurnKindOpening TurnKind = "opening"
	TurnKindAction  TurnKind = "action"
)

// GameTurn зафиксированный переход сессии (журнал в PostgreSQL).
type GameTurn struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	SessionID        string     `json:"session_id" db:"session_id"`
	TurnNumber       int        `json:"turn_number" db:"turn_number"`             // 0 для начала игры
	Kind             TurnKind   `json:"kind" db:"kind"`                           // opening или action
	Action           string     `json:"action" db:"action"`                       // Действие игрока или вступительная реплика
	Description      string     `json:"description" db:"description"`             // Текст полученной сцены
	AgentPrompt      string     `json:"agent_prompt" db:"agent_prompt"`           // Реплика агента
	ImageURL         *string    `json:"image_url,omitempty" db:"image_url"`       // Может отсутствовать при нефатальной ошибке
	SituationContext string     `json:"situation_context" db:"situation_context"` // Контекст после хода
	Power            float64    `json:"power" db:"power"`                         // Показатели после хода
	Morale           float64    `json:"morale" db:"morale"`
	Status           GameStatus `json:"status" db:"status"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}
