package models

// GameStatus статус игровой сессии.
type GameStatus string

const (
	StatusStartScreen GameStatus = "START_SCREEN" // Сессия создана, игра не начата
	StatusLoading     GameStatus = "LOADING"      // Только для представления: идет переход
	StatusInGame      GameStatus = "IN_GAME"      // Игра идет
	StatusGameOver    GameStatus = "GAME_OVER"    // Один из показателей упал до нуля
)

// Границы и начальные значения показателей
const (
	MeterMin     = 0.0
	MeterMax     = 100.0
	MeterInitial = 50.0
	// Максимальный модуль случайного сдвига показателя за ход
	MeterMaxDelta = 5.0
)

// GameScene один сюжетный момент. После создания не изменяется.
type GameScene struct {
	Description      string `json:"description"`
	AgentPrompt      string `json:"agentPrompt"`
	ImageURL         string `json:"imageUrl,omitempty"`
	SituationContext string `json:"situationContext"` // Память модели, передается дальше без разбора
}

// WithImage возвращает копию сцены с изображением.
func (s GameScene) WithImage(imageURL string) *GameScene {
	s.ImageURL = imageURL
	return &s
}

// GameState единственный источник истины для сессии.
// Значение не изменяется на месте: каждый переход создает новый снимок.
type GameState struct {
	Status       GameStatus `json:"status"`
	CurrentScene *GameScene `json:"currentScene"`
	History      []string   `json:"history"`
	Power        float64    `json:"power"`
	Morale       float64    `json:"morale"`
}

// NewGameState начальное состояние новой сессии.
func NewGameState() *GameState {
	return &GameState{
		Status:  StatusStartScreen,
		History: []string{},
		Power:   MeterInitial,
		Morale:  MeterInitial,
	}
}

// SituationContext контекст текущей сцены или пустая строка до начала игры.
func (s *GameState) SituationContext() string {
	if s.CurrentScene == nil {
		return ""
	}
	return s.CurrentScene.SituationContext
}

// Clone глубокая копия состояния.
func (s *GameState) Clone() *GameState {
	c := *s
	c.History = append(make([]string, 0, len(s.History)), s.History...)
	if s.CurrentScene != nil {
		scene := *s.CurrentScene
		c.CurrentScene = &scene
	}
	return &c
}

// Depleted сообщает, опустился ли какой-либо показатель до минимума.
func (s *GameState) Depleted() bool {
	return s.Power <= MeterMin || s.Morale <= MeterMin
}

// SessionView то, что видит клиент: снимок состояния плюс признак занятости.
type SessionView struct {
	SessionID string     `json:"sessionId"`
	Status    GameStatus `json:"status"`
	Busy      bool       `json:"busy"`
	State     *GameState `json:"state"`
}
