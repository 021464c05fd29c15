package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"blackscar-server/internal/models"

	"go.uber.org/zap"
)

// Opening prompt pair sent on start. The player never types these.
const (
	OpeningBackstory = "البداية: رحلة بحرية هادئة، وفجأة العاصفة تتحطم السفينة."
	OpeningAction    = "الاستيقاظ على الشاطئ المجهول"
)

// Transition describes a committed state change.
type Transition struct {
	SessionID string
	Kind      models.TurnKind
	Action    string
	Previous  *models.GameState
	Next      *models.GameState
}

// FailedTransition describes a transition that reached the orchestrator and failed.
type FailedTransition struct {
	SessionID string
	Kind      models.TurnKind
	Action    string
	State     *models.GameState
	Err       error
}

// SessionHooks are invoked by a session around its transitions.
// OnCommit runs before the in-flight token is released.
type SessionHooks struct {
	OnCommit  func(ctx context.Context, t Transition)
	OnFailure func(ctx context.Context, f FailedTransition)
	OnVoice   func(sessionID, line string, audio []byte, format string)
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithDeltaSource replaces the random meter delta source.
func WithDeltaSource(d DeltaSource) SessionOption {
	return func(s *Session) { s.delta = d }
}

// WithHooks installs transition hooks.
func WithHooks(h SessionHooks) SessionOption {
	return func(s *Session) { s.hooks = h }
}

// Session is the state machine of one game.
//
// The committed state is an immutable snapshot swapped atomically. At most
// one transition runs at a time: a second one is rejected, never queued.
type Session struct {
	id           string
	orchestrator *SceneOrchestrator
	delta        DeltaSource
	hooks        SessionHooks
	logger       *zap.Logger

	state    atomic.Pointer[models.GameState]
	inFlight atomic.Bool
}

// NewSession creates a session. A nil initial state starts a fresh game.
func NewSession(id string, orchestrator *SceneOrchestrator, initial *models.GameState, logger *zap.Logger, opts ...SessionOption) *Session {
	s := &Session{
		id:           id,
		orchestrator: orchestrator,
		delta:        UniformDelta,
		logger:       logger.Named("Session").With(zap.String("sessionID", id)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if initial == nil {
		initial = models.NewGameState()
	}
	s.state.Store(initial)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the committed snapshot. Callers must not modify it.
func (s *Session) State() *models.GameState { return s.state.Load() }

// Busy reports whether a transition is in flight.
func (s *Session) Busy() bool { return s.inFlight.Load() }

// View returns what the client sees. LOADING is reported while busy and is
// never part of the committed state.
func (s *Session) View() models.SessionView {
	state := s.State()
	busy := s.Busy()
	status := state.Status
	if busy {
		status = models.StatusLoading
	}
	return models.SessionView{SessionID: s.id, Status: status, Busy: busy, State: state}
}

// Start runs the opening transition from START_SCREEN.
// On any error the returned state is the unchanged committed one.
func (s *Session) Start(ctx context.Context) (*models.GameState, error) {
	current := s.State()
	if current.Status != models.StatusStartScreen {
		return current, models.ErrAlreadyStarted
	}
	if !s.orchestrator.IsConfigured() {
		transitionsTotal.WithLabelValues(string(models.TurnKindOpening), "rejected").Inc()
		s.logger.Warn("Start rejected: generation service is not configured")
		return current, fmt.Errorf("%w: cannot start game", models.ErrConfiguration)
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		transitionsTotal.WithLabelValues(string(models.TurnKindOpening), "rejected").Inc()
		return current, models.ErrTransitionInFlight
	}
	defer s.inFlight.Store(false)

	// The token may have been won right after another start committed.
	current = s.State()
	if current.Status != models.StatusStartScreen {
		return current, models.ErrAlreadyStarted
	}

	return s.run(ctx, current, models.TurnKindOpening, OpeningAction, OpeningBackstory, models.MeterInitial, models.MeterInitial)
}

// SubmitAction runs one player turn. Empty actions and actions arriving while
// a transition is in flight are ignored without calling any external service.
func (s *Session) SubmitAction(ctx context.Context, action string) (*models.GameState, error) {
	current := s.State()
	if strings.TrimSpace(action) == "" {
		return current, models.ErrEmptyAction
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		transitionsTotal.WithLabelValues(string(models.TurnKindAction), "rejected").Inc()
		s.logger.Debug("Action ignored: transition in flight")
		return current, models.ErrTransitionInFlight
	}
	defer s.inFlight.Store(false)

	current = s.State()
	switch current.Status {
	case models.StatusStartScreen:
		return current, models.ErrNotStarted
	case models.StatusGameOver:
		return current, models.ErrGameOver
	}

	return s.run(ctx, current, models.TurnKindAction, action, current.SituationContext(), current.Morale, current.Power)
}

// run performs one transition while holding the in-flight token.
func (s *Session) run(ctx context.Context, prev *models.GameState, kind models.TurnKind, action, priorContext string, morale, power float64) (*models.GameState, error) {
	// A client disconnect must not abort a transition half-way.
	ctx = context.WithoutCancel(ctx)
	log := s.logger.With(zap.String("kind", string(kind)))
	started := time.Now()

	scene, err := s.orchestrator.NextScene(ctx, priorContext, action, morale, power)
	if err != nil {
		transitionsTotal.WithLabelValues(string(kind), "failed").Inc()
		transitionDuration.WithLabelValues(string(kind), "failed").Observe(time.Since(started).Seconds())
		log.Error("Transition failed, state unchanged", zap.Error(err))
		if s.hooks.OnFailure != nil {
			s.hooks.OnFailure(ctx, FailedTransition{SessionID: s.id, Kind: kind, Action: action, State: prev, Err: err})
		}
		return prev, err
	}

	next := prev.Clone()
	next.CurrentScene = scene
	if kind == models.TurnKindOpening {
		next.Status = models.StatusInGame
	} else {
		next.History = append(next.History, action)
	}
	perturbMeters(next, s.delta)
	if next.Depleted() {
		next.Status = models.StatusGameOver
	}
	s.state.Store(next)

	transitionsTotal.WithLabelValues(string(kind), "committed").Inc()
	transitionDuration.WithLabelValues(string(kind), "committed").Observe(time.Since(started).Seconds())
	log.Info("Transition committed",
		zap.String("status", string(next.Status)),
		zap.Int("historyLen", len(next.History)),
		zap.Float64("power", next.Power),
		zap.Float64("morale", next.Morale),
	)

	if s.hooks.OnCommit != nil {
		s.hooks.OnCommit(ctx, Transition{SessionID: s.id, Kind: kind, Action: action, Previous: prev, Next: next})
	}

	s.orchestrator.DispatchVoice(s.id, scene.AgentPrompt, func(line string, audio []byte, format string) {
		if s.hooks.OnVoice != nil {
			s.hooks.OnVoice(s.id, line, audio, format)
		}
	})

	return next, nil
}
