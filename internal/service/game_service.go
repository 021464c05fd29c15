package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"blackscar-server/internal/interfaces"
	"blackscar-server/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GameServiceDeps collects the collaborators of GameService.
// Turns and Publisher are optional. A zero IdleTTL disables eviction.
type GameServiceDeps struct {
	Orchestrator *SceneOrchestrator
	Images       interfaces.ImageGenerator
	Sessions     interfaces.SessionRepository
	Turns        interfaces.TurnRepository
	Publisher    interfaces.GameEventPublisher
	Notifier     interfaces.SessionNotifier
	Delta        DeltaSource
	IdleTTL      time.Duration
}

// liveSession is a session held in memory with the time it was last used.
type liveSession struct {
	session  *Session
	lastSeen time.Time
}

// GameService owns the live sessions and wires their transitions to storage,
// the turn journal, the event bus and websocket subscribers.
type GameService struct {
	orchestrator *SceneOrchestrator
	images       interfaces.ImageGenerator
	repo         interfaces.SessionRepository
	turns        interfaces.TurnRepository
	publisher    interfaces.GameEventPublisher
	notifier     interfaces.SessionNotifier
	delta        DeltaSource
	logger       *zap.Logger
	idleTTL      time.Duration
	now          func() time.Time

	mu       sync.Mutex
	sessions map[string]*liveSession

	startImageMu sync.RWMutex
	startImage   string
}

// NewGameService creates the service.
func NewGameService(deps GameServiceDeps, logger *zap.Logger) *GameService {
	delta := deps.Delta
	if delta == nil {
		delta = UniformDelta
	}
	return &GameService{
		orchestrator: deps.Orchestrator,
		images:       deps.Images,
		repo:         deps.Sessions,
		turns:        deps.Turns,
		publisher:    deps.Publisher,
		notifier:     deps.Notifier,
		delta:        delta,
		logger:       logger.Named("GameService"),
		idleTTL:      deps.IdleTTL,
		now:          time.Now,
		sessions:     make(map[string]*liveSession),
	}
}

// IsConfigured reports whether a game can be started at all.
func (s *GameService) IsConfigured() bool {
	return s.orchestrator.IsConfigured()
}

// CreateSession creates a fresh session in START_SCREEN.
func (s *GameService) CreateSession(ctx context.Context) (models.SessionView, error) {
	id := uuid.New().String()
	session := s.newSession(id, nil)

	if err := s.repo.Save(ctx, id, session.State()); err != nil {
		s.logger.Error("Failed to save new session", zap.String("sessionID", id), zap.Error(err))
		return models.SessionView{}, fmt.Errorf("%w: save session: %v", models.ErrInternalServer, err)
	}

	s.mu.Lock()
	s.sessions[id] = &liveSession{session: session, lastSeen: s.now()}
	activeSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	s.publish(ctx, session.State(), id, models.EventSessionCreated, nil)
	s.logger.Info("Session created", zap.String("sessionID", id))
	return session.View(), nil
}

// View returns the client view of a session.
func (s *GameService) View(ctx context.Context, sessionID string) (models.SessionView, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return models.SessionView{}, err
	}
	return session.View(), nil
}

// Start runs the opening transition of a session.
// The returned view is valid for every error except a lookup failure.
func (s *GameService) Start(ctx context.Context, sessionID string) (models.SessionView, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return models.SessionView{}, err
	}
	_, err = session.Start(ctx)
	return session.View(), err
}

// SubmitAction runs one player turn.
func (s *GameService) SubmitAction(ctx context.Context, sessionID, action string) (models.SessionView, error) {
	session, err := s.session(ctx, sessionID)
	if err != nil {
		return models.SessionView{}, err
	}
	_, err = session.SubmitAction(ctx, action)
	return session.View(), err
}

// ListTurns returns the journal of a session.
func (s *GameService) ListTurns(ctx context.Context, sessionID string) ([]models.GameTurn, error) {
	if s.turns == nil {
		return nil, models.ErrJournalDisabled
	}
	if _, err := s.session(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.turns.ListBySession(ctx, sessionID)
}

// PrimeStartImage requests the start-screen illustration once.
// Without configuration nothing is requested.
func (s *GameService) PrimeStartImage(ctx context.Context, prompt string) {
	if !s.IsConfigured() || !s.images.IsConfigured() {
		s.logger.Warn("Start image not primed: generation service is not configured")
		return
	}
	url, err := s.images.GenerateSceneImage(ctx, prompt, true)
	if err != nil {
		s.logger.Error("Failed to prime start image", zap.String("prompt", prompt), zap.Error(err))
		return
	}
	s.startImageMu.Lock()
	s.startImage = url
	s.startImageMu.Unlock()
	s.logger.Info("Start image primed", zap.String("url", url))
}

// StartImage returns the primed start-screen image.
func (s *GameService) StartImage() (string, error) {
	s.startImageMu.RLock()
	defer s.startImageMu.RUnlock()
	if s.startImage == "" {
		return "", models.ErrStartImageNotReady
	}
	return s.startImage, nil
}

// Shutdown waits for detached voice tasks.
func (s *GameService) Shutdown() {
	s.orchestrator.Wait()
}

// EvictIdle drops live sessions unused for longer than the idle TTL and
// deletes their stored state. Sessions with a transition in flight are kept.
// It returns the number of evicted sessions.
func (s *GameService) EvictIdle(ctx context.Context) int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	var expired []string
	for id, live := range s.sessions {
		if live.lastSeen.Before(cutoff) && !live.session.Busy() {
			expired = append(expired, id)
			delete(s.sessions, id)
		}
	}
	activeSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	for _, id := range expired {
		if err := s.repo.Delete(ctx, id); err != nil {
			s.logger.Warn("Failed to delete idle session", zap.String("sessionID", id), zap.Error(err))
		}
	}
	if len(expired) > 0 {
		s.logger.Info("Idle sessions evicted", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// RunEvictor calls EvictIdle every interval until ctx is done.
func (s *GameService) RunEvictor(ctx context.Context, interval time.Duration) {
	if s.idleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle(ctx)
		}
	}
}

// LiveSessions returns the number of sessions held in memory.
func (s *GameService) LiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// session returns a live session, restoring it from the repository if needed.
// The repository is read without holding the lock.
func (s *GameService) session(ctx context.Context, sessionID string) (*Session, error) {
	if session := s.touch(sessionID); session != nil {
		return session, nil
	}

	state, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			return nil, err
		}
		s.logger.Error("Failed to load session", zap.String("sessionID", sessionID), zap.Error(err))
		return nil, fmt.Errorf("%w: load session: %v", models.ErrInternalServer, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A concurrent lookup may have restored it meanwhile.
	if live, ok := s.sessions[sessionID]; ok {
		live.lastSeen = s.now()
		return live.session, nil
	}
	session := s.newSession(sessionID, state)
	s.sessions[sessionID] = &liveSession{session: session, lastSeen: s.now()}
	activeSessions.Set(float64(len(s.sessions)))
	s.logger.Info("Session restored", zap.String("sessionID", sessionID), zap.String("status", string(state.Status)))
	return session, nil
}

func (s *GameService) touch(sessionID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	live, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	live.lastSeen = s.now()
	return live.session
}

func (s *GameService) newSession(id string, state *models.GameState) *Session {
	return NewSession(id, s.orchestrator, state, s.logger,
		WithDeltaSource(s.delta),
		WithHooks(SessionHooks{
			OnCommit:  s.onCommit,
			OnFailure: s.onFailure,
			OnVoice:   s.onVoice,
		}),
	)
}

// onCommit runs while the session still holds its in-flight token, so
// snapshots reach the repository in commit order. Errors are logged only.
func (s *GameService) onCommit(ctx context.Context, t Transition) {
	log := s.logger.With(zap.String("sessionID", t.SessionID))

	if err := s.repo.Save(ctx, t.SessionID, t.Next); err != nil {
		log.Error("Failed to persist committed state", zap.Error(err))
	}

	if s.turns != nil {
		turn := &models.GameTurn{
			ID:               uuid.New(),
			SessionID:        t.SessionID,
			TurnNumber:       len(t.Next.History),
			Kind:             t.Kind,
			Action:           t.Action,
			Description:      t.Next.CurrentScene.Description,
			AgentPrompt:      t.Next.CurrentScene.AgentPrompt,
			SituationContext: t.Next.CurrentScene.SituationContext,
			Power:            t.Next.Power,
			Morale:           t.Next.Morale,
			Status:           t.Next.Status,
			CreatedAt:        time.Now().UTC(),
		}
		if url := t.Next.CurrentScene.ImageURL; url != "" {
			turn.ImageURL = &url
		}
		if err := s.turns.Append(ctx, turn); err != nil {
			log.Error("Failed to journal turn", zap.Int("turn", turn.TurnNumber), zap.Error(err))
		}
	}

	eventType := models.EventActionCommitted
	if t.Kind == models.TurnKindOpening {
		eventType = models.EventGameStarted
	}
	s.publish(ctx, t.Next, t.SessionID, eventType, nil)
	if t.Next.Status == models.StatusGameOver {
		s.publish(ctx, t.Next, t.SessionID, models.EventGameOver, nil)
	}

	if s.notifier != nil {
		s.notifier.NotifyState(t.SessionID, models.SessionView{
			SessionID: t.SessionID,
			Status:    t.Next.Status,
			State:     t.Next,
		})
	}
}

func (s *GameService) onFailure(ctx context.Context, f FailedTransition) {
	s.publish(ctx, f.State, f.SessionID, models.EventTransitionFailed, f.Err)
}

func (s *GameService) onVoice(sessionID, line string, audio []byte, format string) {
	if s.notifier != nil {
		s.notifier.NotifyVoice(sessionID, line, audio, format)
	}
}

func (s *GameService) publish(ctx context.Context, state *models.GameState, sessionID string, eventType models.GameEventType, cause error) {
	if s.publisher == nil {
		return
	}
	event := models.GameEvent{
		Type:      eventType,
		SessionID: sessionID,
		Status:    state.Status,
		Turn:      len(state.History),
		Power:     state.Power,
		Morale:    state.Morale,
		Timestamp: time.Now().UTC(),
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if err := s.publisher.PublishGameEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish game event",
			zap.String("sessionID", sessionID),
			zap.String("eventType", string(eventType)),
			zap.Error(err),
		)
	}
}
