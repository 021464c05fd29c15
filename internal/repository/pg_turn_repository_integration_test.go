package repository

import (
	"context"
	"testing"
	"time"

	"blackscar-server/internal/interfaces"
	"blackscar-server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// TurnRepositoryIntegrationSuite поднимает PostgreSQL в контейнере и применяет миграции.
type TurnRepositoryIntegrationSuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	pool        *pgxpool.Pool
	repo        interfaces.TurnRepository
	logger      *zap.Logger
}

func (s *TurnRepositoryIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = zap.NewNop()
	var err error

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	pgConnStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	require.NoError(s.T(), ApplyMigrations(pgConnStr, s.logger))
	// Повторный запуск не должен падать (ErrNoChange)
	require.NoError(s.T(), ApplyMigrations(pgConnStr, s.logger))

	s.pool, err = pgxpool.New(s.ctx, pgConnStr)
	require.NoError(s.T(), err)
	s.repo = NewPgTurnRepository(s.pool, s.logger)
}

func (s *TurnRepositoryIntegrationSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.pgContainer != nil {
		require.NoError(s.T(), s.pgContainer.Terminate(s.ctx))
	}
}

func (s *TurnRepositoryIntegrationSuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, "TRUNCATE game_turns")
	require.NoError(s.T(), err)
}

func newTurn(sessionID string, number int, imageURL *string) *models.GameTurn {
	kind := models.TurnKindAction
	if number == 0 {
		kind = models.TurnKindOpening
	}
	return &models.GameTurn{
		ID:               uuid.New(),
		SessionID:        sessionID,
		TurnNumber:       number,
		Kind:             kind,
		Action:           "act",
		Description:      "D",
		AgentPrompt:      "P",
		ImageURL:         imageURL,
		SituationContext: "C",
		Power:            42.5,
		Morale:           57,
		Status:           models.StatusInGame,
		CreatedAt:        time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *TurnRepositoryIntegrationSuite) TestAppendAndList() {
	url := "/images/x.png"
	second := newTurn("s-1", 1, nil)
	first := newTurn("s-1", 0, &url)

	require.NoError(s.T(), s.repo.Append(s.ctx, second))
	require.NoError(s.T(), s.repo.Append(s.ctx, first))
	require.NoError(s.T(), s.repo.Append(s.ctx, newTurn("s-2", 0, nil)))

	turns, err := s.repo.ListBySession(s.ctx, "s-1")
	require.NoError(s.T(), err)
	require.Len(s.T(), turns, 2)

	s.Equal(0, turns[0].TurnNumber)
	s.Equal(models.TurnKindOpening, turns[0].Kind)
	s.Require().NotNil(turns[0].ImageURL)
	s.Equal(url, *turns[0].ImageURL)
	s.Nil(turns[1].ImageURL)
	s.Equal(42.5, turns[1].Power)
	s.True(first.CreatedAt.Equal(turns[0].CreatedAt))
}

func (s *TurnRepositoryIntegrationSuite) TestDuplicateTurnNumberRejected() {
	require.NoError(s.T(), s.repo.Append(s.ctx, newTurn("s-1", 1, nil)))
	s.Error(s.repo.Append(s.ctx, newTurn("s-1", 1, nil)))
}

func (s *TurnRepositoryIntegrationSuite) TestEmptyJournal() {
	turns, err := s.repo.ListBySession(s.ctx, "nobody")
	require.NoError(s.T(), err)
	s.Empty(turns)
}

func TestTurnRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(TurnRepositoryIntegrationSuite))
}
