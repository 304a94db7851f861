package database_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"quickstory-server/internal/database"
	"quickstory-server/internal/interfaces"
	"quickstory-server/internal/models"

	"github.com/docker/docker/client"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// ProgressRepositorySuite гоняет один и тот же контракт ProgressRepository
// по всем реальным бэкендам (PostgreSQL, Redis) в testcontainers.
type ProgressRepositorySuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	rdContainer *tcredis.RedisContainer
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	logger      *zap.Logger
}

func (s *ProgressRepositorySuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.logger, err = zap.NewDevelopment()
	require.NoError(s.T(), err, "Failed to create logger for tests")

	// Запускаем контейнер PostgreSQL
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	pgConnStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get postgres connection string")

	s.pgPool, err = pgxpool.New(s.ctx, pgConnStr)
	require.NoError(s.T(), err, "Failed to connect to test postgres")

	// Миграции применяются из embed, как и в продакшен-запуске
	require.NoError(s.T(), database.ApplyMigrations(s.pgPool), "Failed to run migrations")

	// Запускаем контейнер Redis
	s.rdContainer, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(1*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")

	redisHost, err := s.rdContainer.Host(s.ctx)
	require.NoError(s.T(), err)
	redisPort, err := s.rdContainer.MappedPort(s.ctx, "6379/tcp")
	require.NoError(s.T(), err)

	s.redisClient = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", redisHost, redisPort.Port())})
	_, err = s.redisClient.Ping(s.ctx).Result()
	require.NoError(s.T(), err, "Failed to connect to test redis")
}

func (s *ProgressRepositorySuite) TearDownSuite() {
	if s.pgPool != nil {
		s.pgPool.Close()
	}
	if s.redisClient != nil {
		s.redisClient.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Error("Failed to terminate postgres container", zap.Error(err))
		}
	}
	if s.rdContainer != nil {
		if err := s.rdContainer.Terminate(s.ctx); err != nil {
			s.logger.Error("Failed to terminate redis container", zap.Error(err))
		}
	}
}

func (s *ProgressRepositorySuite) SetupTest() {
	require.NoError(s.T(), s.redisClient.FlushDB(s.ctx).Err(), "Failed to flush Redis DB")
	_, err := s.pgPool.Exec(s.ctx, "TRUNCATE TABLE user_progress")
	require.NoError(s.T(), err, "Failed to truncate user_progress table")
}

// repositories возвращает все бэкенды, обязанные вести себя одинаково.
func (s *ProgressRepositorySuite) repositories() map[string]interfaces.ProgressRepository {
	return map[string]interfaces.ProgressRepository{
		"postgres": database.NewPgProgressRepository(s.pgPool, s.logger),
		"redis":    database.NewRedisProgressRepository(s.redisClient, s.logger),
	}
}

func (s *ProgressRepositorySuite) TestGetMissingReturnsNotFound() {
	for name, repo := range s.repositories() {
		s.Run(name, func() {
			_, err := repo.Get(s.ctx, uuid.New())
			s.ErrorIs(err, models.ErrNotFound)
		})
	}
}

func (s *ProgressRepositorySuite) TestSaveThenGetRoundTrip() {
	for name, repo := range s.repositories() {
		s.Run(name, func() {
			playerID := uuid.New()
			progress := models.NewUserProgress()
			progress.UnlockEnding("shadows-choice", "ending-1")
			progress.UnlockEnding("shadows-choice", "ending-3")
			progress.MarkCompleted("shadows-choice")
			progress.GrantAchievement(models.AchievementExplorer)
			progress.TotalPlayTimeSeconds = 123

			s.Require().NoError(repo.Save(s.ctx, playerID, progress))

			loaded, err := repo.Get(s.ctx, playerID)
			s.Require().NoError(err)
			s.Equal(progress.CompletedStories, loaded.CompletedStories)
			s.Equal(progress.UnlockedEndings, loaded.UnlockedEndings)
			s.Equal(progress.Achievements, loaded.Achievements)
			s.Equal(progress.TotalPlayTimeSeconds, loaded.TotalPlayTimeSeconds)
			s.Equal(models.UserProgressSchemaVersion, loaded.SchemaVersion)
		})
	}
}

func (s *ProgressRepositorySuite) TestSaveOverwritesWholeRecord() {
	for name, repo := range s.repositories() {
		s.Run(name, func() {
			playerID := uuid.New()

			first := models.NewUserProgress()
			first.UnlockEnding("shadows-choice", "ending-1")
			s.Require().NoError(repo.Save(s.ctx, playerID, first))

			second := models.NewUserProgress()
			second.UnlockEnding("shadows-choice", "ending-1")
			second.UnlockEnding("shadows-choice", "ending-2")
			second.MarkCompleted("shadows-choice")
			second.TotalPlayTimeSeconds = 60
			s.Require().NoError(repo.Save(s.ctx, playerID, second))

			loaded, err := repo.Get(s.ctx, playerID)
			s.Require().NoError(err)
			s.Len(loaded.UnlockedEndings["shadows-choice"], 2)
			s.Equal(int64(60), loaded.TotalPlayTimeSeconds)
		})
	}
}

func (s *ProgressRepositorySuite) TestCorruptPayloadIsDiscarded() {
	// Битые данные в redis читаются как отсутствующая запись
	playerID := uuid.New()
	key := fmt.Sprintf("user_progress:%s", playerID)
	s.Require().NoError(s.redisClient.Set(s.ctx, key, "{not json", 0).Err())

	repo := database.NewRedisProgressRepository(s.redisClient, s.logger)
	_, err := repo.Get(s.ctx, playerID)
	s.ErrorIs(err, models.ErrNotFound)
}

func TestProgressRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	// Проверяем доступность Docker перед запуском
	cli, err := client.NewClientWithOpts(client.FromEnv)
	if err != nil {
		t.Skipf("Docker client init error: %v. Ensure Docker is running and accessible.", err)
	}
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Skipf("Docker daemon is not running or accessible: %v", err)
	}
	cli.Close()

	suite.Run(t, new(ProgressRepositorySuite))
}
