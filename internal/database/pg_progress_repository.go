package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quickstory-server/internal/interfaces"
	"quickstory-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.ProgressRepository = (*pgProgressRepository)(nil)

// pgProgressRepository хранит прогресс в PostgreSQL: одна строка на игрока,
// карта открытых концовок - jsonb, списки - text[]. Upsert перезаписывает
// запись целиком (атомарная замена blob-а, как того требует контракт store).
type pgProgressRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPgProgressRepository creates a PostgreSQL-backed ProgressRepository.
func NewPgProgressRepository(pool *pgxpool.Pool, logger *zap.Logger) interfaces.ProgressRepository {
	return &pgProgressRepository{
		pool:   pool,
		logger: logger.Named("PgProgressRepo"),
	}
}

const getProgressQuery = `
SELECT completed_stories, unlocked_endings, achievements, total_play_time_seconds, schema_version
FROM user_progress
WHERE player_id = $1`

const upsertProgressQuery = `
INSERT INTO user_progress (player_id, completed_stories, unlocked_endings, achievements, total_play_time_seconds, schema_version, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (player_id) DO UPDATE SET
    completed_stories = EXCLUDED.completed_stories,
    unlocked_endings = EXCLUDED.unlocked_endings,
    achievements = EXCLUDED.achievements,
    total_play_time_seconds = EXCLUDED.total_play_time_seconds,
    schema_version = EXCLUDED.schema_version,
    updated_at = EXCLUDED.updated_at
`

// progressRow - структура строки для сканирования через scany.
type progressRow struct {
	CompletedStories     pq.StringArray `db:"completed_stories"`
	UnlockedEndings      []byte         `db:"unlocked_endings"`
	Achievements         pq.StringArray `db:"achievements"`
	TotalPlayTimeSeconds int64          `db:"total_play_time_seconds"`
	SchemaVersion        int            `db:"schema_version"`
}

func (r *pgProgressRepository) Get(ctx context.Context, playerID uuid.UUID) (*models.UserProgress, error) {
	logFields := []zap.Field{zap.Stringer("playerID", playerID)}

	var row progressRow
	err := pgxscan.Get(ctx, r.pool, &row, getProgressQuery, playerID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get player progress", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to get player progress: %w", err)
	}

	progress := models.NewUserProgress()
	progress.CompletedStories = []string(row.CompletedStories)
	progress.Achievements = []string(row.Achievements)
	progress.TotalPlayTimeSeconds = row.TotalPlayTimeSeconds
	if row.SchemaVersion > 0 {
		progress.SchemaVersion = row.SchemaVersion
	}

	if len(row.UnlockedEndings) > 0 {
		if err := json.Unmarshal(row.UnlockedEndings, &progress.UnlockedEndings); err != nil {
			// Битый jsonb: логируем и продолжаем с дефолтами, не падаем
			r.logger.Warn("Corrupt unlocked_endings payload, discarding record", append(logFields, zap.Error(err))...)
			return nil, models.ErrNotFound
		}
	}
	if progress.UnlockedEndings == nil {
		progress.UnlockedEndings = map[string][]string{}
	}

	r.logger.Debug("Retrieved player progress", logFields...)
	return progress, nil
}

func (r *pgProgressRepository) Save(ctx context.Context, playerID uuid.UUID, progress *models.UserProgress) error {
	logFields := []zap.Field{zap.Stringer("playerID", playerID)}

	endingsJSON, err := json.Marshal(progress.UnlockedEndings)
	if err != nil {
		r.logger.Error("Failed to marshal unlocked endings for upsert", append(logFields, zap.Error(err))...)
		return err
	}

	_, err = r.pool.Exec(ctx, upsertProgressQuery,
		playerID,
		pq.Array(progress.CompletedStories),
		endingsJSON,
		pq.Array(progress.Achievements),
		progress.TotalPlayTimeSeconds,
		progress.SchemaVersion,
		time.Now(),
	)
	if err != nil {
		r.logger.Error("Failed to upsert player progress", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to upsert player progress: %w", err)
	}

	r.logger.Debug("Upserted player progress", logFields...)
	return nil
}
