package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"motion-server/internal/models"
)

// DBTX is the querier both a pgxpool.Pool and a pgx.Tx satisfy. Repositories
// take it per call so the executor can run multi-row writes in one
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SceneRepository is the storage interface for storyboard scenes.
type SceneRepository interface {
	// Create inserts a new scene. A nil ID is assigned.
	Create(ctx context.Context, querier DBTX, scene *models.Scene) error

	// GetByID returns models.ErrNotFound when the scene does not exist.
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Scene, error)

	// ListByProject returns the project's scenes ordered by their timeline
	// position. Order values are preserved as stored; deletion gaps are
	// expected.
	ListByProject(ctx context.Context, querier DBTX, projectID uuid.UUID) ([]models.Scene, error)

	// CountByProject returns the number of scenes in the project.
	CountByProject(ctx context.Context, querier DBTX, projectID uuid.UUID) (int, error)

	// UpdateCode replaces a scene's code and duration.
	UpdateCode(ctx context.Context, querier DBTX, id uuid.UUID, code string, duration int) error

	// UpdateDuration changes only the duration, leaving code untouched.
	UpdateDuration(ctx context.Context, querier DBTX, id uuid.UUID, duration int) error

	// Delete removes the scene row. Iteration records are kept.
	Delete(ctx context.Context, querier DBTX, id uuid.UUID) error
}

// SceneIterationRepository is the storage interface for the append-only
// mutation audit trail.
type SceneIterationRepository interface {
	// Create appends an iteration record.
	Create(ctx context.Context, querier DBTX, iteration *models.SceneIteration) error

	// GetByID returns models.ErrNotFound when the iteration does not exist.
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.SceneIteration, error)

	// ListBySceneID returns a scene's iterations, newest first.
	ListBySceneID(ctx context.Context, querier DBTX, sceneID uuid.UUID) ([]models.SceneIteration, error)

	// MarkUserEditedAgain flags the scene's existing iterations once a newer
	// mutation supersedes them.
	MarkUserEditedAgain(ctx context.Context, querier DBTX, sceneID uuid.UUID) error
}
