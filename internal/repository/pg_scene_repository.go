package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"motion-server/internal/models"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ SceneRepository = (*pgSceneRepository)(nil)

type pgSceneRepository struct {
	logger *zap.Logger
}

func NewPgSceneRepository(logger *zap.Logger) SceneRepository {
	return &pgSceneRepository{logger: logger.Named("PgSceneRepo")}
}

const createSceneQuery = `
INSERT INTO scenes (id, project_id, scene_order, name, code, duration, props, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const getSceneByIDQuery = `
SELECT id, project_id, scene_order, name, code, duration, props, created_at, updated_at
FROM scenes
WHERE id = $1`

const listScenesByProjectQuery = `
SELECT id, project_id, scene_order, name, code, duration, props, created_at, updated_at
FROM scenes
WHERE project_id = $1
ORDER BY scene_order ASC`

const countScenesByProjectQuery = `
SELECT COUNT(*) FROM scenes WHERE project_id = $1`

const updateSceneCodeQuery = `
UPDATE scenes SET code = $2, duration = $3, updated_at = $4 WHERE id = $1`

const updateSceneDurationQuery = `
UPDATE scenes SET duration = $2, updated_at = $3 WHERE id = $1`

const deleteSceneQuery = `
DELETE FROM scenes WHERE id = $1`

// Create inserts a new scene record.
func (r *pgSceneRepository) Create(ctx context.Context, querier DBTX, scene *models.Scene) error {
	if scene.ID == uuid.Nil {
		scene.ID = uuid.New()
	}
	now := time.Now()
	if scene.CreatedAt.IsZero() {
		scene.CreatedAt = now
	}
	scene.UpdatedAt = now

	_, err := querier.Exec(ctx, createSceneQuery,
		scene.ID,
		scene.ProjectID,
		scene.Order,
		scene.Name,
		scene.Code,
		scene.Duration,
		scene.Props,
		scene.CreatedAt,
		scene.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create scene", zap.Error(err), zap.String("projectID", scene.ProjectID.String()))
		return fmt.Errorf("failed to create scene: %w", err)
	}
	r.logger.Info("Scene created", zap.String("sceneID", scene.ID.String()), zap.Int("order", scene.Order))
	return nil
}

// GetByID retrieves a scene by its unique ID.
func (r *pgSceneRepository) GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.Scene, error) {
	scene := &models.Scene{}
	err := querier.QueryRow(ctx, getSceneByIDQuery, id).Scan(
		&scene.ID,
		&scene.ProjectID,
		&scene.Order,
		&scene.Name,
		&scene.Code,
		&scene.Duration,
		&scene.Props,
		&scene.CreatedAt,
		&scene.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Scene not found", zap.String("sceneID", id.String()))
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get scene by ID", zap.Error(err), zap.String("sceneID", id.String()))
		return nil, fmt.Errorf("failed to get scene %s: %w", id, err)
	}
	return scene, nil
}

// ListByProject returns the project's storyboard in timeline order.
func (r *pgSceneRepository) ListByProject(ctx context.Context, querier DBTX, projectID uuid.UUID) ([]models.Scene, error) {
	rows, err := querier.Query(ctx, listScenesByProjectQuery, projectID)
	if err != nil {
		r.logger.Error("Failed to list scenes", zap.Error(err), zap.String("projectID", projectID.String()))
		return nil, fmt.Errorf("failed to list scenes for project %s: %w", projectID, err)
	}
	defer rows.Close()

	var scenes []models.Scene
	for rows.Next() {
		var scene models.Scene
		if err := rows.Scan(
			&scene.ID,
			&scene.ProjectID,
			&scene.Order,
			&scene.Name,
			&scene.Code,
			&scene.Duration,
			&scene.Props,
			&scene.CreatedAt,
			&scene.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan scene row: %w", err)
		}
		scenes = append(scenes, scene)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading scene rows: %w", err)
	}
	return scenes, nil
}

// CountByProject returns the number of scenes in the project.
func (r *pgSceneRepository) CountByProject(ctx context.Context, querier DBTX, projectID uuid.UUID) (int, error) {
	var count int
	if err := querier.QueryRow(ctx, countScenesByProjectQuery, projectID).Scan(&count); err != nil {
		r.logger.Error("Failed to count scenes", zap.Error(err), zap.String("projectID", projectID.String()))
		return 0, fmt.Errorf("failed to count scenes for project %s: %w", projectID, err)
	}
	return count, nil
}

// UpdateCode replaces a scene's code and duration.
func (r *pgSceneRepository) UpdateCode(ctx context.Context, querier DBTX, id uuid.UUID, code string, duration int) error {
	tag, err := querier.Exec(ctx, updateSceneCodeQuery, id, code, duration, time.Now())
	if err != nil {
		r.logger.Error("Failed to update scene code", zap.Error(err), zap.String("sceneID", id.String()))
		return fmt.Errorf("failed to update scene %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateDuration changes only the scene's duration.
func (r *pgSceneRepository) UpdateDuration(ctx context.Context, querier DBTX, id uuid.UUID, duration int) error {
	tag, err := querier.Exec(ctx, updateSceneDurationQuery, id, duration, time.Now())
	if err != nil {
		r.logger.Error("Failed to update scene duration", zap.Error(err), zap.String("sceneID", id.String()))
		return fmt.Errorf("failed to update duration of scene %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes the scene row. Remaining scenes keep their order values.
func (r *pgSceneRepository) Delete(ctx context.Context, querier DBTX, id uuid.UUID) error {
	tag, err := querier.Exec(ctx, deleteSceneQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete scene", zap.Error(err), zap.String("sceneID", id.String()))
		return fmt.Errorf("failed to delete scene %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	r.logger.Info("Scene deleted", zap.String("sceneID", id.String()))
	return nil
}
