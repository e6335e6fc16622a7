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
var _ SceneIterationRepository = (*pgSceneIterationRepository)(nil)

type pgSceneIterationRepository struct {
	logger *zap.Logger
}

func NewPgSceneIterationRepository(logger *zap.Logger) SceneIterationRepository {
	return &pgSceneIterationRepository{logger: logger.Named("PgSceneIterationRepo")}
}

const createIterationQuery = `
INSERT INTO scene_iterations (
	id, scene_id, project_id, operation_type, user_prompt, brain_reasoning,
	tool_reasoning, code_before, code_after, changes_applied, generation_time_ms,
	model_used, tokens_used, message_id, change_source, user_edited_again, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

const getIterationByIDQuery = `
SELECT id, scene_id, project_id, operation_type, user_prompt, brain_reasoning,
	tool_reasoning, code_before, code_after, changes_applied, generation_time_ms,
	model_used, tokens_used, message_id, change_source, user_edited_again, created_at
FROM scene_iterations
WHERE id = $1`

const listIterationsBySceneQuery = `
SELECT id, scene_id, project_id, operation_type, user_prompt, brain_reasoning,
	tool_reasoning, code_before, code_after, changes_applied, generation_time_ms,
	model_used, tokens_used, message_id, change_source, user_edited_again, created_at
FROM scene_iterations
WHERE scene_id = $1
ORDER BY created_at DESC`

const markUserEditedAgainQuery = `
UPDATE scene_iterations SET user_edited_again = TRUE
WHERE scene_id = $1 AND user_edited_again = FALSE`

// Create appends an iteration record. Iterations are never updated or deleted
// apart from the user_edited_again flag.
func (r *pgSceneIterationRepository) Create(ctx context.Context, querier DBTX, iteration *models.SceneIteration) error {
	if iteration.ID == uuid.Nil {
		iteration.ID = uuid.New()
	}
	if iteration.CreatedAt.IsZero() {
		iteration.CreatedAt = time.Now()
	}
	if iteration.ChangeSource == "" {
		iteration.ChangeSource = models.ChangeSourceLLM
	}

	_, err := querier.Exec(ctx, createIterationQuery,
		iteration.ID,
		iteration.SceneID,
		iteration.ProjectID,
		iteration.OperationType,
		iteration.UserPrompt,
		iteration.BrainReasoning,
		iteration.ToolReasoning,
		iteration.CodeBefore,
		iteration.CodeAfter,
		iteration.ChangesApplied,
		iteration.GenerationTimeMs,
		iteration.ModelUsed,
		iteration.TokensUsed,
		iteration.MessageID,
		iteration.ChangeSource,
		iteration.UserEditedAgain,
		iteration.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create scene iteration", zap.Error(err), zap.String("sceneID", iteration.SceneID.String()))
		return fmt.Errorf("failed to create scene iteration: %w", err)
	}
	r.logger.Debug("Scene iteration recorded",
		zap.String("iterationID", iteration.ID.String()),
		zap.String("operation", string(iteration.OperationType)))
	return nil
}

// GetByID retrieves an iteration by its unique ID.
func (r *pgSceneIterationRepository) GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.SceneIteration, error) {
	iteration := &models.SceneIteration{}
	err := scanIteration(querier.QueryRow(ctx, getIterationByIDQuery, id), iteration)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Scene iteration not found", zap.String("iterationID", id.String()))
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get scene iteration", zap.Error(err), zap.String("iterationID", id.String()))
		return nil, fmt.Errorf("failed to get scene iteration %s: %w", id, err)
	}
	return iteration, nil
}

// ListBySceneID returns the scene's audit trail, newest first.
func (r *pgSceneIterationRepository) ListBySceneID(ctx context.Context, querier DBTX, sceneID uuid.UUID) ([]models.SceneIteration, error) {
	rows, err := querier.Query(ctx, listIterationsBySceneQuery, sceneID)
	if err != nil {
		r.logger.Error("Failed to list scene iterations", zap.Error(err), zap.String("sceneID", sceneID.String()))
		return nil, fmt.Errorf("failed to list iterations for scene %s: %w", sceneID, err)
	}
	defer rows.Close()

	var iterations []models.SceneIteration
	for rows.Next() {
		var iteration models.SceneIteration
		if err := scanIteration(rows, &iteration); err != nil {
			return nil, fmt.Errorf("failed to scan iteration row: %w", err)
		}
		iterations = append(iterations, iteration)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading iteration rows: %w", err)
	}
	return iterations, nil
}

// MarkUserEditedAgain flags a scene's prior iterations as superseded.
func (r *pgSceneIterationRepository) MarkUserEditedAgain(ctx context.Context, querier DBTX, sceneID uuid.UUID) error {
	if _, err := querier.Exec(ctx, markUserEditedAgainQuery, sceneID); err != nil {
		r.logger.Error("Failed to mark iterations as superseded", zap.Error(err), zap.String("sceneID", sceneID.String()))
		return fmt.Errorf("failed to mark iterations of scene %s: %w", sceneID, err)
	}
	return nil
}

func scanIteration(row pgx.Row, iteration *models.SceneIteration) error {
	return row.Scan(
		&iteration.ID,
		&iteration.SceneID,
		&iteration.ProjectID,
		&iteration.OperationType,
		&iteration.UserPrompt,
		&iteration.BrainReasoning,
		&iteration.ToolReasoning,
		&iteration.CodeBefore,
		&iteration.CodeAfter,
		&iteration.ChangesApplied,
		&iteration.GenerationTimeMs,
		&iteration.ModelUsed,
		&iteration.TokensUsed,
		&iteration.MessageID,
		&iteration.ChangeSource,
		&iteration.UserEditedAgain,
		&iteration.CreatedAt,
	)
}
