package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"motion-server/internal/models"
	"motion-server/internal/repository"
	"motion-server/internal/tools"
)

// Tool interfaces the executor dispatches to. Declared here so tests can
// substitute mocks for the real tools.
type AddTool interface {
	Run(ctx context.Context, input tools.AddInput) (*tools.AddResult, error)
}

type EditTool interface {
	Run(ctx context.Context, input tools.EditInput) (*tools.EditResult, error)
}

type DeleteTool interface {
	Run(ctx context.Context, input tools.DeleteInput) (*tools.DeleteResult, error)
}

type TrimTool interface {
	Run(ctx context.Context, input tools.TrimInput) (*tools.TrimResult, error)
}

// Executor is the only component with write access to scenes. Every operation
// follows the same shape: load prerequisite state, invoke the tool, persist
// the result and its iteration record in one transaction.
type Executor struct {
	db         repository.DBTX
	tx         repository.Tx
	scenes     repository.SceneRepository
	iterations repository.SceneIterationRepository
	addTool    AddTool
	editTool   EditTool
	deleteTool DeleteTool
	trimTool   TrimTool
	logger     *zap.Logger
}

// NewExecutor wires the executor.
func NewExecutor(
	db repository.DBTX,
	tx repository.Tx,
	scenes repository.SceneRepository,
	iterations repository.SceneIterationRepository,
	addTool AddTool,
	editTool EditTool,
	deleteTool DeleteTool,
	trimTool TrimTool,
	logger *zap.Logger,
) *Executor {
	return &Executor{
		db:         db,
		tx:         tx,
		scenes:     scenes,
		iterations: iterations,
		addTool:    addTool,
		editTool:   editTool,
		deleteTool: deleteTool,
		trimTool:   trimTool,
		logger:     logger.Named("Executor"),
	}
}

// ExecuteInput carries everything one dispatch needs beyond the decision.
type ExecuteInput struct {
	ProjectID  uuid.UUID
	UserPrompt string
	Decision   *models.Decision
	Packet     *models.ContextPacket
	UserCtx    models.UserContext
	MessageID  *uuid.UUID
}

// Execute dispatches a validated decision. Tool failures abort before any
// write; storage failures after a successful tool call surface as persistence
// errors with nothing partially written.
func (e *Executor) Execute(ctx context.Context, input ExecuteInput) (*models.Scene, error) {
	if input.Decision.NeedsClarification() {
		return nil, fmt.Errorf("%w: clarification decisions are not executable", models.ErrInvalidDecision)
	}

	start := time.Now()
	switch op := input.Decision.Op.(type) {
	case *models.AddScene:
		return e.executeAdd(ctx, input, op, start)
	case *models.EditScene:
		return e.executeEdit(ctx, input, op, start)
	case *models.DeleteScene:
		return e.executeDelete(ctx, input, op, start)
	case *models.TrimScene:
		return e.executeTrim(ctx, input, op, start)
	default:
		return nil, fmt.Errorf("%w: unknown operation %T", models.ErrInvalidDecision, input.Decision.Op)
	}
}

func (e *Executor) executeAdd(ctx context.Context, input ExecuteInput, op *models.AddScene, start time.Time) (*models.Scene, error) {
	result, err := e.addTool.Run(ctx, tools.AddInput{
		UserPrompt:      input.UserPrompt,
		ProjectID:       input.ProjectID,
		SceneNumber:     len(input.Packet.SceneHistory) + 1,
		StoryboardSoFar: input.Packet.SceneHistory,
		ReferenceScenes: referenceScenes(input.Packet, op.ReferencedSceneIDs),
		ImageURLs:       op.ImageURLs,
		VideoURLs:       op.VideoURLs,
		WebContext:      input.Packet.WebContext,
		ModelOverride:   input.UserCtx.ModelOverride,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrToolFailed, err)
	}

	scene := &models.Scene{
		ProjectID: input.ProjectID,
		Name:      result.Name,
		Code:      result.Code,
		Duration:  result.Duration,
	}

	err = e.tx.WithTransaction(ctx, func(ctx context.Context, tx repository.DBTX) error {
		count, err := e.scenes.CountByProject(ctx, tx, input.ProjectID)
		if err != nil {
			return err
		}
		scene.Order = count // append at the end of the timeline
		if err := e.scenes.Create(ctx, tx, scene); err != nil {
			return err
		}
		return e.iterations.Create(ctx, tx, &models.SceneIteration{
			SceneID:          scene.ID,
			ProjectID:        input.ProjectID,
			OperationType:    models.OperationCreate,
			UserPrompt:       input.UserPrompt,
			BrainReasoning:   input.Decision.Reasoning,
			ToolReasoning:    result.Reasoning,
			CodeAfter:        &result.Code,
			GenerationTimeMs: time.Since(start).Milliseconds(),
			ModelUsed:        strPtr(result.ModelUsed),
			TokensUsed:       intPtr(result.TokensUsed),
			MessageID:        input.MessageID,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	e.logger.Info("Scene added",
		zap.String("sceneID", scene.ID.String()),
		zap.Int("order", scene.Order),
		zap.Int64("generationTimeMs", time.Since(start).Milliseconds()))
	return scene, nil
}

func (e *Executor) executeEdit(ctx context.Context, input ExecuteInput, op *models.EditScene, start time.Time) (*models.Scene, error) {
	scene, err := e.scenes.GetByID(ctx, e.db, op.TargetSceneID)
	if err != nil {
		return nil, err
	}

	result, err := e.editTool.Run(ctx, tools.EditInput{
		UserPrompt:      input.UserPrompt,
		SceneID:         scene.ID,
		Code:            scene.Code,
		CurrentDuration: scene.Duration,
		ErrorContext:    op.ErrorContext,
		ReferenceScenes: referenceScenes(input.Packet, op.ReferencedSceneIDs),
		ImageURLs:       op.ImageURLs,
		VideoURLs:       op.VideoURLs,
		WebContext:      input.Packet.WebContext,
		ModelOverride:   input.UserCtx.ModelOverride,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrToolFailed, err)
	}
	if result.Code == "" {
		return nil, fmt.Errorf("%w: edit returned empty code", models.ErrToolFailed)
	}

	codeBefore := scene.Code
	newDuration := scene.Duration
	if result.Duration != nil {
		newDuration = *result.Duration
	}

	err = e.tx.WithTransaction(ctx, func(ctx context.Context, tx repository.DBTX) error {
		if err := e.iterations.MarkUserEditedAgain(ctx, tx, scene.ID); err != nil {
			return err
		}
		if err := e.scenes.UpdateCode(ctx, tx, scene.ID, result.Code, newDuration); err != nil {
			return err
		}
		return e.iterations.Create(ctx, tx, &models.SceneIteration{
			SceneID:          scene.ID,
			ProjectID:        input.ProjectID,
			OperationType:    models.OperationEdit,
			UserPrompt:       input.UserPrompt,
			BrainReasoning:   input.Decision.Reasoning,
			ToolReasoning:    result.Reasoning,
			CodeBefore:       &codeBefore,
			CodeAfter:        &result.Code,
			ChangesApplied:   marshalChanges(result.Changes),
			GenerationTimeMs: time.Since(start).Milliseconds(),
			ModelUsed:        strPtr(result.ModelUsed),
			TokensUsed:       intPtr(result.TokensUsed),
			MessageID:        input.MessageID,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	scene.Code = result.Code
	scene.Duration = newDuration
	e.logger.Info("Scene edited",
		zap.String("sceneID", scene.ID.String()),
		zap.Int64("generationTimeMs", time.Since(start).Milliseconds()))
	return scene, nil
}

func (e *Executor) executeDelete(ctx context.Context, input ExecuteInput, op *models.DeleteScene, start time.Time) (*models.Scene, error) {
	// Fetched first so the iteration record can keep the deleted code.
	scene, err := e.scenes.GetByID(ctx, e.db, op.TargetSceneID)
	if err != nil {
		return nil, err
	}

	result, err := e.deleteTool.Run(ctx, tools.DeleteInput{
		UserPrompt: input.UserPrompt,
		SceneID:    scene.ID,
		SceneName:  scene.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrToolFailed, err)
	}

	codeBefore := scene.Code
	err = e.tx.WithTransaction(ctx, func(ctx context.Context, tx repository.DBTX) error {
		// Remaining scenes keep their order values; gaps are expected.
		if err := e.scenes.Delete(ctx, tx, scene.ID); err != nil {
			return err
		}
		return e.iterations.Create(ctx, tx, &models.SceneIteration{
			SceneID:          scene.ID,
			ProjectID:        input.ProjectID,
			OperationType:    models.OperationDelete,
			UserPrompt:       input.UserPrompt,
			BrainReasoning:   input.Decision.Reasoning,
			ToolReasoning:    result.Reasoning,
			CodeBefore:       &codeBefore,
			GenerationTimeMs: time.Since(start).Milliseconds(),
			MessageID:        input.MessageID,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	e.logger.Info("Scene deleted", zap.String("sceneID", scene.ID.String()))
	return scene, nil
}

func (e *Executor) executeTrim(ctx context.Context, input ExecuteInput, op *models.TrimScene, start time.Time) (*models.Scene, error) {
	scene, err := e.scenes.GetByID(ctx, e.db, op.TargetSceneID)
	if err != nil {
		return nil, err
	}

	result, err := e.trimTool.Run(ctx, tools.TrimInput{
		SceneID:         scene.ID,
		CurrentDuration: scene.Duration,
		NewDuration:     op.TargetDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrToolFailed, err)
	}

	// Trims are recorded as edits with identical before/after code.
	code := scene.Code
	err = e.tx.WithTransaction(ctx, func(ctx context.Context, tx repository.DBTX) error {
		if err := e.scenes.UpdateDuration(ctx, tx, scene.ID, result.Duration); err != nil {
			return err
		}
		return e.iterations.Create(ctx, tx, &models.SceneIteration{
			SceneID:          scene.ID,
			ProjectID:        input.ProjectID,
			OperationType:    models.OperationEdit,
			UserPrompt:       input.UserPrompt,
			BrainReasoning:   input.Decision.Reasoning,
			ToolReasoning:    result.Reasoning,
			CodeBefore:       &code,
			CodeAfter:        &code,
			GenerationTimeMs: time.Since(start).Milliseconds(),
			MessageID:        input.MessageID,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	scene.Duration = result.Duration
	e.logger.Info("Scene trimmed",
		zap.String("sceneID", scene.ID.String()),
		zap.Int("duration", result.Duration))
	return scene, nil
}

// referenceScenes resolves style-borrowing references against the packet.
func referenceScenes(packet *models.ContextPacket, ids []uuid.UUID) []models.SceneContext {
	var refs []models.SceneContext
	for _, id := range ids {
		if scene := packet.FindScene(id); scene != nil {
			refs = append(refs, *scene)
		}
	}
	return refs
}

func marshalChanges(changes []string) json.RawMessage {
	if len(changes) == 0 {
		return nil
	}
	data, err := json.Marshal(changes)
	if err != nil {
		return nil
	}
	return data
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func intPtr(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
