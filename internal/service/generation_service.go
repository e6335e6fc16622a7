package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"motion-server/internal/models"
	"motion-server/internal/repository"
)

// GenerateRequest is one user instruction plus everything the caller knows
// about its conversational context.
type GenerateRequest struct {
	ProjectID   uuid.UUID
	UserID      uuid.UUID
	UserMessage string
	ChatHistory []models.ChatMessage
	UserCtx     models.UserContext
	MessageID   *uuid.UUID
}

// GenerateResult is the outcome of one instruction: either an executed
// mutation with the resulting scene, or a clarification question. Exactly one
// of the two is populated.
type GenerateResult struct {
	Scene                 *models.Scene
	Operation             models.ToolName
	ClarificationQuestion string
	UserFeedback          string
	Reasoning             string
}

// NeedsClarification reports whether the request ended in a question instead
// of a mutation.
func (r *GenerateResult) NeedsClarification() bool {
	return r.ClarificationQuestion != ""
}

// GenerationService is the decision-and-execution entry point: one free-text
// instruction in, exactly one typed mutation (or clarification) out.
type GenerationService struct {
	builder    *ContextBuilder
	brain      *Brain
	executor   *Executor
	db         repository.DBTX
	tx         repository.Tx
	scenes     repository.SceneRepository
	iterations repository.SceneIterationRepository
	logger     *zap.Logger
}

// NewGenerationService wires the service.
func NewGenerationService(
	builder *ContextBuilder,
	brain *Brain,
	executor *Executor,
	db repository.DBTX,
	tx repository.Tx,
	scenes repository.SceneRepository,
	iterations repository.SceneIterationRepository,
	logger *zap.Logger,
) *GenerationService {
	return &GenerationService{
		builder:    builder,
		brain:      brain,
		executor:   executor,
		db:         db,
		tx:         tx,
		scenes:     scenes,
		iterations: iterations,
		logger:     logger.Named("GenerationService"),
	}
}

// Generate processes one instruction end to end: context assembly, decision,
// dispatch. Clarification is a valid terminal state, not an error.
func (s *GenerationService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	log := s.logger.With(
		zap.String("projectID", req.ProjectID.String()),
		zap.String("userID", req.UserID.String()))
	log.Info("Processing instruction", zap.Int("promptLength", len(req.UserMessage)))

	packet := s.builder.Build(ctx, req.ProjectID, req.UserMessage, req.ChatHistory, req.UserCtx)

	decision, err := s.brain.Decide(ctx, packet, req.UserMessage, req.UserCtx)
	if err != nil {
		return nil, err
	}

	if decision.NeedsClarification() {
		log.Info("Clarification requested")
		return &GenerateResult{
			ClarificationQuestion: decision.ClarificationQuestion,
			UserFeedback:          decision.UserFeedback,
			Reasoning:             decision.Reasoning,
		}, nil
	}

	scene, err := s.executor.Execute(ctx, ExecuteInput{
		ProjectID:  req.ProjectID,
		UserPrompt: req.UserMessage,
		Decision:   decision,
		Packet:     packet,
		UserCtx:    req.UserCtx,
		MessageID:  req.MessageID,
	})
	if err != nil {
		return nil, err
	}

	return &GenerateResult{
		Scene:        scene,
		Operation:    decision.Op.Tool(),
		UserFeedback: decision.UserFeedback,
		Reasoning:    decision.Reasoning,
	}, nil
}

// ListScenes returns the project's storyboard in timeline order.
func (s *GenerationService) ListScenes(ctx context.Context, projectID uuid.UUID) ([]models.Scene, error) {
	return s.scenes.ListByProject(ctx, s.db, projectID)
}

// ListIterations returns a scene's audit trail, newest first.
func (s *GenerationService) ListIterations(ctx context.Context, sceneID uuid.UUID) ([]models.SceneIteration, error) {
	return s.iterations.ListBySceneID(ctx, s.db, sceneID)
}

// RevertScene restores the state a given iteration captured before it ran:
// the scene's code goes back to that iteration's CodeBefore, or the scene is
// removed entirely when the iteration created it. The revert itself is
// recorded as a new iteration.
func (s *GenerationService) RevertScene(ctx context.Context, sceneID, iterationID uuid.UUID) (*models.Scene, error) {
	iteration, err := s.iterations.GetByID(ctx, s.db, iterationID)
	if err != nil {
		return nil, err
	}
	if iteration.SceneID != sceneID {
		return nil, fmt.Errorf("%w: iteration %s does not belong to scene %s", models.ErrNotFound, iterationID, sceneID)
	}

	scene, err := s.scenes.GetByID(ctx, s.db, sceneID)
	if err != nil {
		return nil, err
	}

	if iteration.OperationType == models.OperationCreate {
		// Reverting the creation removes the scene.
		code := scene.Code
		err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx repository.DBTX) error {
			if err := s.scenes.Delete(ctx, tx, sceneID); err != nil {
				return err
			}
			return s.iterations.Create(ctx, tx, &models.SceneIteration{
				SceneID:        sceneID,
				ProjectID:      scene.ProjectID,
				OperationType:  models.OperationDelete,
				UserPrompt:     fmt.Sprintf("Revert to before iteration %s", iterationID),
				BrainReasoning: "User reverted the scene's creation",
				CodeBefore:     &code,
				ChangeSource:   models.ChangeSourceRevert,
			})
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
		}
		s.logger.Info("Scene creation reverted", zap.String("sceneID", sceneID.String()))
		return scene, nil
	}

	if iteration.CodeBefore == nil {
		return nil, fmt.Errorf("%w: iteration %s has no prior code to restore", models.ErrInvalidDecision, iterationID)
	}

	restored := *iteration.CodeBefore
	current := scene.Code
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx repository.DBTX) error {
		if err := s.scenes.UpdateCode(ctx, tx, sceneID, restored, scene.Duration); err != nil {
			return err
		}
		return s.iterations.Create(ctx, tx, &models.SceneIteration{
			SceneID:        sceneID,
			ProjectID:      scene.ProjectID,
			OperationType:  models.OperationEdit,
			UserPrompt:     fmt.Sprintf("Revert to before iteration %s", iterationID),
			BrainReasoning: "User reverted to a previous version",
			CodeBefore:     &current,
			CodeAfter:      &restored,
			ChangeSource:   models.ChangeSourceRevert,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	scene.Code = restored
	s.logger.Info("Scene reverted", zap.String("sceneID", sceneID.String()), zap.String("iterationID", iterationID.String()))
	return scene, nil
}
