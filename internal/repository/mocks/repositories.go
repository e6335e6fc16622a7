package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"motion-server/internal/models"
	"motion-server/internal/repository"
)

// SceneRepository is a testify mock of repository.SceneRepository.
type SceneRepository struct {
	mock.Mock
}

func (m *SceneRepository) Create(ctx context.Context, querier repository.DBTX, scene *models.Scene) error {
	args := m.Called(ctx, querier, scene)
	return args.Error(0)
}

func (m *SceneRepository) GetByID(ctx context.Context, querier repository.DBTX, id uuid.UUID) (*models.Scene, error) {
	args := m.Called(ctx, querier, id)
	if scene, ok := args.Get(0).(*models.Scene); ok {
		return scene, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SceneRepository) ListByProject(ctx context.Context, querier repository.DBTX, projectID uuid.UUID) ([]models.Scene, error) {
	args := m.Called(ctx, querier, projectID)
	if scenes, ok := args.Get(0).([]models.Scene); ok {
		return scenes, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SceneRepository) CountByProject(ctx context.Context, querier repository.DBTX, projectID uuid.UUID) (int, error) {
	args := m.Called(ctx, querier, projectID)
	return args.Int(0), args.Error(1)
}

func (m *SceneRepository) UpdateCode(ctx context.Context, querier repository.DBTX, id uuid.UUID, code string, duration int) error {
	args := m.Called(ctx, querier, id, code, duration)
	return args.Error(0)
}

func (m *SceneRepository) UpdateDuration(ctx context.Context, querier repository.DBTX, id uuid.UUID, duration int) error {
	args := m.Called(ctx, querier, id, duration)
	return args.Error(0)
}

func (m *SceneRepository) Delete(ctx context.Context, querier repository.DBTX, id uuid.UUID) error {
	args := m.Called(ctx, querier, id)
	return args.Error(0)
}

// SceneIterationRepository is a testify mock of
// repository.SceneIterationRepository.
type SceneIterationRepository struct {
	mock.Mock
}

func (m *SceneIterationRepository) Create(ctx context.Context, querier repository.DBTX, iteration *models.SceneIteration) error {
	args := m.Called(ctx, querier, iteration)
	return args.Error(0)
}

func (m *SceneIterationRepository) GetByID(ctx context.Context, querier repository.DBTX, id uuid.UUID) (*models.SceneIteration, error) {
	args := m.Called(ctx, querier, id)
	if iteration, ok := args.Get(0).(*models.SceneIteration); ok {
		return iteration, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SceneIterationRepository) ListBySceneID(ctx context.Context, querier repository.DBTX, sceneID uuid.UUID) ([]models.SceneIteration, error) {
	args := m.Called(ctx, querier, sceneID)
	if iterations, ok := args.Get(0).([]models.SceneIteration); ok {
		return iterations, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SceneIterationRepository) MarkUserEditedAgain(ctx context.Context, querier repository.DBTX, sceneID uuid.UUID) error {
	args := m.Called(ctx, querier, sceneID)
	return args.Error(0)
}

// PassthroughTx satisfies repository.Tx without a database: the callback runs
// immediately with a nil querier. Rollback semantics are not simulated.
type PassthroughTx struct{}

func (PassthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.DBTX) error) error {
	return fn(ctx, nil)
}
