package tools

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"motion-server/internal/models"
)

func TestTrimTool_AbsoluteDuration(t *testing.T) {
	tool := NewTrimTool(zap.NewNop())

	// "make it 3 seconds" at 30fps
	result, err := tool.Run(context.Background(), TrimInput{
		SceneID:         uuid.New(),
		CurrentDuration: 150,
		NewDuration:     models.SecondsToFrames(3),
	})

	assert.NoError(t, err)
	assert.Equal(t, 90, result.Duration)
	assert.Equal(t, 60, result.TrimmedFrames)
}

func TestTrimTool_RelativeCut(t *testing.T) {
	tool := NewTrimTool(zap.NewNop())

	// "cut the last second" from a 150-frame scene
	result, err := tool.Run(context.Background(), TrimInput{
		SceneID:         uuid.New(),
		CurrentDuration: 150,
		TrimFrames:      models.SecondsToFrames(1),
	})

	assert.NoError(t, err)
	assert.Equal(t, 120, result.Duration)
	assert.Equal(t, 30, result.TrimmedFrames)
}

func TestTrimTool_Extension(t *testing.T) {
	tool := NewTrimTool(zap.NewNop())

	result, err := tool.Run(context.Background(), TrimInput{
		SceneID:         uuid.New(),
		CurrentDuration: 90,
		TrimFrames:      -60,
	})

	assert.NoError(t, err)
	assert.Equal(t, 150, result.Duration)
	assert.Equal(t, -60, result.TrimmedFrames)
}

func TestTrimTool_ClampsToOneFrame(t *testing.T) {
	tool := NewTrimTool(zap.NewNop())

	result, err := tool.Run(context.Background(), TrimInput{
		SceneID:         uuid.New(),
		CurrentDuration: 30,
		TrimFrames:      300,
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Duration)
}

func TestTrimTool_AbsoluteWinsOverDelta(t *testing.T) {
	tool := NewTrimTool(zap.NewNop())

	result, err := tool.Run(context.Background(), TrimInput{
		SceneID:         uuid.New(),
		CurrentDuration: 150,
		NewDuration:     60,
		TrimFrames:      10,
	})

	assert.NoError(t, err)
	assert.Equal(t, 60, result.Duration)
}

func TestTrimTool_NoTargetFails(t *testing.T) {
	tool := NewTrimTool(zap.NewNop())

	_, err := tool.Run(context.Background(), TrimInput{
		SceneID:         uuid.New(),
		CurrentDuration: 150,
	})

	assert.Error(t, err)
}
