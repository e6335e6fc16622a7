package tools

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DeleteTool confirms a deletion. It is fully deterministic: no model call, no
// storage access. It exists so every operation flows through the same
// tool-then-persist pipeline and leaves the same kind of audit trail.
type DeleteTool struct {
	logger *zap.Logger
}

// NewDeleteTool wires the delete tool.
func NewDeleteTool(logger *zap.Logger) *DeleteTool {
	return &DeleteTool{logger: logger.Named("DeleteTool")}
}

// Run acknowledges the deletion intent.
func (t *DeleteTool) Run(_ context.Context, input DeleteInput) (*DeleteResult, error) {
	t.logger.Info("Scene deletion confirmed",
		zap.String("sceneId", input.SceneID.String()),
		zap.String("sceneName", input.SceneName))
	return &DeleteResult{
		SceneID:   input.SceneID,
		Reasoning: fmt.Sprintf("Deleted scene %q as requested", input.SceneName),
	}, nil
}
