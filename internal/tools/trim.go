package tools

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// TrimTool computes a scene's new duration without touching its code. Fully
// deterministic: the fast path for "cut X seconds" style requests where a
// model round-trip would be wasted.
type TrimTool struct {
	logger *zap.Logger
}

// NewTrimTool wires the trim tool.
func NewTrimTool(logger *zap.Logger) *TrimTool {
	return &TrimTool{logger: logger.Named("TrimTool")}
}

// Run resolves the new duration. An absolute NewDuration wins over a relative
// TrimFrames delta; the result is clamped to at least one frame.
func (t *TrimTool) Run(_ context.Context, input TrimInput) (*TrimResult, error) {
	duration := input.CurrentDuration
	switch {
	case input.NewDuration > 0:
		duration = input.NewDuration
	case input.TrimFrames != 0:
		duration = input.CurrentDuration - input.TrimFrames
	default:
		return nil, fmt.Errorf("trim requires a target duration or a frame delta")
	}
	if duration < 1 {
		duration = 1
	}
	trimmed := input.CurrentDuration - duration

	t.logger.Info("Scene duration trimmed",
		zap.String("sceneId", input.SceneID.String()),
		zap.Int("from", input.CurrentDuration),
		zap.Int("to", duration))

	var reasoning string
	switch {
	case trimmed > 0:
		reasoning = fmt.Sprintf("Cut %d frames: %d -> %d", trimmed, input.CurrentDuration, duration)
	case trimmed < 0:
		reasoning = fmt.Sprintf("Extended by %d frames: %d -> %d", -trimmed, input.CurrentDuration, duration)
	default:
		reasoning = fmt.Sprintf("Duration unchanged at %d frames", duration)
	}

	return &TrimResult{
		Duration:      duration,
		TrimmedFrames: trimmed,
		Reasoning:     reasoning,
	}, nil
}
