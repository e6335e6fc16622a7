package tools

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"motion-server/internal/ai"
	"motion-server/internal/schemas"
)

const purposeSceneEdit = "scene_edit"

// EditTool modifies an existing scene's code. Like the add tool it never
// touches storage; the caller persists the returned code.
type EditTool struct {
	client  ai.Client
	prompts *ai.Registry
	chain   *schemas.Chain
	logger  *zap.Logger
}

// NewEditTool wires the edit tool.
func NewEditTool(client ai.Client, prompts *ai.Registry, logger *zap.Logger) *EditTool {
	return &EditTool{
		client:  client,
		prompts: prompts,
		chain:   schemas.SceneChain(logger),
		logger:  logger.Named("EditTool"),
	}
}

// Run produces the modified scene code. The returned Duration is nil unless
// the model reported a timing change, in which case the caller must apply it.
func (t *EditTool) Run(ctx context.Context, input EditInput) (*EditResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "USER REQUEST: %s\n", input.UserPrompt)
	if input.ErrorContext != "" {
		fmt.Fprintf(&b, "\nTHE SCENE CURRENTLY FAILS WITH:\n%s\nFix this error with the smallest possible change.\n", input.ErrorContext)
	}
	fmt.Fprintf(&b, "\nCURRENT SCENE CODE (%d frames):\n%s\n", input.CurrentDuration, input.Code)
	appendReferenceSection(&b, input.ReferenceScenes)
	appendWebSection(&b, input.WebContext)
	appendMediaSection(&b, input.ImageURLs, input.VideoURLs)

	images := append(append([]string{}, input.ImageURLs...), webImageURLs(input.WebContext)...)

	messages := []ai.Message{{Role: "user", Content: b.String(), ImageURLs: images}}
	params := ai.GenerationParams{JSONResponse: true, ModelOverride: input.ModelOverride}

	response, usage, err := t.client.Generate(ctx, purposeSceneEdit, t.prompts.CodeEditor, messages, params)
	if err != nil {
		return nil, fmt.Errorf("scene edit request failed: %w", err)
	}

	data, strategy, err := t.chain.Recover(response)
	if err != nil {
		if truncated, reason := schemas.DetectTruncation(response); truncated {
			t.logger.Warn("Edit response looks truncated",
				zap.String("reason", reason),
				zap.Int("responseLength", len(response)))
			return nil, fmt.Errorf("edit response is truncated (%s)", reason)
		}
		return nil, fmt.Errorf("failed to recover edit output: %w", err)
	}
	scene, err := schemas.ParseGeneratedScene(data)
	if err != nil {
		return nil, err
	}
	if len(scene.Code) < minGeneratedCodeLength {
		return nil, fmt.Errorf("edited code is too short: %d chars", len(scene.Code))
	}

	code, healed := HealGeneratedCode(scene.Code)
	changes := scene.Changes
	if len(healed) > 0 {
		t.logger.Info("Applied code corrections", zap.Strings("rules", healed))
		changes = append(changes, healed...)
	}

	var duration *int
	if scene.NewDurationFrames > 0 {
		frames := scene.NewDurationFrames
		duration = &frames
	}

	t.logger.Info("Scene edited",
		zap.String("sceneId", input.SceneID.String()),
		zap.Bool("durationChanged", duration != nil),
		zap.String("strategy", strategy),
		zap.Int("tokensUsed", usage.TotalTokens))

	return &EditResult{
		Code:       code,
		Duration:   duration,
		Reasoning:  scene.Reasoning,
		Changes:    changes,
		ModelUsed:  t.client.Model(),
		TokensUsed: usage.TotalTokens,
	}, nil
}
