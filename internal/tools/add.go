package tools

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"motion-server/internal/ai"
	"motion-server/internal/models"
	"motion-server/internal/schemas"
)

const purposeSceneGeneration = "scene_generation"

// AddTool generates a brand-new scene. It is pure with respect to project
// state: the caller supplies everything it needs and persists the result.
type AddTool struct {
	client  ai.Client
	prompts *ai.Registry
	chain   *schemas.Chain
	logger  *zap.Logger
}

// NewAddTool wires the add tool.
func NewAddTool(client ai.Client, prompts *ai.Registry, logger *zap.Logger) *AddTool {
	return &AddTool{
		client:  client,
		prompts: prompts,
		chain:   schemas.SceneChain(logger),
		logger:  logger.Named("AddTool"),
	}
}

// Run generates the new scene's code, name and duration.
func (t *AddTool) Run(ctx context.Context, input AddInput) (*AddResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Create scene %d of the video.\n\nUSER REQUEST: %s\n", input.SceneNumber, input.UserPrompt)
	appendStoryboardSection(&b, input.StoryboardSoFar)
	appendReferenceSection(&b, input.ReferenceScenes)
	appendWebSection(&b, input.WebContext)
	appendMediaSection(&b, input.ImageURLs, input.VideoURLs)

	images := append(append([]string{}, input.ImageURLs...), webImageURLs(input.WebContext)...)

	messages := []ai.Message{{Role: "user", Content: b.String(), ImageURLs: images}}
	params := ai.GenerationParams{JSONResponse: true, ModelOverride: input.ModelOverride}

	response, usage, err := t.client.Generate(ctx, purposeSceneGeneration, t.prompts.CodeGenerator, messages, params)
	if err != nil {
		return nil, fmt.Errorf("scene generation request failed: %w", err)
	}

	data, strategy, err := t.chain.Recover(response)
	if err != nil {
		if truncated, reason := schemas.DetectTruncation(response); truncated {
			t.logger.Warn("Generation response looks truncated",
				zap.String("reason", reason),
				zap.Int("responseLength", len(response)))
			return nil, fmt.Errorf("generation response is truncated (%s)", reason)
		}
		return nil, fmt.Errorf("failed to recover generation output: %w", err)
	}
	scene, err := schemas.ParseGeneratedScene(data)
	if err != nil {
		return nil, err
	}
	if len(scene.Code) < minGeneratedCodeLength {
		return nil, fmt.Errorf("generated code is too short: %d chars", len(scene.Code))
	}

	code, healed := HealGeneratedCode(scene.Code)
	if len(healed) > 0 {
		t.logger.Info("Applied code corrections", zap.Strings("rules", healed))
	}

	name := scene.Name
	if name == "" {
		name = fmt.Sprintf("Scene %d", input.SceneNumber)
	}
	duration := scene.Duration
	if duration <= 0 {
		duration = analyzeCodeDuration(code)
	}

	t.logger.Info("Scene generated",
		zap.String("projectId", input.ProjectID.String()),
		zap.String("name", name),
		zap.Int("duration", duration),
		zap.String("strategy", strategy),
		zap.Int("tokensUsed", usage.TotalTokens))

	return &AddResult{
		Name:       name,
		Code:       code,
		Duration:   duration,
		Reasoning:  scene.Reasoning,
		ModelUsed:  t.client.Model(),
		TokensUsed: usage.TotalTokens,
	}, nil
}

var durationHintPattern = regexp.MustCompile(`durationInFrames\s*[:=]\s*(\d+)`)

// analyzeCodeDuration guesses the scene length from the code itself when the
// model omitted it, falling back to the project default.
func analyzeCodeDuration(code string) int {
	if match := durationHintPattern.FindStringSubmatch(code); match != nil {
		if frames, err := strconv.Atoi(match[1]); err == nil && frames > 0 {
			return frames
		}
	}
	return models.DefaultSceneDuration
}
