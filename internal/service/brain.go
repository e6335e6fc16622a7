package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"motion-server/internal/ai"
	"motion-server/internal/models"
	"motion-server/internal/schemas"
)

const purposeBrainDecision = "brain_decision"

// brainWire is the JSON shape the decision prompt asks the model to emit.
type brainWire struct {
	ToolName              *string  `json:"toolName"`
	TargetSceneID         string   `json:"targetSceneId"`
	TargetDuration        int      `json:"targetDuration"`
	ReferencedSceneIDs    []string `json:"referencedSceneIds"`
	Reasoning             string   `json:"reasoning"`
	UserFeedback          string   `json:"userFeedback"`
	NeedsClarification    bool     `json:"needsClarification"`
	ClarificationQuestion *string  `json:"clarificationQuestion"`
}

// Brain is the decision engine: one model call per user instruction, resolved
// to exactly one operation of the closed set or a clarification request.
type Brain struct {
	client  ai.Client
	prompts *ai.Registry
	chain   *schemas.Chain
	logger  *zap.Logger
}

// NewBrain wires the decision engine.
func NewBrain(client ai.Client, prompts *ai.Registry, logger *zap.Logger) *Brain {
	return &Brain{
		client:  client,
		prompts: prompts,
		chain:   schemas.DecisionChain(logger),
		logger:  logger.Named("Brain"),
	}
}

// Decide issues the decision call and resolves its output. A failed model call
// or unrecoverable response is fatal; a shape violation in an otherwise
// readable response re-resolves deterministically to clarification.
func (b *Brain) Decide(ctx context.Context, packet *models.ContextPacket, userPrompt string, userCtx models.UserContext) (*models.Decision, error) {
	messages := []ai.Message{{
		Role:      "user",
		Content:   b.buildDecisionPrompt(packet, userPrompt, userCtx),
		ImageURLs: userCtx.ImageURLs,
	}}
	params := ai.GenerationParams{JSONResponse: true, ModelOverride: userCtx.ModelOverride}

	response, usage, err := b.client.Generate(ctx, purposeBrainDecision, b.prompts.BrainOrchestrator, messages, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDecisionFailed, err)
	}

	data, strategy, err := b.chain.Recover(response)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDecisionFailed, err)
	}

	var wire brainWire
	if err := schemas.ParseInto(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDecisionFailed, err)
	}

	decision := b.resolve(&wire, packet, userCtx)
	if err := decision.Validate(); err != nil {
		// Resolution already normalizes toward clarification, so a failure
		// here is a programming error, not model noise.
		return nil, fmt.Errorf("%w: %v", models.ErrDecisionFailed, err)
	}

	b.logger.Info("Decision made",
		zap.String("tool", decisionToolName(decision)),
		zap.Bool("needsClarification", decision.NeedsClarification()),
		zap.String("strategy", strategy),
		zap.Int("tokensUsed", usage.TotalTokens))
	return decision, nil
}

// resolve maps the wire shape onto the closed operation union, enforcing the
// tool-XOR-clarification invariant. Every violation degrades to a
// clarification request instead of failing the request.
func (b *Brain) resolve(wire *brainWire, packet *models.ContextPacket, userCtx models.UserContext) *models.Decision {
	decision := &models.Decision{
		Reasoning:    wire.Reasoning,
		UserFeedback: wire.UserFeedback,
	}

	hasTool := wire.ToolName != nil && *wire.ToolName != ""
	if wire.NeedsClarification || !hasTool {
		if hasTool {
			b.logger.Warn("Decision set both a tool and clarification, treating as clarification",
				zap.String("tool", *wire.ToolName))
		}
		decision.ClarificationQuestion = clarificationQuestion(wire)
		return decision
	}

	tool := models.ToolName(*wire.ToolName)
	if !tool.Valid() {
		b.logger.Warn("Decision named an unknown tool", zap.String("tool", string(tool)))
		decision.ClarificationQuestion = "I couldn't work out what change you want. Could you rephrase your request?"
		return decision
	}

	switch tool {
	case models.ToolAddScene:
		decision.Op = &models.AddScene{
			ReferencedSceneIDs: parseSceneIDs(wire.ReferencedSceneIDs),
			ImageURLs:          userCtx.ImageURLs,
			VideoURLs:          userCtx.VideoURLs,
		}

	case models.ToolEditScene:
		target := b.resolveEditTarget(wire.TargetSceneID, packet)
		if target == uuid.Nil {
			decision.ClarificationQuestion = "There are no scenes to edit yet. Would you like me to create one?"
			return decision
		}
		decision.Op = &models.EditScene{
			TargetSceneID:      target,
			ReferencedSceneIDs: parseSceneIDs(wire.ReferencedSceneIDs),
			ErrorContext:       userCtx.ErrorDetails,
			ImageURLs:          userCtx.ImageURLs,
			VideoURLs:          userCtx.VideoURLs,
		}

	case models.ToolDeleteScene:
		target, err := uuid.Parse(wire.TargetSceneID)
		if err != nil || packet.FindScene(target) == nil {
			decision.ClarificationQuestion = "Which scene should I delete?"
			return decision
		}
		decision.Op = &models.DeleteScene{TargetSceneID: target}

	case models.ToolTrimScene:
		target, err := uuid.Parse(wire.TargetSceneID)
		if err != nil || packet.FindScene(target) == nil {
			decision.ClarificationQuestion = "Which scene's duration should I change?"
			return decision
		}
		if wire.TargetDuration <= 0 {
			decision.ClarificationQuestion = "How long should that scene be?"
			return decision
		}
		decision.Op = &models.TrimScene{TargetSceneID: target, TargetDuration: wire.TargetDuration}
	}

	return decision
}

// resolveEditTarget falls back to the newest scene for ambiguous edit
// requests. Returns uuid.Nil only when the storyboard is empty.
func (b *Brain) resolveEditTarget(raw string, packet *models.ContextPacket) uuid.UUID {
	if target, err := uuid.Parse(raw); err == nil {
		if packet.FindScene(target) != nil {
			return target
		}
		b.logger.Warn("Decision targeted an unknown scene, falling back to the newest one",
			zap.String("targetSceneId", raw))
	}
	if newest := packet.NewestScene(); newest != nil {
		return newest.ID
	}
	return uuid.Nil
}

func (b *Brain) buildDecisionPrompt(packet *models.ContextPacket, userPrompt string, userCtx models.UserContext) string {
	var sb strings.Builder

	sb.WriteString("CURRENT STORYBOARD:\n")
	if len(packet.SceneHistory) == 0 {
		sb.WriteString("(empty - no scenes yet)\n")
	}
	for _, s := range packet.SceneHistory {
		fmt.Fprintf(&sb, "- Scene %d: %q (id: %s, %d frames)\n", s.Order+1, s.Name, s.ID, s.Duration)
	}

	fmt.Fprintf(&sb, "\nCONVERSATION SUMMARY: %s\n", packet.ConversationSummary)
	if len(packet.RecentMessages) > 0 {
		sb.WriteString("\nRECENT MESSAGES:\n")
		for _, msg := range packet.RecentMessages {
			fmt.Fprintf(&sb, "[%s] %s\n", msg.Role, msg.Content)
		}
	}

	if len(packet.ImageContext.CurrentImages) > 0 {
		fmt.Fprintf(&sb, "\nThe user attached %d image(s) with this request.\n", len(packet.ImageContext.CurrentImages))
	}
	for _, ref := range packet.ImageContext.RecentImagesFromChat {
		fmt.Fprintf(&sb, "Earlier image at turn %d: %q\n", ref.Position, ref.Prompt)
	}
	if packet.WebContext != nil {
		fmt.Fprintf(&sb, "\nThe prompt references a website that was analyzed: %s (%s)\n",
			packet.WebContext.OriginalURL, packet.WebContext.PageMetadata.Title)
	}
	if userCtx.ErrorDetails != "" {
		fmt.Fprintf(&sb, "\nTHE USER REPORTS A CONCRETE ERROR:\n%s\n", userCtx.ErrorDetails)
	}

	fmt.Fprintf(&sb, "\nUSER REQUEST: %s\n", userPrompt)
	return sb.String()
}

func clarificationQuestion(wire *brainWire) string {
	if wire.ClarificationQuestion != nil && *wire.ClarificationQuestion != "" {
		return *wire.ClarificationQuestion
	}
	return "Could you clarify what you'd like me to do with the video?"
}

func parseSceneIDs(raw []string) []uuid.UUID {
	var ids []uuid.UUID
	for _, s := range raw {
		if id, err := uuid.Parse(s); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func decisionToolName(d *models.Decision) string {
	if d.Op == nil {
		return "none"
	}
	return string(d.Op.Tool())
}
