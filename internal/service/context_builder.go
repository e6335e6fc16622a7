package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"motion-server/internal/models"
	"motion-server/internal/repository"
	"motion-server/internal/webanalysis"
)

const (
	// recentMessageWindow bounds how many prior chat turns reach the decision
	// step.
	recentMessageWindow = 5

	// imageScanWindow bounds how far back the builder looks for images in
	// chat history.
	imageScanWindow = 10
)

// ContextBuilder assembles the per-request snapshot of project state. It is
// strictly read-only and never fails: every internal error degrades to a
// minimal packet so the decision step can proceed.
type ContextBuilder struct {
	db       repository.DBTX
	scenes   repository.SceneRepository
	analyzer webanalysis.Analyzer // nil disables web analysis
	logger   *zap.Logger
}

// NewContextBuilder wires the builder. analyzer may be nil.
func NewContextBuilder(db repository.DBTX, scenes repository.SceneRepository, analyzer webanalysis.Analyzer, logger *zap.Logger) *ContextBuilder {
	return &ContextBuilder{
		db:       db,
		scenes:   scenes,
		analyzer: analyzer,
		logger:   logger.Named("ContextBuilder"),
	}
}

// Build constructs the context packet for one decision request.
func (b *ContextBuilder) Build(ctx context.Context, projectID uuid.UUID, userPrompt string, chatHistory []models.ChatMessage, userCtx models.UserContext) *models.ContextPacket {
	packet := &models.ContextPacket{
		SceneHistory:        []models.SceneContext{},
		ConversationSummary: "New conversation",
		ImageContext: models.ImageContext{
			CurrentImages: userCtx.ImageURLs,
		},
	}

	scenes, err := b.scenes.ListByProject(ctx, b.db, projectID)
	if err != nil {
		b.logger.Warn("Scene history unavailable, proceeding with minimal context",
			zap.Error(err), zap.String("projectID", projectID.String()))
		return packet
	}
	for _, s := range scenes {
		packet.SceneHistory = append(packet.SceneHistory, models.SceneContext{
			ID:       s.ID,
			Name:     s.Name,
			Code:     s.Code,
			Order:    s.Order,
			Duration: s.Duration,
		})
	}

	if summary := summarizeConversation(chatHistory); summary != "" {
		packet.ConversationSummary = summary
	}
	packet.RecentMessages = lastMessages(chatHistory, recentMessageWindow)
	packet.ImageContext.RecentImagesFromChat = collectChatImages(chatHistory)
	packet.WebContext = b.analyzePromptURL(ctx, userPrompt)

	return packet
}

// analyzePromptURL fetches web context when the prompt targets a URL or is a
// bare domain. Any analysis failure degrades to no web context.
func (b *ContextBuilder) analyzePromptURL(ctx context.Context, userPrompt string) *models.WebContext {
	if b.analyzer == nil {
		return nil
	}
	targetURL, ok := webanalysis.ExtractTargetURL(userPrompt)
	if !ok {
		return nil
	}
	web, err := b.analyzer.Analyze(ctx, targetURL)
	if err != nil {
		b.logger.Warn("Web analysis failed, proceeding without web context",
			zap.String("url", targetURL), zap.Error(err))
		return nil
	}
	return web
}

// summarizeConversation derives a short topic string from recent user turns.
func summarizeConversation(history []models.ChatMessage) string {
	if len(history) == 0 {
		return ""
	}

	var topics []string
	seen := map[string]bool{}
	addTopic := func(topic string) {
		if !seen[topic] {
			seen[topic] = true
			topics = append(topics, topic)
		}
	}

	for _, msg := range lastMessages(history, imageScanWindow) {
		if msg.Role != "user" {
			continue
		}
		content := strings.ToLower(msg.Content)
		if strings.Contains(content, "create") || strings.Contains(content, "add") || strings.Contains(content, "new scene") {
			addTopic("scene creation")
		}
		if strings.Contains(content, "edit") || strings.Contains(content, "change") || strings.Contains(content, "fix") || strings.Contains(content, "make it") {
			addTopic("scene editing")
		}
		if strings.Contains(content, "color") || strings.Contains(content, "style") || strings.Contains(content, "background") || strings.Contains(content, "font") {
			addTopic("styling")
		}
		if strings.Contains(content, "delete") || strings.Contains(content, "remove") {
			addTopic("scene removal")
		}
	}

	if len(topics) == 0 {
		return "General video editing conversation"
	}
	return "Recent topics: " + strings.Join(topics, ", ")
}

// collectChatImages scans the recent window for attached images and tags them
// with their 1-based turn position so "that image" references resolve.
func collectChatImages(history []models.ChatMessage) []models.ChatImageRef {
	window := lastMessages(history, imageScanWindow)
	var refs []models.ChatImageRef
	for i, msg := range window {
		if len(msg.ImageURLs) == 0 {
			continue
		}
		refs = append(refs, models.ChatImageRef{
			Position: i + 1,
			Prompt:   msg.Content,
			URLs:     msg.ImageURLs,
		})
	}
	return refs
}

func lastMessages(history []models.ChatMessage, n int) []models.ChatMessage {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
