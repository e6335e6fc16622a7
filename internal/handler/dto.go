package handler

import (
	"github.com/google/uuid"

	"motion-server/internal/models"
)

// generateRequest is the body of POST /api/v1/projects/:projectId/generate.
type generateRequest struct {
	UserID      uuid.UUID            `json:"userId" binding:"required"`
	Message     string               `json:"message" binding:"required"`
	ChatHistory []models.ChatMessage `json:"chatHistory"`
	ImageURLs   []string             `json:"imageUrls"`
	VideoURLs   []string             `json:"videoUrls"`
	// ModelOverride routes this request to a specific model.
	ModelOverride string `json:"modelOverride"`
	// ErrorDetails carries a concrete runtime/compile error for auto-fix flows.
	ErrorDetails string     `json:"errorDetails"`
	MessageID    *uuid.UUID `json:"messageId"`
}

// generateResponse is the outcome of one instruction.
type generateResponse struct {
	Success               bool            `json:"success"`
	Operation             models.ToolName `json:"operation,omitempty"`
	Scene                 *models.Scene   `json:"scene,omitempty"`
	NeedsClarification    bool            `json:"needsClarification"`
	ClarificationQuestion string          `json:"clarificationQuestion,omitempty"`
	UserFeedback          string          `json:"userFeedback,omitempty"`
	Reasoning             string          `json:"reasoning,omitempty"`
}

// revertRequest is the body of POST /api/v1/scenes/:sceneId/revert.
type revertRequest struct {
	IterationID uuid.UUID `json:"iterationId" binding:"required"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
