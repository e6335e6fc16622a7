package models

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	// ProjectFPS is the fixed frame rate every project renders at.
	ProjectFPS = 30

	// DefaultSceneDuration is the fallback duration in frames (5 seconds at 30fps)
	// used when generation does not report one.
	DefaultSceneDuration = 150
)

// SecondsToFrames converts a duration in seconds to frames at the project rate.
func SecondsToFrames(seconds float64) int {
	return int(math.Round(seconds * ProjectFPS))
}

// Scene is one addressable unit of generated animation code plus timing metadata.
// Scenes are owned by a project and mutated only through the executor.
type Scene struct {
	ID        uuid.UUID       `json:"id"`
	ProjectID uuid.UUID       `json:"projectId"`
	Order     int             `json:"order"`
	Name      string          `json:"name"`
	Code      string          `json:"code"`
	Duration  int             `json:"duration"` // frames
	Props     json.RawMessage `json:"props,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// OperationType classifies what an iteration did to its scene.
// Trims are recorded as edits with identical before/after code.
type OperationType string

const (
	OperationCreate OperationType = "create"
	OperationEdit   OperationType = "edit"
	OperationDelete OperationType = "delete"
)

// ChangeSource records what produced an iteration.
const (
	ChangeSourceLLM    = "llm"
	ChangeSourceRevert = "revert"
)

// SceneIteration is an append-only audit record of one executed operation.
// For create, CodeBefore is nil and CodeAfter is set; for delete the reverse;
// for edit both are set (equal when only the duration changed).
type SceneIteration struct {
	ID               uuid.UUID       `json:"id"`
	SceneID          uuid.UUID       `json:"sceneId"`
	ProjectID        uuid.UUID       `json:"projectId"`
	OperationType    OperationType   `json:"operationType"`
	UserPrompt       string          `json:"userPrompt"`
	BrainReasoning   string          `json:"brainReasoning,omitempty"`
	ToolReasoning    string          `json:"toolReasoning,omitempty"`
	CodeBefore       *string         `json:"codeBefore,omitempty"`
	CodeAfter        *string         `json:"codeAfter,omitempty"`
	ChangesApplied   json.RawMessage `json:"changesApplied,omitempty"`
	GenerationTimeMs int64           `json:"generationTimeMs"`
	ModelUsed        *string         `json:"modelUsed,omitempty"`
	TokensUsed       *int            `json:"tokensUsed,omitempty"`
	MessageID        *uuid.UUID      `json:"messageId,omitempty"`
	ChangeSource     string          `json:"changeSource"`
	UserEditedAgain  bool            `json:"userEditedAgain"`
	CreatedAt        time.Time       `json:"createdAt"`
}
