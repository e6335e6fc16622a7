package tools

import (
	"github.com/google/uuid"

	"motion-server/internal/models"
)

// minGeneratedCodeLength rejects degenerate generation output: anything
// shorter cannot be a working scene.
const minGeneratedCodeLength = 100

// AddInput is the typed input of the add tool.
type AddInput struct {
	UserPrompt      string
	ProjectID       uuid.UUID
	SceneNumber     int // 1-based position of the scene being created
	StoryboardSoFar []models.SceneContext
	ReferenceScenes []models.SceneContext
	ImageURLs       []string
	VideoURLs       []string
	WebContext      *models.WebContext
	ModelOverride   string
}

// AddResult is the add tool's output: generated code plus metadata.
type AddResult struct {
	Name       string
	Code       string
	Duration   int // frames, from the tool's analysis of its own output
	Reasoning  string
	ModelUsed  string
	TokensUsed int
}

// EditInput is the typed input of the edit tool.
type EditInput struct {
	UserPrompt      string
	SceneID         uuid.UUID
	Code            string // current scene code, required
	CurrentDuration int
	ErrorContext    string // compile/runtime error details, optional
	ReferenceScenes []models.SceneContext
	ImageURLs       []string
	VideoURLs       []string
	WebContext      *models.WebContext
	ModelOverride   string
}

// EditResult is the edit tool's output. Duration is nil when the edit did not
// change how long the animation runs; the caller keeps the prior duration.
type EditResult struct {
	Code       string
	Duration   *int
	Reasoning  string
	Changes    []string
	ModelUsed  string
	TokensUsed int
}

// DeleteInput is the typed input of the delete tool.
type DeleteInput struct {
	UserPrompt string
	SceneID    uuid.UUID
	SceneName  string
}

// DeleteResult confirms the deletion intent. The tool never touches storage;
// the actual removal is the executor's job.
type DeleteResult struct {
	SceneID   uuid.UUID
	Reasoning string
}

// TrimInput is the typed input of the trim tool. Exactly one of NewDuration
// (absolute) and TrimFrames (delta, positive cuts) should be set.
type TrimInput struct {
	SceneID         uuid.UUID
	CurrentDuration int
	NewDuration     int
	TrimFrames      int
}

// TrimResult is the trim tool's output.
type TrimResult struct {
	Duration      int // the new duration in frames
	TrimmedFrames int // positive when frames were cut, negative when extended
	Reasoning     string
}
