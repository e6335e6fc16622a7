package models

import (
	"fmt"

	"github.com/google/uuid"
)

// ToolName identifies one of the four executable operations.
type ToolName string

const (
	ToolAddScene    ToolName = "addScene"
	ToolEditScene   ToolName = "editScene"
	ToolDeleteScene ToolName = "deleteScene"
	ToolTrimScene   ToolName = "trimScene"
)

// Valid reports whether the name belongs to the closed operation set.
func (t ToolName) Valid() bool {
	switch t {
	case ToolAddScene, ToolEditScene, ToolDeleteScene, ToolTrimScene:
		return true
	}
	return false
}

// Operation is the closed union of executable operations. Each variant carries
// exactly the fields its tool needs, so the executor never shape-checks at
// runtime.
type Operation interface {
	Tool() ToolName
}

// AddScene creates a new scene appended to the storyboard.
type AddScene struct {
	ReferencedSceneIDs []uuid.UUID
	ImageURLs          []string
	VideoURLs          []string
}

func (AddScene) Tool() ToolName { return ToolAddScene }

// EditScene rewrites the code of an existing scene.
type EditScene struct {
	TargetSceneID      uuid.UUID
	ReferencedSceneIDs []uuid.UUID
	ErrorContext       string // compile/runtime error details when fixing
	ImageURLs          []string
	VideoURLs          []string
}

func (EditScene) Tool() ToolName { return ToolEditScene }

// DeleteScene removes an existing scene.
type DeleteScene struct {
	TargetSceneID uuid.UUID
}

func (DeleteScene) Tool() ToolName { return ToolDeleteScene }

// TrimScene changes only the duration of an existing scene, never its code.
type TrimScene struct {
	TargetSceneID  uuid.UUID
	TargetDuration int // frames
}

func (TrimScene) Tool() ToolName { return ToolTrimScene }

// Decision is the single authoritative output of the decision engine.
// Exactly one of Op and ClarificationQuestion is set.
type Decision struct {
	Op                    Operation
	Reasoning             string
	UserFeedback          string
	ClarificationQuestion string
}

// NeedsClarification reports whether the decision is a clarification request
// instead of an operation.
func (d *Decision) NeedsClarification() bool {
	return d.Op == nil
}

// Validate enforces the decision invariant: an operation XOR a clarification
// question, never both, never neither.
func (d *Decision) Validate() error {
	hasOp := d.Op != nil
	hasQuestion := d.ClarificationQuestion != ""
	if hasOp == hasQuestion {
		return fmt.Errorf("%w: operation=%v clarification=%v", ErrInvalidDecision, hasOp, hasQuestion)
	}
	if hasOp {
		switch op := d.Op.(type) {
		case *EditScene:
			if op.TargetSceneID == uuid.Nil {
				return fmt.Errorf("%w: editScene without target scene", ErrInvalidDecision)
			}
		case *DeleteScene:
			if op.TargetSceneID == uuid.Nil {
				return fmt.Errorf("%w: deleteScene without target scene", ErrInvalidDecision)
			}
		case *TrimScene:
			if op.TargetSceneID == uuid.Nil {
				return fmt.Errorf("%w: trimScene without target scene", ErrInvalidDecision)
			}
			if op.TargetDuration <= 0 {
				return fmt.Errorf("%w: trimScene without target duration", ErrInvalidDecision)
			}
		}
	}
	return nil
}
