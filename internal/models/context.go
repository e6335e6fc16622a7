package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is one prior turn of the project conversation.
type ChatMessage struct {
	Role      string   `json:"role"` // "user" or "assistant"
	Content   string   `json:"content"`
	ImageURLs []string `json:"imageUrls,omitempty"`
}

// SceneContext is a storyboard entry carried in the context packet. Full code
// is retained because cross-scene operations need source, not summaries.
type SceneContext struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Code     string    `json:"code"`
	Order    int       `json:"order"`
	Duration int       `json:"duration"`
}

// ChatImageRef ties images found in chat history to their turn position so the
// decision step can correlate "that image" references to turn order.
type ChatImageRef struct {
	Position int      `json:"position"` // 1-based position within the scanned window
	Prompt   string   `json:"prompt"`
	URLs     []string `json:"urls"`
}

// ImageContext aggregates current-turn uploads with images from recent chat.
type ImageContext struct {
	CurrentImages        []string       `json:"currentImages"`
	RecentImagesFromChat []ChatImageRef `json:"recentImagesFromChat"`
}

// Screenshots holds the two viewport captures produced by web analysis.
type Screenshots struct {
	Desktop string `json:"desktop"`
	Mobile  string `json:"mobile"`
}

// PageMetadata is the extracted content of an analyzed page.
type PageMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Headings    []string `json:"headings,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// WebContext is the result of analyzing a URL found in the user prompt.
type WebContext struct {
	OriginalURL  string       `json:"originalUrl"`
	Screenshots  Screenshots  `json:"screenshots"`
	PageMetadata PageMetadata `json:"pageMetadata"`
	AnalyzedAt   time.Time    `json:"analyzedAt"`
}

// UserContext carries per-request attachments and overrides from the caller.
type UserContext struct {
	ImageURLs     []string `json:"imageUrls,omitempty"`
	VideoURLs     []string `json:"videoUrls,omitempty"`
	ModelOverride string   `json:"modelOverride,omitempty"`
	ErrorDetails  string   `json:"errorDetails,omitempty"`
}

// ContextPacket is the bounded snapshot of project state assembled for one
// decision request. It is built fresh per request and never persisted.
type ContextPacket struct {
	SceneHistory        []SceneContext
	ConversationSummary string
	RecentMessages      []ChatMessage
	ImageContext        ImageContext
	WebContext          *WebContext
}

// NewestScene returns the storyboard entry with the highest order, or nil when
// the storyboard is empty. Used as the default target for ambiguous edits.
func (p *ContextPacket) NewestScene() *SceneContext {
	if len(p.SceneHistory) == 0 {
		return nil
	}
	newest := &p.SceneHistory[0]
	for i := range p.SceneHistory {
		if p.SceneHistory[i].Order >= newest.Order {
			newest = &p.SceneHistory[i]
		}
	}
	return newest
}

// FindScene locates a storyboard entry by ID.
func (p *ContextPacket) FindScene(id uuid.UUID) *SceneContext {
	for i := range p.SceneHistory {
		if p.SceneHistory[i].ID == id {
			return &p.SceneHistory[i]
		}
	}
	return nil
}
