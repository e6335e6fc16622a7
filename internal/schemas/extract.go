package schemas

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// ResponseSizeCeiling is the hard response-size limit observed from the
// generation provider. A response of exactly this length was cut off.
const ResponseSizeCeiling = 16384

// GeneratedScene is the structured payload the generation model is asked to
// return for add and edit operations.
type GeneratedScene struct {
	Code              string   `json:"code"`
	Name              string   `json:"name,omitempty"`
	Duration          int      `json:"duration,omitempty"`          // frames, reported by add
	NewDurationFrames int      `json:"newDurationFrames,omitempty"` // frames, reported by edit when timing changed
	Reasoning         string   `json:"reasoning,omitempty"`
	Changes           []string `json:"changes,omitempty"`
}

// ParseGeneratedScene decodes a recovered JSON document into a GeneratedScene.
func ParseGeneratedScene(data []byte) (*GeneratedScene, error) {
	var scene GeneratedScene
	if err := json.Unmarshal(data, &scene); err != nil {
		return nil, fmt.Errorf("failed to parse generated scene: %w", err)
	}
	return &scene, nil
}

// ParseInto decodes a recovered JSON document into dst.
func ParseInto(data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse recovered document: %w", err)
	}
	return nil
}

// Strategy is one attempt at recovering a JSON document from a raw model
// response. Extract returns the recovered document and whether it succeeded.
type Strategy struct {
	Name    string
	Extract func(response string) ([]byte, bool)
}

// Chain tries an ordered list of recovery strategies until one succeeds.
// Each strategy is independent, so malformed responses fall through in order
// from the cheapest parse to the most permissive one.
type Chain struct {
	strategies []Strategy
	logger     *zap.Logger
}

// NewChain builds a chain from the given strategies, applied in order.
func NewChain(logger *zap.Logger, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, logger: logger.Named("ExtractChain")}
}

// Recover runs the chain and returns the recovered JSON document together with
// the name of the strategy that produced it.
func (c *Chain) Recover(response string) ([]byte, string, error) {
	for _, s := range c.strategies {
		if data, ok := s.Extract(response); ok {
			if s.Name != "direct" {
				c.logger.Debug("Recovered response through fallback strategy",
					zap.String("strategy", s.Name),
					zap.Int("responseLength", len(response)))
			}
			return data, s.Name, nil
		}
	}
	preview := response
	if len(preview) > 500 {
		preview = preview[:500]
	}
	return nil, "", fmt.Errorf("could not extract JSON from response: %s", preview)
}

// SceneChain is the recovery chain for code-generation responses: direct JSON,
// fenced JSON block, a {"code": ...} object anchored at the end of the
// response, and finally any fenced code block with a synthesized wrapper.
func SceneChain(logger *zap.Logger) *Chain {
	return NewChain(logger, DirectJSON(), FencedJSON(), StructuredTail(), RawCodeBlock())
}

// DecisionChain is the recovery chain for decision responses: direct JSON,
// fenced JSON block, then the first balanced JSON object in the response.
func DecisionChain(logger *zap.Logger) *Chain {
	return NewChain(logger, DirectJSON(), FencedJSON(), BraceSpan())
}

// DirectJSON accepts responses that already are a single JSON object.
func DirectJSON() Strategy {
	return Strategy{
		Name: "direct",
		Extract: func(response string) ([]byte, bool) {
			trimmed := strings.TrimSpace(response)
			if !strings.HasPrefix(trimmed, "{") || !json.Valid([]byte(trimmed)) {
				return nil, false
			}
			return []byte(trimmed), true
		},
	}
}

var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// FencedJSON recovers a JSON object wrapped in a markdown code fence.
func FencedJSON() Strategy {
	return Strategy{
		Name: "fenced-json",
		Extract: func(response string) ([]byte, bool) {
			match := fencedJSONPattern.FindStringSubmatch(response)
			if match == nil || !json.Valid([]byte(match[1])) {
				return nil, false
			}
			return []byte(match[1]), true
		},
	}
}

var structuredTailPattern = regexp.MustCompile(`(?s)\{\s*"code"\s*:\s*".*"\s*,\s*"reasoning"\s*:.*\}\s*$`)

// StructuredTail recovers a {"code": ..., "reasoning": ...} object anchored at
// the end of the response. Handles models that prepend commentary before the
// structured output.
func StructuredTail() Strategy {
	return Strategy{
		Name: "structured-tail",
		Extract: func(response string) ([]byte, bool) {
			match := structuredTailPattern.FindString(response)
			if match == "" {
				return nil, false
			}
			match = strings.TrimSpace(match)
			if !json.Valid([]byte(match)) {
				return nil, false
			}
			return []byte(match), true
		},
	}
}

var rawCodeBlockPattern = regexp.MustCompile("(?s)```(?:tsx?|jsx?|javascript)?\\s*\n(.*?)\n?```")

// RawCodeBlock is the last resort for code generation: when no JSON is
// recoverable at all, treat the contents of any fenced code block as the code
// and synthesize a minimal reasoning string.
func RawCodeBlock() Strategy {
	return Strategy{
		Name: "raw-code",
		Extract: func(response string) ([]byte, bool) {
			match := rawCodeBlockPattern.FindStringSubmatch(response)
			if match == nil || strings.TrimSpace(match[1]) == "" {
				return nil, false
			}
			synthesized, err := json.Marshal(GeneratedScene{
				Code:      match[1],
				Reasoning: "Code extracted from response",
				Changes:   []string{"Applied requested changes"},
			})
			if err != nil {
				return nil, false
			}
			return synthesized, true
		},
	}
}

// BraceSpan recovers the first balanced JSON object found in the response by
// scanning brace depth outside of string literals.
func BraceSpan() Strategy {
	return Strategy{
		Name: "brace-span",
		Extract: func(response string) ([]byte, bool) {
			start := strings.Index(response, "{")
			if start == -1 {
				return nil, false
			}
			candidate := response[start:]
			depth := 0
			inString := false
			escaped := false
			for i, r := range candidate {
				switch {
				case escaped:
					escaped = false
				case r == '\\' && inString:
					escaped = true
				case r == '"':
					inString = !inString
				case r == '{' && !inString:
					depth++
				case r == '}' && !inString:
					depth--
					if depth == 0 {
						span := candidate[:i+1]
						if !json.Valid([]byte(span)) {
							return nil, false
						}
						return []byte(span), true
					}
				}
			}
			return nil, false
		},
	}
}

// DetectTruncation flags responses that end in patterns inconsistent with
// well-formed output, or whose length matches the provider's hard response
// ceiling. It is a diagnostic: callers decide whether to reject or retry.
// A response that parses as valid JSON is never considered truncated.
func DetectTruncation(response string) (bool, string) {
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return false, ""
	}
	if json.Valid([]byte(trimmed)) {
		return false, ""
	}
	if len(response) == ResponseSizeCeiling {
		return true, fmt.Sprintf("response length equals the %d-char provider ceiling", ResponseSizeCeiling)
	}

	switch trimmed[len(trimmed)-1] {
	case '\\':
		return true, "response ends with a trailing backslash"
	case ',':
		return true, "response ends with a trailing comma"
	case ':':
		return true, "response ends with a trailing colon"
	case '[', '{':
		return true, "response ends with an unclosed bracket"
	}
	if unescapedQuoteCount(trimmed)%2 != 0 {
		return true, "response ends inside an unterminated string"
	}
	if !strings.HasSuffix(trimmed, "}") {
		return true, "response does not end with a closing brace"
	}
	return false, ""
}

func unescapedQuoteCount(s string) int {
	count := 0
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			count++
		}
	}
	return count
}
