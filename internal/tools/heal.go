package tools

import (
	"regexp"
	"strings"
)

// The generation model is prone to one specific mistake: naming the frame
// variable currentFrame instead of frame, in three variations. These are
// narrow, named rewrite rules reproduced exactly; they are not a general
// code-repair system.

var (
	currentFrameDeclPattern  = regexp.MustCompile(`const currentFrame = useCurrentFrame\(\)`)
	currentFrameIdentPattern = regexp.MustCompile(`\bcurrentFrame\b`)
	duplicateDeclPattern     = regexp.MustCompile(`(?m)^\s*const currentFrame\s*=.*$`)
	destructurePattern       = regexp.MustCompile(`(const\s*\{[^}]*?)\bcurrentFrame\b([^}]*\}\s*=\s*window\.Remotion)`)
)

const (
	healRuleRenameDecl      = "renamed currentFrame declaration to frame"
	healRuleDropDuplicate   = "removed duplicate currentFrame declaration"
	healRuleFixDestructure  = "fixed currentFrame destructuring of window.Remotion"
)

// HealGeneratedCode applies the named frame-variable corrections and reports
// which rules fired.
func HealGeneratedCode(code string) (string, []string) {
	var applied []string

	// Rule 1: a currentFrame declaration gets renamed to frame, along with
	// every other use of the identifier outside the window.Remotion
	// destructure (that case belongs to rule 3).
	if currentFrameDeclPattern.MatchString(code) {
		code = currentFrameDeclPattern.ReplaceAllString(code, "const frame = useCurrentFrame()")
		code = replaceIdentifierOutsideDestructure(code)
		applied = append(applied, healRuleRenameDecl)
	}

	// Rule 2: both frame and currentFrame declared, drop the stray one.
	if strings.Contains(code, "const frame = useCurrentFrame()") && strings.Contains(code, "const currentFrame") {
		code = duplicateDeclPattern.ReplaceAllString(code, "")
		applied = append(applied, healRuleDropDuplicate)
	}

	// Rule 3: currentFrame destructured from window.Remotion instead of
	// useCurrentFrame.
	if destructurePattern.MatchString(code) {
		code = destructurePattern.ReplaceAllString(code, "${1}useCurrentFrame${2}")
		applied = append(applied, healRuleFixDestructure)
	}

	return code, applied
}

// replaceIdentifierOutsideDestructure rewrites currentFrame to frame on every
// line except the window.Remotion destructure.
func replaceIdentifierOutsideDestructure(code string) string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		if strings.Contains(line, "window.Remotion") {
			continue
		}
		lines[i] = currentFrameIdentPattern.ReplaceAllString(line, "frame")
	}
	return strings.Join(lines, "\n")
}
