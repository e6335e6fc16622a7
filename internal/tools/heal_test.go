package tools

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealGeneratedCode_RenamesCurrentFrameDeclaration(t *testing.T) {
	code := `const { AbsoluteFill, useCurrentFrame } = window.Remotion;
export default function Scene() {
  const currentFrame = useCurrentFrame();
  const opacity = interpolate(currentFrame, [0, 30], [0, 1]);
  return null;
}`

	healed, applied := HealGeneratedCode(code)

	assert.Contains(t, healed, "const frame = useCurrentFrame()")
	assert.Contains(t, healed, "interpolate(frame, [0, 30], [0, 1])")
	assert.NotContains(t, healed, "currentFrame")
	assert.Equal(t, []string{healRuleRenameDecl}, applied)
}

func TestHealGeneratedCode_PreservesRemotionDestructureLine(t *testing.T) {
	code := `const { AbsoluteFill, useCurrentFrame } = window.Remotion;
const currentFrame = useCurrentFrame();`

	healed, _ := HealGeneratedCode(code)

	assert.Contains(t, healed, "const { AbsoluteFill, useCurrentFrame } = window.Remotion;")
}

func TestHealGeneratedCode_RemovesDuplicateDeclaration(t *testing.T) {
	code := `const frame = useCurrentFrame();
const currentFrame = frame;
const x = frame * 2;`

	healed, applied := HealGeneratedCode(code)

	assert.NotContains(t, healed, "const currentFrame")
	assert.Contains(t, healed, "const frame = useCurrentFrame();")
	assert.Equal(t, []string{healRuleDropDuplicate}, applied)
}

func TestHealGeneratedCode_FixesRemotionDestructure(t *testing.T) {
	code := `const { AbsoluteFill, currentFrame, interpolate } = window.Remotion;`

	healed, applied := HealGeneratedCode(code)

	assert.Contains(t, healed, "const { AbsoluteFill, useCurrentFrame, interpolate } = window.Remotion;")
	assert.Equal(t, []string{healRuleFixDestructure}, applied)
}

func TestHealGeneratedCode_CleanCodeUntouched(t *testing.T) {
	code := `const { AbsoluteFill, useCurrentFrame } = window.Remotion;
export default function Scene() {
  const frame = useCurrentFrame();
  return null;
}`

	healed, applied := HealGeneratedCode(code)

	assert.Equal(t, code, healed)
	assert.Empty(t, applied)
}

func TestHealGeneratedCode_MultipleRulesStack(t *testing.T) {
	code := `const { AbsoluteFill, currentFrame } = window.Remotion;
const currentFrame = useCurrentFrame();
const y = currentFrame + 1;`

	healed, applied := HealGeneratedCode(code)

	assert.Contains(t, healed, "useCurrentFrame")
	assert.False(t, strings.Contains(healed, "const currentFrame"))
	assert.Contains(t, applied, healRuleRenameDecl)
	assert.Contains(t, applied, healRuleFixDestructure)
}
