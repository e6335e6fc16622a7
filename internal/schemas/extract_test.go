package schemas

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSceneChain_DirectJSON(t *testing.T) {
	chain := SceneChain(zap.NewNop())

	data, strategy, err := chain.Recover(`{"code": "const A = 1;", "reasoning": "done"}`)

	require.NoError(t, err)
	assert.Equal(t, "direct", strategy)

	scene, err := ParseGeneratedScene(data)
	require.NoError(t, err)
	assert.Equal(t, "const A = 1;", scene.Code)
	assert.Equal(t, "done", scene.Reasoning)
}

func TestSceneChain_FencedJSON(t *testing.T) {
	chain := SceneChain(zap.NewNop())
	response := "Here is the scene you asked for:\n```json\n{\"code\": \"const A = 1;\", \"name\": \"Intro\"}\n```\nLet me know if you need changes."

	data, strategy, err := chain.Recover(response)

	require.NoError(t, err)
	assert.Equal(t, "fenced-json", strategy)

	scene, err := ParseGeneratedScene(data)
	require.NoError(t, err)
	assert.Equal(t, "Intro", scene.Name)
}

func TestSceneChain_StructuredTail(t *testing.T) {
	chain := SceneChain(zap.NewNop())
	response := `I updated the animation timing as requested. {"code": "const A = 1;", "reasoning": "slowed the fade"}`

	data, strategy, err := chain.Recover(response)

	require.NoError(t, err)
	assert.Equal(t, "structured-tail", strategy)

	scene, err := ParseGeneratedScene(data)
	require.NoError(t, err)
	assert.Equal(t, "slowed the fade", scene.Reasoning)
}

func TestSceneChain_RawCodeBlockSynthesizesWrapper(t *testing.T) {
	chain := SceneChain(zap.NewNop())
	response := "```tsx\nexport const Scene = () => null;\n```"

	data, strategy, err := chain.Recover(response)

	require.NoError(t, err)
	assert.Equal(t, "raw-code", strategy)

	scene, err := ParseGeneratedScene(data)
	require.NoError(t, err)
	assert.Equal(t, "export const Scene = () => null;", scene.Code)
	assert.NotEmpty(t, scene.Reasoning)
	assert.NotEmpty(t, scene.Changes)
}

func TestSceneChain_PrimaryAndFencedAgree(t *testing.T) {
	chain := SceneChain(zap.NewNop())
	doc := `{"code": "const A = 1;", "name": "Intro", "duration": 90}`

	direct, _, err := chain.Recover(doc)
	require.NoError(t, err)
	fenced, _, err := chain.Recover("```json\n" + doc + "\n```")
	require.NoError(t, err)

	directScene, err := ParseGeneratedScene(direct)
	require.NoError(t, err)
	fencedScene, err := ParseGeneratedScene(fenced)
	require.NoError(t, err)
	assert.Equal(t, directScene, fencedScene)
}

func TestDecisionChain_BraceSpanInsideProse(t *testing.T) {
	chain := DecisionChain(zap.NewNop())
	response := `Sure! My decision: {"toolName": "editScene", "reasoning": "the {user} asked for it"} hope that helps`

	data, strategy, err := chain.Recover(response)

	require.NoError(t, err)
	assert.Equal(t, "brace-span", strategy)

	var decision struct {
		ToolName  string `json:"toolName"`
		Reasoning string `json:"reasoning"`
	}
	require.NoError(t, ParseInto(data, &decision))
	assert.Equal(t, "editScene", decision.ToolName)
	assert.Equal(t, "the {user} asked for it", decision.Reasoning)
}

func TestChain_NothingRecoverable(t *testing.T) {
	chain := DecisionChain(zap.NewNop())

	_, _, err := chain.Recover("I am not able to help with that request.")

	assert.Error(t, err)
}

func TestDetectTruncation(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		truncated bool
	}{
		{"empty response", "", false},
		{"valid json is never truncated", `{"code": "x"}`, false},
		{"trailing backslash", `{"code": "const A = \`, true},
		{"trailing comma", `{"code": "x",`, true},
		{"trailing colon", `{"code":`, true},
		{"unclosed bracket", `{"changes": [`, true},
		{"unterminated string", `{"code": "const A = 1`, true},
		{"missing closing brace", "some prose without an object ending", true},
		{"balanced but invalid json", `{"code": broken}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			truncated, reason := DetectTruncation(tt.response)
			assert.Equal(t, tt.truncated, truncated)
			if tt.truncated {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestDetectTruncation_ResponseCeiling(t *testing.T) {
	response := strings.Repeat("a", ResponseSizeCeiling)

	truncated, reason := DetectTruncation(response)

	assert.True(t, truncated)
	assert.Contains(t, reason, "ceiling")
}
