package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"motion-server/internal/ai"
	"motion-server/internal/ai/mocks"
	"motion-server/internal/models"
)

var validSceneCode = `const { AbsoluteFill, useCurrentFrame, interpolate } = window.Remotion;
export default function Scene() {
  const frame = useCurrentFrame();
  const opacity = interpolate(frame, [0, 30], [0, 1], { extrapolateLeft: "clamp", extrapolateRight: "clamp" });
  return <AbsoluteFill style={{ opacity }} />;
}`

func newMockedAddTool(t *testing.T) (*AddTool, *mocks.Client) {
	t.Helper()
	client := new(mocks.Client)
	client.On("Model").Return("gemini-2.0-flash").Maybe()
	return NewAddTool(client, ai.NewRegistry(), zap.NewNop()), client
}

func TestAddTool_GeneratesScene(t *testing.T) {
	tool, client := newMockedAddTool(t)

	response := `{"code": ` + jsonString(validSceneCode) + `, "name": "Neon Intro", "duration": 180, "reasoning": "Built a fade-in title"}`
	client.On("Generate", mock.Anything, purposeSceneGeneration, mock.Anything, mock.Anything, mock.Anything).
		Return(response, ai.UsageInfo{TotalTokens: 420}, nil)

	result, err := tool.Run(context.Background(), AddInput{
		UserPrompt:  "neon intro",
		ProjectID:   uuid.New(),
		SceneNumber: 1,
	})

	assert.NoError(t, err)
	assert.Equal(t, "Neon Intro", result.Name)
	assert.Equal(t, 180, result.Duration)
	assert.Equal(t, validSceneCode, result.Code)
	assert.Equal(t, 420, result.TokensUsed)
	assert.Equal(t, "gemini-2.0-flash", result.ModelUsed)
}

func TestAddTool_NameAndDurationFallbacks(t *testing.T) {
	tool, client := newMockedAddTool(t)

	response := `{"code": ` + jsonString(validSceneCode) + `, "reasoning": "done"}`
	client.On("Generate", mock.Anything, purposeSceneGeneration, mock.Anything, mock.Anything, mock.Anything).
		Return(response, ai.UsageInfo{}, nil)

	result, err := tool.Run(context.Background(), AddInput{
		UserPrompt:  "something",
		ProjectID:   uuid.New(),
		SceneNumber: 3,
	})

	assert.NoError(t, err)
	assert.Equal(t, "Scene 3", result.Name)
	assert.Equal(t, models.DefaultSceneDuration, result.Duration)
}

func TestAddTool_RecoversFencedResponse(t *testing.T) {
	tool, client := newMockedAddTool(t)

	response := "Here is your scene:\n```json\n{\"code\": " + jsonString(validSceneCode) + ", \"name\": \"Wrapped\", \"duration\": 90}\n```"
	client.On("Generate", mock.Anything, purposeSceneGeneration, mock.Anything, mock.Anything, mock.Anything).
		Return(response, ai.UsageInfo{}, nil)

	result, err := tool.Run(context.Background(), AddInput{
		UserPrompt:  "wrapped",
		ProjectID:   uuid.New(),
		SceneNumber: 1,
	})

	assert.NoError(t, err)
	assert.Equal(t, "Wrapped", result.Name)
	assert.Equal(t, 90, result.Duration)
}

func TestAddTool_TruncatedResponseFails(t *testing.T) {
	tool, client := newMockedAddTool(t)

	truncated := `{"code": "const { AbsoluteFill } = window.Remotion;`
	client.On("Generate", mock.Anything, purposeSceneGeneration, mock.Anything, mock.Anything, mock.Anything).
		Return(truncated, ai.UsageInfo{}, nil)

	_, err := tool.Run(context.Background(), AddInput{
		UserPrompt:  "anything",
		ProjectID:   uuid.New(),
		SceneNumber: 1,
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")
}

func TestAddTool_ShortCodeRejected(t *testing.T) {
	tool, client := newMockedAddTool(t)

	response := `{"code": "export default () => null;", "name": "Tiny", "duration": 60}`
	client.On("Generate", mock.Anything, purposeSceneGeneration, mock.Anything, mock.Anything, mock.Anything).
		Return(response, ai.UsageInfo{}, nil)

	_, err := tool.Run(context.Background(), AddInput{
		UserPrompt:  "tiny",
		ProjectID:   uuid.New(),
		SceneNumber: 1,
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "too short")
}

func TestAddTool_HealsGeneratedCode(t *testing.T) {
	tool, client := newMockedAddTool(t)

	broken := strings.ReplaceAll(validSceneCode, "const frame = useCurrentFrame()", "const currentFrame = useCurrentFrame()")
	broken = strings.ReplaceAll(broken, "interpolate(frame", "interpolate(currentFrame")
	response := `{"code": ` + jsonString(broken) + `, "name": "Broken", "duration": 120}`
	client.On("Generate", mock.Anything, purposeSceneGeneration, mock.Anything, mock.Anything, mock.Anything).
		Return(response, ai.UsageInfo{}, nil)

	result, err := tool.Run(context.Background(), AddInput{
		UserPrompt:  "fix me",
		ProjectID:   uuid.New(),
		SceneNumber: 1,
	})

	assert.NoError(t, err)
	assert.Contains(t, result.Code, "const frame = useCurrentFrame()")
	assert.NotContains(t, result.Code, "const currentFrame")
}

func TestAnalyzeCodeDuration(t *testing.T) {
	assert.Equal(t, 240, analyzeCodeDuration("// durationInFrames: 240"))
	assert.Equal(t, models.DefaultSceneDuration, analyzeCodeDuration("const x = 1;"))
}
