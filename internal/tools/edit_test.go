package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"motion-server/internal/ai"
	"motion-server/internal/ai/mocks"
)

func jsonString(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

func newMockedEditTool(t *testing.T) (*EditTool, *mocks.Client) {
	t.Helper()
	client := new(mocks.Client)
	client.On("Model").Return("gemini-2.0-flash").Maybe()
	return NewEditTool(client, ai.NewRegistry(), zap.NewNop()), client
}

func TestEditTool_KeepsDurationWhenTimingUnchanged(t *testing.T) {
	tool, client := newMockedEditTool(t)

	response := `{"code": ` + jsonString(validSceneCode) + `, "reasoning": "recolored", "changes": ["changed background to blue"]}`
	client.On("Generate", mock.Anything, purposeSceneEdit, mock.Anything, mock.Anything, mock.Anything).
		Return(response, ai.UsageInfo{TotalTokens: 300}, nil)

	result, err := tool.Run(context.Background(), EditInput{
		UserPrompt:      "make it blue",
		SceneID:         uuid.New(),
		Code:            validSceneCode,
		CurrentDuration: 150,
	})

	assert.NoError(t, err)
	assert.Nil(t, result.Duration)
	assert.Equal(t, []string{"changed background to blue"}, result.Changes)
	assert.Equal(t, 300, result.TokensUsed)
}

func TestEditTool_ReportsNewDuration(t *testing.T) {
	tool, client := newMockedEditTool(t)

	response := `{"code": ` + jsonString(validSceneCode) + `, "reasoning": "compressed", "changes": ["sped up"], "newDurationFrames": 90}`
	client.On("Generate", mock.Anything, purposeSceneEdit, mock.Anything, mock.Anything, mock.Anything).
		Return(response, ai.UsageInfo{}, nil)

	result, err := tool.Run(context.Background(), EditInput{
		UserPrompt:      "fit it into 3 seconds",
		SceneID:         uuid.New(),
		Code:            validSceneCode,
		CurrentDuration: 150,
	})

	assert.NoError(t, err)
	if assert.NotNil(t, result.Duration) {
		assert.Equal(t, 90, *result.Duration)
	}
}

func TestEditTool_ErrorContextInPrompt(t *testing.T) {
	tool, client := newMockedEditTool(t)

	response := `{"code": ` + jsonString(validSceneCode) + `, "reasoning": "fixed"}`
	client.On("Generate", mock.Anything, purposeSceneEdit, mock.Anything,
		mock.MatchedBy(func(messages []ai.Message) bool {
			return len(messages) == 1 && strings.Contains(messages[0].Content, "ReferenceError: foo is not defined")
		}), mock.Anything).
		Return(response, ai.UsageInfo{}, nil)

	_, err := tool.Run(context.Background(), EditInput{
		UserPrompt:      "fix it",
		SceneID:         uuid.New(),
		Code:            validSceneCode,
		CurrentDuration: 150,
		ErrorContext:    "ReferenceError: foo is not defined",
	})

	assert.NoError(t, err)
	client.AssertExpectations(t)
}

func TestEditTool_RawCodeBlockFallback(t *testing.T) {
	tool, client := newMockedEditTool(t)

	response := "I couldn't format JSON, here is the code:\n```tsx\n" + validSceneCode + "\n```"
	client.On("Generate", mock.Anything, purposeSceneEdit, mock.Anything, mock.Anything, mock.Anything).
		Return(response, ai.UsageInfo{}, nil)

	result, err := tool.Run(context.Background(), EditInput{
		UserPrompt:      "anything",
		SceneID:         uuid.New(),
		Code:            validSceneCode,
		CurrentDuration: 150,
	})

	assert.NoError(t, err)
	assert.Equal(t, validSceneCode, result.Code)
	assert.Nil(t, result.Duration)
}

func TestEditTool_TruncatedResponseFails(t *testing.T) {
	tool, client := newMockedEditTool(t)

	client.On("Generate", mock.Anything, purposeSceneEdit, mock.Anything, mock.Anything, mock.Anything).
		Return(`{"code": "const x",`, ai.UsageInfo{}, nil)

	_, err := tool.Run(context.Background(), EditInput{
		UserPrompt:      "anything",
		SceneID:         uuid.New(),
		Code:            validSceneCode,
		CurrentDuration: 150,
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "truncated")
}
