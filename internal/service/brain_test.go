package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"motion-server/internal/ai"
	"motion-server/internal/ai/mocks"
	"motion-server/internal/models"
)

func newTestBrain(t *testing.T) (*Brain, *mocks.Client) {
	t.Helper()
	client := new(mocks.Client)
	return NewBrain(client, ai.NewRegistry(), zap.NewNop()), client
}

func packetWithScenes(scenes ...models.SceneContext) *models.ContextPacket {
	return &models.ContextPacket{
		SceneHistory:        scenes,
		ConversationSummary: "New conversation",
	}
}

func stubDecision(client *mocks.Client, response string) {
	client.On("Generate", mock.Anything, purposeBrainDecision, mock.Anything, mock.Anything, mock.Anything).
		Return(response, ai.UsageInfo{TotalTokens: 100}, nil)
}

func TestBrain_AddSceneOnEmptyStoryboard(t *testing.T) {
	brain, client := newTestBrain(t)
	stubDecision(client, `{"toolName": "addScene", "reasoning": "empty storyboard, user wants a new scene", "userFeedback": "Creating your intro!", "needsClarification": false}`)

	decision, err := brain.Decide(context.Background(), packetWithScenes(), "create an intro with the word Hello", models.UserContext{})

	require.NoError(t, err)
	require.False(t, decision.NeedsClarification())
	assert.Equal(t, models.ToolAddScene, decision.Op.Tool())
	assert.Equal(t, "Creating your intro!", decision.UserFeedback)
}

func TestBrain_AmbiguousEditTargetsNewestScene(t *testing.T) {
	brain, client := newTestBrain(t)
	oldScene := models.SceneContext{ID: uuid.New(), Name: "Intro", Order: 0, Duration: 150}
	newScene := models.SceneContext{ID: uuid.New(), Name: "Outro", Order: 1, Duration: 150}

	// model picked editScene but did not name a target
	stubDecision(client, `{"toolName": "editScene", "reasoning": "ambiguous edit, default to newest", "needsClarification": false}`)

	decision, err := brain.Decide(context.Background(), packetWithScenes(oldScene, newScene), "make it bigger", models.UserContext{})

	require.NoError(t, err)
	require.False(t, decision.NeedsClarification())
	edit, ok := decision.Op.(*models.EditScene)
	require.True(t, ok)
	assert.Equal(t, newScene.ID, edit.TargetSceneID)
}

func TestBrain_EditWithEmptyStoryboardAsksForClarification(t *testing.T) {
	brain, client := newTestBrain(t)
	stubDecision(client, `{"toolName": "editScene", "reasoning": "edit", "needsClarification": false}`)

	decision, err := brain.Decide(context.Background(), packetWithScenes(), "make it bigger", models.UserContext{})

	require.NoError(t, err)
	assert.True(t, decision.NeedsClarification())
	assert.NotEmpty(t, decision.ClarificationQuestion)
}

func TestBrain_TrimCarriesTargetDuration(t *testing.T) {
	brain, client := newTestBrain(t)
	scene := models.SceneContext{ID: uuid.New(), Name: "Intro", Order: 0, Duration: 150}
	stubDecision(client, fmt.Sprintf(
		`{"toolName": "trimScene", "targetSceneId": %q, "targetDuration": 90, "reasoning": "3 seconds at 30fps", "needsClarification": false}`,
		scene.ID))

	decision, err := brain.Decide(context.Background(), packetWithScenes(scene), "make scene 1 three seconds", models.UserContext{})

	require.NoError(t, err)
	trim, ok := decision.Op.(*models.TrimScene)
	require.True(t, ok)
	assert.Equal(t, scene.ID, trim.TargetSceneID)
	assert.Equal(t, 90, trim.TargetDuration)
}

func TestBrain_TrimWithoutDurationAsksForClarification(t *testing.T) {
	brain, client := newTestBrain(t)
	scene := models.SceneContext{ID: uuid.New(), Name: "Intro", Order: 0, Duration: 150}
	stubDecision(client, fmt.Sprintf(
		`{"toolName": "trimScene", "targetSceneId": %q, "reasoning": "trim", "needsClarification": false}`,
		scene.ID))

	decision, err := brain.Decide(context.Background(), packetWithScenes(scene), "shorten it", models.UserContext{})

	require.NoError(t, err)
	assert.True(t, decision.NeedsClarification())
}

func TestBrain_DeleteUnknownSceneAsksForClarification(t *testing.T) {
	brain, client := newTestBrain(t)
	scene := models.SceneContext{ID: uuid.New(), Name: "Intro", Order: 0, Duration: 150}
	stubDecision(client, fmt.Sprintf(
		`{"toolName": "deleteScene", "targetSceneId": %q, "reasoning": "remove", "needsClarification": false}`,
		uuid.New()))

	decision, err := brain.Decide(context.Background(), packetWithScenes(scene), "remove scene 5", models.UserContext{})

	require.NoError(t, err)
	assert.True(t, decision.NeedsClarification())
}

func TestBrain_BothToolAndClarificationResolvesToClarification(t *testing.T) {
	brain, client := newTestBrain(t)
	stubDecision(client, `{"toolName": "addScene", "needsClarification": true, "clarificationQuestion": "What should the scene show?", "reasoning": "conflicted"}`)

	decision, err := brain.Decide(context.Background(), packetWithScenes(), "something", models.UserContext{})

	require.NoError(t, err)
	assert.True(t, decision.NeedsClarification())
	assert.Equal(t, "What should the scene show?", decision.ClarificationQuestion)
	assert.NoError(t, decision.Validate())
}

func TestBrain_NeitherToolNorClarificationResolvesToClarification(t *testing.T) {
	brain, client := newTestBrain(t)
	stubDecision(client, `{"reasoning": "model forgot the tool", "needsClarification": false}`)

	decision, err := brain.Decide(context.Background(), packetWithScenes(), "something", models.UserContext{})

	require.NoError(t, err)
	assert.True(t, decision.NeedsClarification())
	assert.NotEmpty(t, decision.ClarificationQuestion)
}

func TestBrain_UnknownToolResolvesToClarification(t *testing.T) {
	brain, client := newTestBrain(t)
	stubDecision(client, `{"toolName": "mergeScenes", "reasoning": "made up a tool", "needsClarification": false}`)

	decision, err := brain.Decide(context.Background(), packetWithScenes(), "merge them", models.UserContext{})

	require.NoError(t, err)
	assert.True(t, decision.NeedsClarification())
}

func TestBrain_RecoversFencedDecision(t *testing.T) {
	brain, client := newTestBrain(t)
	stubDecision(client, "Here's my decision:\n```json\n{\"toolName\": \"addScene\", \"reasoning\": \"new scene\", \"needsClarification\": false}\n```")

	decision, err := brain.Decide(context.Background(), packetWithScenes(), "add a scene", models.UserContext{})

	require.NoError(t, err)
	assert.Equal(t, models.ToolAddScene, decision.Op.Tool())
}

func TestBrain_ModelFailureIsFatal(t *testing.T) {
	brain, client := newTestBrain(t)
	client.On("Generate", mock.Anything, purposeBrainDecision, mock.Anything, mock.Anything, mock.Anything).
		Return("", ai.UsageInfo{}, errors.New("provider unavailable"))

	_, err := brain.Decide(context.Background(), packetWithScenes(), "anything", models.UserContext{})

	assert.ErrorIs(t, err, models.ErrDecisionFailed)
}

func TestBrain_UnparseableResponseIsFatal(t *testing.T) {
	brain, client := newTestBrain(t)
	stubDecision(client, "I think you should edit the scene, probably.")

	_, err := brain.Decide(context.Background(), packetWithScenes(), "anything", models.UserContext{})

	assert.ErrorIs(t, err, models.ErrDecisionFailed)
}

func TestBrain_ErrorDetailsReachEditOperation(t *testing.T) {
	brain, client := newTestBrain(t)
	scene := models.SceneContext{ID: uuid.New(), Name: "Intro", Order: 0, Duration: 150}
	stubDecision(client, fmt.Sprintf(
		`{"toolName": "editScene", "targetSceneId": %q, "reasoning": "fix the error", "needsClarification": false}`,
		scene.ID))

	decision, err := brain.Decide(context.Background(), packetWithScenes(scene), "fix it",
		models.UserContext{ErrorDetails: "ReferenceError: frame is not defined"})

	require.NoError(t, err)
	edit, ok := decision.Op.(*models.EditScene)
	require.True(t, ok)
	assert.Equal(t, "ReferenceError: frame is not defined", edit.ErrorContext)
}
