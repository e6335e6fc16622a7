package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"motion-server/internal/models"
	repomocks "motion-server/internal/repository/mocks"
)

type mockAnalyzer struct{ mock.Mock }

func (m *mockAnalyzer) Analyze(ctx context.Context, targetURL string) (*models.WebContext, error) {
	args := m.Called(ctx, targetURL)
	if web, ok := args.Get(0).(*models.WebContext); ok {
		return web, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestContextBuilder_AssemblesFullPacket(t *testing.T) {
	scenes := new(repomocks.SceneRepository)
	builder := NewContextBuilder(nil, scenes, nil, zap.NewNop())
	projectID := uuid.New()

	stored := []models.Scene{
		{ID: uuid.New(), ProjectID: projectID, Order: 0, Name: "Intro", Code: "intro code", Duration: 150},
		{ID: uuid.New(), ProjectID: projectID, Order: 1, Name: "Outro", Code: "outro code", Duration: 90},
	}
	scenes.On("ListByProject", mock.Anything, mock.Anything, projectID).Return(stored, nil)

	history := []models.ChatMessage{
		{Role: "user", Content: "create an intro"},
		{Role: "assistant", Content: "Done!"},
		{Role: "user", Content: "change the background color", ImageURLs: []string{"https://cdn/ref.png"}},
	}

	packet := builder.Build(context.Background(), projectID, "make it pop", history,
		models.UserContext{ImageURLs: []string{"https://cdn/current.png"}})

	require.Len(t, packet.SceneHistory, 2)
	assert.Equal(t, "intro code", packet.SceneHistory[0].Code)
	assert.Contains(t, packet.ConversationSummary, "scene creation")
	assert.Contains(t, packet.ConversationSummary, "styling")
	assert.Len(t, packet.RecentMessages, 3)
	assert.Equal(t, []string{"https://cdn/current.png"}, packet.ImageContext.CurrentImages)
	require.Len(t, packet.ImageContext.RecentImagesFromChat, 1)
	assert.Equal(t, 3, packet.ImageContext.RecentImagesFromChat[0].Position)
	assert.Nil(t, packet.WebContext)
}

func TestContextBuilder_DegradesToMinimalPacketOnStorageFailure(t *testing.T) {
	scenes := new(repomocks.SceneRepository)
	builder := NewContextBuilder(nil, scenes, nil, zap.NewNop())
	projectID := uuid.New()

	scenes.On("ListByProject", mock.Anything, mock.Anything, projectID).
		Return(nil, errors.New("storage unavailable"))

	packet := builder.Build(context.Background(), projectID, "anything",
		[]models.ChatMessage{{Role: "user", Content: "hello"}}, models.UserContext{})

	assert.Empty(t, packet.SceneHistory)
	assert.Equal(t, "New conversation", packet.ConversationSummary)
	assert.Nil(t, packet.WebContext)
}

func TestContextBuilder_BoundsRecentMessages(t *testing.T) {
	scenes := new(repomocks.SceneRepository)
	builder := NewContextBuilder(nil, scenes, nil, zap.NewNop())
	projectID := uuid.New()
	scenes.On("ListByProject", mock.Anything, mock.Anything, projectID).Return([]models.Scene{}, nil)

	var history []models.ChatMessage
	for i := 0; i < 12; i++ {
		history = append(history, models.ChatMessage{Role: "user", Content: "turn"})
	}

	packet := builder.Build(context.Background(), projectID, "anything", history, models.UserContext{})

	assert.Len(t, packet.RecentMessages, recentMessageWindow)
}

func TestContextBuilder_WebContextOnlyForURLPrompts(t *testing.T) {
	scenes := new(repomocks.SceneRepository)
	analyzer := new(mockAnalyzer)
	builder := NewContextBuilder(nil, scenes, analyzer, zap.NewNop())
	projectID := uuid.New()
	scenes.On("ListByProject", mock.Anything, mock.Anything, projectID).Return([]models.Scene{}, nil)

	analyzer.On("Analyze", mock.Anything, "https://stripe.com").
		Return(&models.WebContext{OriginalURL: "https://stripe.com"}, nil)

	withURL := builder.Build(context.Background(), projectID, "stripe.com", nil, models.UserContext{})
	require.NotNil(t, withURL.WebContext)
	assert.Equal(t, "https://stripe.com", withURL.WebContext.OriginalURL)

	plain := builder.Build(context.Background(), projectID, "add a neon intro", nil, models.UserContext{})
	assert.Nil(t, plain.WebContext)
	analyzer.AssertNumberOfCalls(t, "Analyze", 1)
}

func TestContextBuilder_AnalyzerFailureDegradesToNoWebContext(t *testing.T) {
	scenes := new(repomocks.SceneRepository)
	analyzer := new(mockAnalyzer)
	builder := NewContextBuilder(nil, scenes, analyzer, zap.NewNop())
	projectID := uuid.New()
	scenes.On("ListByProject", mock.Anything, mock.Anything, projectID).Return([]models.Scene{}, nil)
	analyzer.On("Analyze", mock.Anything, mock.Anything).Return(nil, errors.New("analyzer down"))

	packet := builder.Build(context.Background(), projectID, "https://stripe.com please", nil, models.UserContext{})

	assert.Nil(t, packet.WebContext)
	assert.NotNil(t, packet)
}
