package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/yourusername/studyjams-leaderboard/internal/domain/entity"
	apperrors "github.com/yourusername/studyjams-leaderboard/internal/pkg/errors"
)

type fakeModels struct {
	prompt string
	model  string
	resp   *genai.GenerateContentResponse
	err    error
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	return f.resp, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: genai.RoleModel}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

type MockDigestSender struct {
	mock.Mock
}

func (m *MockDigestSender) SendDigest(ctx context.Context, d Digest) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func TestBuildInsightPrompt_EmbedsNameScoreJSON(t *testing.T) {
	prompt, err := BuildInsightPrompt([]entity.ScoreEntry{{Name: "Alice", Score: 12}})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(prompt, `Participant Data: [{"name":"Alice","score":12}]`))
	assert.Contains(t, prompt, "plateau of productivity")

	prompt, err = BuildInsightPrompt(nil)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(prompt, "Participant Data: []"))
}

func TestGenAIInsightService_Generate(t *testing.T) {
	models := &fakeModels{resp: textResponse("Alice is ahead.", " Bob should try arcade games.")}
	svc := newGenAIInsightService(models, "gemini-test", time.Second)

	text, err := svc.Generate(context.Background(), []entity.ScoreEntry{{Name: "Alice", Score: 12}, {Name: "Bob", Score: 5}})

	require.NoError(t, err)
	assert.Equal(t, "Alice is ahead. Bob should try arcade games.", text)
	assert.Equal(t, "gemini-test", models.model)

	idx := strings.Index(models.prompt, "Participant Data: ")
	require.GreaterOrEqual(t, idx, 0)
	var sent []entity.ScoreEntry
	require.NoError(t, json.Unmarshal([]byte(models.prompt[idx+len("Participant Data: "):]), &sent))
	assert.Len(t, sent, 2)
}

func TestGenAIInsightService_Errors(t *testing.T) {
	svc := newGenAIInsightService(&fakeModels{err: errors.New("quota exceeded")}, "m", time.Second)
	_, err := svc.Generate(context.Background(), nil)
	assert.ErrorContains(t, err, "quota exceeded")

	svc = newGenAIInsightService(&fakeModels{resp: &genai.GenerateContentResponse{}}, "m", time.Second)
	_, err = svc.Generate(context.Background(), nil)
	assert.ErrorContains(t, err, "empty response")
}

func TestNewGenAIInsightService_RequiresKey(t *testing.T) {
	_, err := NewGenAIInsightService(context.Background(), "", "", 0)
	assert.ErrorIs(t, err, ErrInsightsDisabled)
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}

func TestInsightService_DisabledGenerator(t *testing.T) {
	source := new(MockLeaderboardSource)
	source.On("Run", mock.Anything).Return(testBoard(), nil)
	svc := NewInsightService(NewLeaderboardService(source, nil, 0, "", nil), nil, nil, nil)

	_, err := svc.Generate(context.Background())
	assert.ErrorIs(t, err, ErrInsightsDisabled)
}

func TestInsightService_SendDigest(t *testing.T) {
	source := new(MockLeaderboardSource)
	source.On("Run", mock.Anything).Return(testBoard(), nil)
	models := &fakeModels{resp: textResponse("Carol needs a nudge.")}
	digest := new(MockDigestSender)
	digest.On("SendDigest", mock.Anything, mock.MatchedBy(func(d Digest) bool {
		return d.Insights == "Carol needs a nudge." && d.Stats.Total == 3 && d.Stats.Eligible == 2
	})).Return(nil)

	svc := NewInsightService(
		NewLeaderboardService(source, nil, 0, "", nil),
		newGenAIInsightService(models, "m", time.Second),
		digest,
		nil,
	)

	require.NoError(t, svc.SendDigest(context.Background()))
	digest.AssertExpectations(t)
	assert.Contains(t, models.prompt, `{"name":"Carol","score":5}`)
}
