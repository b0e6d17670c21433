package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/yourusername/studyjams-leaderboard/internal/domain/entity"
	apperrors "github.com/yourusername/studyjams-leaderboard/internal/pkg/errors"
)

// ErrInsightsDisabled возвращается, когда ключ API для генерации не настроен
var ErrInsightsDisabled = fmt.Errorf("insights are disabled: %w", apperrors.ErrUnavailable)

const insightPromptTemplate = `You are an AI assistant that provides actionable insights based on participant data from a leaderboard.

Analyze the following participant data and provide actionable insights, such as identifying people in a 'plateau of productivity' stage and actions to help them improve.  Return the insights as a string.

Participant Data: %s`

// BuildInsightPrompt подставляет JSON-массив {name, score} в шаблон запроса
func BuildInsightPrompt(data []entity.ScoreEntry) (string, error) {
	if data == nil {
		data = []entity.ScoreEntry{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal participant data: %w", err)
	}
	return fmt.Sprintf(insightPromptTemplate, payload), nil
}

// InsightGenerator превращает проекцию {name, score} в текст с рекомендациями
type InsightGenerator interface {
	Generate(ctx context.Context, data []entity.ScoreEntry) (string, error)
}

// contentGenerator — часть genai.Models, которая нам нужна
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAIInsightService генерирует инсайты через Gemini API
type GenAIInsightService struct {
	models  contentGenerator
	model   string
	timeout time.Duration
}

// NewGenAIInsightService создает клиента Gemini. Пустой ключ — ошибка ErrInsightsDisabled.
func NewGenAIInsightService(ctx context.Context, apiKey, model string, timeout time.Duration) (*GenAIInsightService, error) {
	if apiKey == "" {
		return nil, ErrInsightsDisabled
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGenAIInsightService(client.Models, model, timeout), nil
}

func newGenAIInsightService(models contentGenerator, model string, timeout time.Duration) *GenAIInsightService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GenAIInsightService{models: models, model: model, timeout: timeout}
}

// Generate отправляет запрос модели и собирает текст всех частей первого кандидата
func (s *GenAIInsightService) Generate(ctx context.Context, data []entity.ScoreEntry) (string, error) {
	prompt, err := BuildInsightPrompt(data)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.models.GenerateContent(ctx, s.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", errors.New("GenAI returned an empty response")
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

// DisabledInsightGenerator используется, когда генерация не настроена
type DisabledInsightGenerator struct{}

func (DisabledInsightGenerator) Generate(ctx context.Context, data []entity.ScoreEntry) (string, error) {
	return "", ErrInsightsDisabled
}

// InsightService связывает текущий рейтинг, генератор и рассылку дайджеста
type InsightService struct {
	leaderboard *LeaderboardService
	generator   InsightGenerator
	digest      DigestSender
	logger      *zap.Logger
}

// NewInsightService создает сервис инсайтов
func NewInsightService(leaderboard *LeaderboardService, generator InsightGenerator, digest DigestSender, logger *zap.Logger) *InsightService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if generator == nil {
		generator = DisabledInsightGenerator{}
	}
	if digest == nil {
		digest = NewNoopDigestSender(logger)
	}
	return &InsightService{
		leaderboard: leaderboard,
		generator:   generator,
		digest:      digest,
		logger:      logger,
	}
}

// GenerateForScores генерирует инсайты по готовой проекции {name, score}
func (s *InsightService) GenerateForScores(ctx context.Context, data []entity.ScoreEntry) (string, error) {
	insights, err := s.generator.Generate(ctx, data)
	if err != nil {
		s.logger.Error("insight generation failed", zap.Int("participants", len(data)), zap.Error(err))
		return "", err
	}
	return insights, nil
}

// GenerateForEntries генерирует инсайты по переданным участникам
func (s *InsightService) GenerateForEntries(ctx context.Context, entries []entity.RankedEntry) (string, error) {
	return s.GenerateForScores(ctx, ScoreProjection(entries))
}

// Generate генерирует инсайты по текущему рейтингу
func (s *InsightService) Generate(ctx context.Context) (string, error) {
	board := s.leaderboard.Leaderboard(ctx)
	return s.GenerateForEntries(ctx, board.Entries)
}

// SendDigest генерирует инсайты и рассылает их организаторам
func (s *InsightService) SendDigest(ctx context.Context) error {
	board := s.leaderboard.Leaderboard(ctx)
	insights, err := s.GenerateForEntries(ctx, board.Entries)
	if err != nil {
		return err
	}
	if err := s.digest.SendDigest(ctx, Digest{Stats: *StatsOf(board), Insights: insights}); err != nil {
		s.logger.Error("digest delivery failed", zap.Error(err))
		return err
	}
	return nil
}
