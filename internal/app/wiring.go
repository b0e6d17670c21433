// Package app собирает компоненты из конфигурации. Используется и сервером, и CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yourusername/studyjams-leaderboard/internal/config"
	"github.com/yourusername/studyjams-leaderboard/internal/domain/repository"
	"github.com/yourusername/studyjams-leaderboard/internal/ingest"
	"github.com/yourusername/studyjams-leaderboard/internal/repository/mock"
	"github.com/yourusername/studyjams-leaderboard/internal/repository/sheet"
	"github.com/yourusername/studyjams-leaderboard/internal/service"
)

// NewFetcher выбирает источник по source.mode
func NewFetcher(cfg *config.Config, logger *zap.Logger) (repository.SourceFetcher, error) {
	switch cfg.Source.Mode {
	case config.SourceModeMock:
		f, err := mock.NewFetcher(cfg.Columns, cfg.Sentinels)
		if err != nil {
			return nil, err
		}
		return f, nil
	case config.SourceModeRemote:
		f, err := sheet.NewFetcher(sheet.Options{
			URL:            cfg.Source.URL,
			Format:         cfg.Source.Format,
			Timeout:        cfg.Source.Timeout,
			MaxAttempts:    cfg.Source.MaxAttempts,
			InitialBackoff: cfg.Source.InitialBackoff,
			MaxBackoff:     cfg.Source.MaxBackoff,
		}, nil, logger.Named("sheet"))
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported source mode: %q", cfg.Source.Mode)
	}
}

// NewPipeline собирает источник, нормализатор и ранжирование
func NewPipeline(cfg *config.Config, logger *zap.Logger) (*ingest.Pipeline, error) {
	fetcher, err := NewFetcher(cfg, logger)
	if err != nil {
		return nil, err
	}

	formula, err := ingest.ParseScoreFormula(cfg.Ranking.Formula)
	if err != nil {
		return nil, err
	}

	return ingest.NewPipeline(
		fetcher,
		ingest.NewNormalizerFromConfig(cfg),
		ingest.NewRanker(formula, cfg.Ranking.MedalThreshold),
		cfg.Source.Sheet,
		logger.Named("ingest"),
	), nil
}

// NewInsightGenerator возвращает генератор Gemini или заглушку, если ключ не задан
func NewInsightGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) (service.InsightGenerator, error) {
	gen, err := service.NewGenAIInsightService(ctx, cfg.Insights.APIKey, cfg.Insights.Model, cfg.Insights.Timeout)
	if errors.Is(err, service.ErrInsightsDisabled) {
		logger.Info("GEMINI_API_KEY is not set, insights are disabled")
		return service.DisabledInsightGenerator{}, nil
	}
	if err != nil {
		return nil, err
	}
	return gen, nil
}

// NewDigestSender возвращает отправителя через Resend или noop, если ключ не задан
func NewDigestSender(cfg *config.Config, logger *zap.Logger) (service.DigestSender, error) {
	if cfg.Email.ResendAPIKey == "" {
		return service.NewNoopDigestSender(logger), nil
	}
	sender, err := service.NewResendDigestSender(cfg.Email.ResendAPIKey, cfg.Email.From, cfg.Email.Recipients, logger.Named("digest"))
	if err != nil {
		return nil, err
	}
	return sender, nil
}
