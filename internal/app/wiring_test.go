package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/studyjams-leaderboard/internal/config"
	"github.com/yourusername/studyjams-leaderboard/internal/repository/mock"
	"github.com/yourusername/studyjams-leaderboard/internal/repository/sheet"
	"github.com/yourusername/studyjams-leaderboard/internal/service"
)

func loadDefaults(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestNewFetcher_SelectsByMode(t *testing.T) {
	cfg := loadDefaults(t)

	f, err := NewFetcher(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &mock.Fetcher{}, f)

	cfg.Source.Mode = config.SourceModeRemote
	cfg.Source.URL = "https://docs.example.com/export?format=csv"
	f, err = NewFetcher(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &sheet.Fetcher{}, f)
	assert.Equal(t, cfg.Source.URL, f.Name())

	cfg.Source.Mode = "ftp"
	_, err = NewFetcher(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewPipeline_MockSource(t *testing.T) {
	p, err := NewPipeline(loadDefaults(t), zap.NewNop())
	require.NoError(t, err)

	board, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, board.Entries)
	assert.Equal(t, mock.SourceName, p.Source())
}

func TestNewPipeline_UnknownFormula(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Ranking.Formula = "badges_squared"
	_, err := NewPipeline(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNewInsightGenerator_WithoutKeyIsDisabled(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Insights.APIKey = ""

	gen, err := NewInsightGenerator(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, service.DisabledInsightGenerator{}, gen)
}

func TestNewDigestSender_WithoutKeyIsNoop(t *testing.T) {
	cfg := loadDefaults(t)
	cfg.Email.ResendAPIKey = ""

	sender, err := NewDigestSender(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &service.NoopDigestSender{}, sender)
}
