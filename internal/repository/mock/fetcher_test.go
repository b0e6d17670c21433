package mock

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/studyjams-leaderboard/internal/config"
	"github.com/yourusername/studyjams-leaderboard/internal/domain/entity"
	"github.com/yourusername/studyjams-leaderboard/internal/ingest"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestFetcher_RendersFixtureThroughPipeline(t *testing.T) {
	cfg := defaultConfig(t)
	f, err := NewFetcher(cfg.Columns, cfg.Sentinels)
	require.NoError(t, err)

	p := ingest.NewPipeline(f,
		ingest.NewNormalizerFromConfig(cfg),
		ingest.NewRanker(ingest.FormulaSkillBadges, cfg.Ranking.MedalThreshold),
		"", nil)

	board, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, board.Entries, 9)
	assert.Equal(t, SourceName, board.Outcome.Source)
	assert.Equal(t, 0, board.Outcome.RowsSkipped)

	top := board.Entries[0]
	assert.Equal(t, "Chloe Davis", top.Name)
	assert.Equal(t, 18, top.Score)
	assert.Equal(t, entity.TierGold, top.Tier)
	assert.True(t, top.AllCompleted)
	assert.Equal(t, []string{"Level 3 Generative AI"}, top.ArcadeGameNames)

	byName := map[string]entity.RankedEntry{}
	for _, e := range board.Entries {
		byName[e.Name] = e
	}

	alex := byName["Alex Rivera"]
	assert.Equal(t, entity.ProfileURLComplete, alex.ProfileURLStatus)
	assert.Equal(t, entity.AccessCodeRedeemed, alex.AccessCodeRedemption)
	assert.True(t, alex.RedemptionStatus)
	assert.Len(t, alex.SkillBadgeNames, 2)

	vivek := byName["VIVEK KRISHNA"]
	assert.Equal(t, entity.ProfileURLIncomplete, vivek.ProfileURLStatus)
	assert.Equal(t, entity.AccessCodePending, vivek.AccessCodeRedemption)
	assert.Nil(t, vivek.ArcadeGames)

	ben := byName["Ben Carter"]
	require.NotNil(t, ben.ArcadeGames)
	assert.Equal(t, 0, *ben.ArcadeGames)
	assert.False(t, ben.Medal)
}

func TestFetcher_SharedColumnWrittenOnce(t *testing.T) {
	cfg := defaultConfig(t)
	f, err := NewFetcher(cfg.Columns, cfg.Sentinels)
	require.NoError(t, err)

	doc, err := f.Fetch(context.Background())
	require.NoError(t, err)

	header, _, _ := bytes.Cut(doc.Body, []byte("\n"))
	assert.Equal(t, 1, bytes.Count(header, []byte(cfg.Columns.AccessCode)))
}

func TestFetcher_ReturnsCopy(t *testing.T) {
	cfg := defaultConfig(t)
	f, err := NewFetcher(cfg.Columns, cfg.Sentinels)
	require.NoError(t, err)

	first, _ := f.Fetch(context.Background())
	first.Body[0] = '!'
	second, _ := f.Fetch(context.Background())
	assert.NotEqual(t, byte('!'), second.Body[0])
}

func TestNewFetcherFromYAML(t *testing.T) {
	cfg := defaultConfig(t)

	_, err := NewFetcherFromYAML([]byte("participants: [oops"), cfg.Columns, cfg.Sentinels)
	assert.Error(t, err)

	f, err := NewFetcherFromYAML([]byte("participants:\n  - name: Solo\n    skill_badges: 1\n"), cfg.Columns, cfg.Sentinels)
	require.NoError(t, err)
	doc, err := f.Fetch(context.Background())
	require.NoError(t, err)
	rows, err := ingest.ParseCSV(bytes.NewReader(doc.Body))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Solo", rows[0].Text(cfg.Columns.Name))
}

func TestFetcher_CancelledContext(t *testing.T) {
	cfg := defaultConfig(t)
	f, err := NewFetcher(cfg.Columns, cfg.Sentinels)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
