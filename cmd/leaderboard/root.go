package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/studyjams-leaderboard/internal/app"
	"github.com/yourusername/studyjams-leaderboard/internal/config"
	"github.com/yourusername/studyjams-leaderboard/internal/domain/entity"
	"github.com/yourusername/studyjams-leaderboard/pkg/logger"
)

// globalOptions — флаги, общие для всех подкоманд
type globalOptions struct {
	configPath string
	sourceURL  string
	formula    string
	verbose    bool
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "leaderboard",
		Short:         "Study Jams leaderboard from the published participant sheet",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config/config.yaml", "Path to config file")
	root.PersistentFlags().StringVar(&opts.sourceURL, "source-url", "", "Read this sheet export URL instead of the configured source")
	root.PersistentFlags().StringVar(&opts.formula, "formula", "", "Score formula: skill_badges or skill_badges_plus_arcade")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Operation timeout")

	root.AddCommand(newRankCmd(opts))
	root.AddCommand(newExportCmd(opts))
	root.AddCommand(newInsightsCmd(opts))
	return root
}

// overrides переносит флаги в конфиг; проверка идет уже после них
func (o *globalOptions) overrides(cfg *config.Config) {
	if o.sourceURL != "" {
		cfg.Source.Mode = config.SourceModeRemote
		cfg.Source.URL = o.sourceURL
	}
	if o.formula != "" {
		cfg.Ranking.Formula = o.formula
	}
}

// load читает конфиг с учетом флагов и создает логгер
func (o *globalOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath, o.overrides)
	if err != nil {
		return nil, nil, err
	}

	level := "warn"
	if o.verbose {
		level = "debug"
	}
	log, err := logger.New(level, true)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// runPipeline выполняет один прогон. В отличие от сервера, ошибка источника возвращается как есть.
func (o *globalOptions) runPipeline(ctx context.Context) (*entity.Leaderboard, error) {
	cfg, log, err := o.load()
	if err != nil {
		return nil, err
	}
	defer func() { _ = log.Sync() }()

	pipeline, err := app.NewPipeline(cfg, log)
	if err != nil {
		return nil, err
	}
	board, err := pipeline.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingestion failed: %w", err)
	}
	return board, nil
}

func (o *globalOptions) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}
