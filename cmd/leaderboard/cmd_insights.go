package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/studyjams-leaderboard/internal/app"
	"github.com/yourusername/studyjams-leaderboard/internal/service"
)

func newInsightsCmd(opts *globalOptions) *cobra.Command {
	var sendDigest bool

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Generate AI insights for the current ranking",
		Long: `Generate actionable insights from the {name, score} projection of the ranking.

Requires GEMINI_API_KEY. With --digest the insights are also emailed to the
configured recipients through Resend (RESEND_API_KEY, EMAIL_FROM, EMAIL_RECIPIENTS).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			pipeline, err := app.NewPipeline(cfg, log)
			if err != nil {
				return err
			}
			generator, err := app.NewInsightGenerator(ctx, cfg, log)
			if err != nil {
				return err
			}

			board, err := pipeline.Run(ctx)
			if err != nil {
				return fmt.Errorf("ingestion failed: %w", err)
			}

			text, err := generator.Generate(ctx, service.ScoreProjection(board.Entries))
			if err != nil {
				return fmt.Errorf("insight generation failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)

			if sendDigest {
				digest, err := app.NewDigestSender(cfg, log)
				if err != nil {
					return err
				}
				stats := service.StatsOf(board)
				if err := digest.SendDigest(ctx, service.Digest{Stats: *stats, Insights: text}); err != nil {
					return fmt.Errorf("digest delivery failed: %w", err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "digest sent")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&sendDigest, "digest", false, "Also email the insights to the configured recipients")
	return cmd
}
