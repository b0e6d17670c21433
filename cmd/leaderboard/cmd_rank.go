package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/studyjams-leaderboard/internal/domain/entity"
	"github.com/yourusername/studyjams-leaderboard/internal/service"
)

func newRankCmd(opts *globalOptions) *cobra.Command {
	var (
		limit    int
		query    string
		tier     string
		eligible bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Fetch the sheet once and print the ranking",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := service.Filter{Query: query, EligibleOnly: eligible}
			if tier != "" {
				t, ok := entity.ParseTier(tier)
				if !ok {
					return fmt.Errorf("unknown tier %q", tier)
				}
				filter.Tier = t
			}

			ctx, cancel := opts.context(cmd)
			defer cancel()

			board, err := opts.runPipeline(ctx)
			if err != nil {
				return err
			}

			entries := service.FilterEntries(board.Entries, filter)
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tNAME\tSCORE\tTIER\tBADGES\tARCADE\tALL DONE")
			for _, e := range entries {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%d\t%s\t%s\n",
					e.Rank, e.Name, e.Score, strings.ToUpper(string(e.Tier)), e.SkillBadges, e.ArcadeGamesLabel(), yesNo(e.AllCompleted))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			o := board.Outcome
			fmt.Fprintf(out, "\n%d participants (%d rows read, %d skipped) from %s\n", o.RowsKept, o.RowsSeen, o.RowsSkipped, o.Source)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show only the top N entries (0 = all)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Case-insensitive name filter")
	cmd.Flags().StringVar(&tier, "tier", "", "Only gold, silver or bronze")
	cmd.Flags().BoolVar(&eligible, "eligible", false, "Only participants who completed everything")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
