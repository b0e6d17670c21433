package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourusername/studyjams-leaderboard/internal/export"
)

func newExportCmd(opts *globalOptions) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the ranking to a CSV or XLSX file",
		Long: `Fetch the sheet once and write the ranked leaderboard.

Without --output CSV goes to stdout. XLSX always needs --output.
The format defaults to the output file extension.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
				if format == "" {
					format = export.FormatCSV
				}
			}
			if format != export.FormatCSV && format != export.FormatXLSX {
				return fmt.Errorf("unsupported export format %q", format)
			}
			if format == export.FormatXLSX && output == "" {
				return fmt.Errorf("xlsx export needs --output")
			}

			ctx, cancel := opts.context(cmd)
			defer cancel()

			board, err := opts.runPipeline(ctx)
			if err != nil {
				return err
			}

			if output == "" {
				return export.Write(cmd.OutOrStdout(), format, board.Entries)
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := export.Write(f, format, board.Entries); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d participants to %s\n", len(board.Entries), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}
