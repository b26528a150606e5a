package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jonesrussell/newsfeed/internal/bootstrap"
	"github.com/spf13/cobra"
)

func newCleanupCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove stored articles that share a canonical URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := bootstrap.New(cmd.Context(), opts.configPath, Version)
			if err != nil {
				return err
			}
			defer app.Close()

			if app.Ingest == nil {
				return bootstrap.ErrIngestDisabled
			}

			report, err := app.Ingest.Cleanup(cmd.Context())
			if err != nil {
				return fmt.Errorf("cleanup: %w", err)
			}

			stats, err := app.Dedup.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Groups", "Removed", "Invalidated Keys", "Active Articles"})
			t.AppendRow(table.Row{report.DuplicateGroups, report.RemovedCount, report.Invalidated, stats.TotalArticles})
			t.Render()
			return nil
		},
	}
}
