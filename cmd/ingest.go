package cmd

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jonesrussell/newsfeed/internal/aggregator"
	"github.com/jonesrussell/newsfeed/internal/bootstrap"
	"github.com/jonesrussell/newsfeed/internal/domain"
	"github.com/spf13/cobra"
)

func newIngestCommand(opts *options) *cobra.Command {
	var (
		category string
		query    string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch live news once and store the new articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := domain.ParseCategory(category)
			if err != nil {
				return err
			}

			app, err := bootstrap.New(cmd.Context(), opts.configPath, Version)
			if err != nil {
				return err
			}
			defer app.Close()

			if app.Ingest == nil {
				return bootstrap.ErrIngestDisabled
			}

			report, err := app.Ingest.Refresh(cmd.Context(), aggregator.Request{
				Category: cat,
				Query:    query,
				Limit:    limit,
			})
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Run", "Received", "Stored", "Duplicates", "Failed", "Duration"})
			t.AppendRow(table.Row{
				report.RunID,
				report.Received,
				report.Stored,
				report.Duplicates,
				report.Failed,
				report.Duration.Round(time.Millisecond),
			})
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only fetch this category")
	cmd.Flags().StringVarP(&query, "query", "q", "", "search instead of top headlines")
	cmd.Flags().IntVarP(&limit, "limit", "n", aggregator.DefaultMaxLimit, "maximum articles to fetch")
	return cmd
}
