package cmd

import (
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	infrahttp "github.com/jonesrussell/newsfeed/infrastructure/http"
	"github.com/jonesrussell/newsfeed/internal/aggregator"
	"github.com/jonesrussell/newsfeed/internal/bootstrap"
	"github.com/jonesrussell/newsfeed/internal/sources"
	"github.com/spf13/cobra"
)

func newSourcesCommand(opts *options) *cobra.Command {
	var probe bool

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List configured source adapters and optionally probe them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap.LoadConfig(opts.configPath, Version)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			adapters := sources.Build(cfg.Sources, infrahttp.NewClient(nil), log)
			agg := aggregator.New(cfg.Aggregator, adapters, nil, log)

			var health *aggregator.Health
			if probe {
				h := agg.HealthCheck(cmd.Context())
				health = &h
			}
			renderSources(cmd.OutOrStdout(), adapters, health)
			return nil
		},
	}

	cmd.Flags().BoolVar(&probe, "probe", false, "call every available adapter once")
	return cmd
}

func renderSources(w io.Writer, adapters []sources.Adapter, health *aggregator.Health) {
	sorted := make([]sources.Adapter, len(adapters))
	copy(sorted, adapters)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name() < sorted[j].Name() })

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault

	header := table.Row{"Source", "Weight", "Available"}
	if health != nil {
		header = append(header, "Status", "Latency (ms)", "Error")
	}
	t.AppendHeader(header)

	for _, a := range sorted {
		row := table.Row{a.Name(), a.Weight(), a.IsAvailable()}
		if health != nil {
			h := health.Sources[a.Name()]
			row = append(row, h.Status, h.LatencyMS, h.Error)
		}
		t.AppendRow(row)
	}

	if health != nil {
		t.AppendFooter(table.Row{"", "", "", health.Status})
	}
	t.Render()
}
