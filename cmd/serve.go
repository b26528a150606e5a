package cmd

import (
	"context"

	"github.com/jonesrussell/newsfeed/internal/bootstrap"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the ingest scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

func runServe(ctx context.Context, opts *options) error {
	app, err := bootstrap.New(ctx, opts.configPath, Version)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Serve(ctx)
}
