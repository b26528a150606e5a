// Package cmd implements the newsfeed command-line interface.
package cmd

import (
	"context"

	infraconfig "github.com/jonesrussell/newsfeed/infrastructure/config"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

const defaultConfigPath = "config.yml"

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
}

// NewRootCommand builds the command tree. Running it without a
// subcommand starts the server.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "newsfeed",
		Short:         "Aggregate, deduplicate and tag news from many sources",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	root.PersistentFlags().StringVarP(
		&opts.configPath,
		"config",
		"c",
		infraconfig.GetConfigPath(defaultConfigPath),
		"path to the YAML config file (env CONFIG_PATH)",
	)

	root.AddCommand(
		newServeCommand(opts),
		newIngestCommand(opts),
		newCleanupCommand(opts),
		newSourcesCommand(opts),
		newTagsCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
