package cmd

import (
	"fmt"
	"strings"

	"github.com/jonesrussell/newsfeed/internal/bootstrap"
	"github.com/jonesrussell/newsfeed/internal/tagger"
	"github.com/spf13/cobra"
)

func newTagsCommand(opts *options) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "tags <title>",
		Short: "Print the tags extracted from a title and description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap.LoadConfig(opts.configPath, Version)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			tg, err := tagger.New(cfg.Tagger, log)
			if err != nil {
				return err
			}

			title := strings.Join(args, " ")
			tags := tg.ExtractTags(title, description)
			categories := tg.Categorize(title, description)

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "tags:       %s\n", strings.Join(tags, ", "))
			names := make([]string, len(categories))
			for i, c := range categories {
				names[i] = c.String()
			}
			_, _ = fmt.Fprintf(out, "categories: %s\n", strings.Join(names, ", "))
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "article description")
	return cmd
}
