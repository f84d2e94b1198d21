package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/li/internal/extractor"
	"github.com/nikbrunner/li/internal/logger"
	"github.com/nikbrunner/li/internal/model"
)

func newAddCmd(a *app) *cobra.Command {
	var (
		title string
		desc  string
		tags  []string
	)

	cmd := &cobra.Command{
		Use:     "add URL",
		Aliases: []string{"a"},
		Short:   "Add a link",
		Long: "Add a link. Without --title the page is fetched and its title and\n" +
			"description are extracted from the HTML.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawURL := args[0]

			var (
				r   model.Record
				err error
			)
			if cmd.Flags().Changed("title") {
				r, err = model.NewRecord(rawURL, title)
			} else {
				ex := extractor.New(extractor.Options{
					UserAgent: a.cfg.UserAgent,
					Timeout:   a.cfg.FetchTimeout,
					Logger:    a.log,
				})
				r, err = ex.Extract(cmd.Context(), rawURL)
			}
			if err != nil {
				return fmt.Errorf("add: %s: %w", rawURL, err)
			}

			if cmd.Flags().Changed("desc") {
				d := desc
				r.Description = &d
			}
			r.Tags = model.CleanTags(tags)

			if err := a.store.Insert(cmd.Context(), &r); err != nil {
				return fmt.Errorf("add: %s: %w", rawURL, err)
			}
			a.log.Debug("added", logger.Int64("id", r.ID), logger.String("title", r.Title))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "title of the link; skips fetching the page")
	cmd.Flags().StringVar(&desc, "desc", "", "description of the link")
	cmd.Flags().StringSliceVarP(&tags, "tags", "t", nil, "comma separated tags")
	return cmd
}
