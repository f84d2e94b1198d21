package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/li/internal/model"
)

func newEditCmd(a *app) *cobra.Command {
	var (
		appendTags bool
		rawURL     string
		title      string
		desc       string
		tags       []string
	)

	cmd := &cobra.Command{
		Use:     "edit ID",
		Aliases: []string{"ed"},
		Short:   "Edit a link",
		Long: "Edit a link. Only the given fields change; --tags replaces the tag set\n" +
			"unless --append is set.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var e model.Edit
			flags := cmd.Flags()
			if flags.Changed("title") {
				e.Title = &title
			}
			if flags.Changed("desc") {
				e.Description = &desc
			}
			if flags.Changed("url") {
				e.URL = &rawURL
			}
			if flags.Changed("tags") {
				e.Tags = model.CleanTags(tags)
				e.AppendTags = appendTags
			}

			r, err := a.store.Get(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("edit: %d: %w", id, err)
			}
			if err := r.Apply(e); err != nil {
				return fmt.Errorf("edit: %d: %w", id, err)
			}
			if err := a.store.Update(cmd.Context(), r); err != nil {
				return fmt.Errorf("edit: %d: %w", id, err)
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.BoolVarP(&appendTags, "append", "a", false, "add --tags to the existing tags instead of replacing them")
	fl.StringVarP(&rawURL, "url", "u", "", "new url")
	fl.StringVar(&title, "title", "", "new title")
	fl.StringVar(&desc, "desc", "", "new description")
	fl.StringSliceVarP(&tags, "tags", "t", nil, "new comma separated tags")
	return cmd
}
