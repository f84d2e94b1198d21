package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/li/internal/search"
)

func newTagsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tags [PATTERN]",
		Short: "List tags with the number of links carrying them",
		Long: "List every tag, most used first. With a pattern, tags are fuzzy\n" +
			"matched and ordered by how well they match.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := a.store.TagCounts(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) > 0 {
				counts = search.FuzzyFilterTags(counts, args[0])
			}

			out := cmd.OutOrStdout()
			for _, tc := range counts {
				fmt.Fprintf(out, "%-7d %s\n", tc.Count, tc.Tag)
			}
			return nil
		},
	}
}
