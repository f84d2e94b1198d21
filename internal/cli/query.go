package cli

import (
	"github.com/spf13/cobra"

	"github.com/nikbrunner/li/internal/format"
	"github.com/nikbrunner/li/internal/search"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		ff   filterFlags
		mode string
	)

	cmd := &cobra.Command{
		Use:     "query [QUERY]",
		Aliases: []string{"q"},
		Short:   "Search links",
		Long: "Search links by title or description and by tags. Without a query\n" +
			"every link matches.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := format.ParseMode(mode)
			if err != nil {
				return err
			}
			filter, err := ff.filter(args)
			if err != nil {
				return err
			}

			records, err := a.store.Select(cmd.Context(), search.Build(filter, a.store.Dialect()))
			if err != nil {
				return err
			}
			return format.New(cmd.OutOrStdout(), m).WriteAll(records)
		},
	}

	ff.register(cmd)
	cmd.Flags().StringVarP(&mode, "format", "f", string(format.ModePretty), "output format: pretty, jsonl, tsv")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{string(format.ModePretty), string(format.ModeJSONL), string(format.ModeTSV)},
		cobra.ShellCompDirectiveNoFileComp))
	return cmd
}
