package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/li/internal/logger"
	"github.com/nikbrunner/li/internal/model"
	"github.com/nikbrunner/li/internal/search"
)

func newOpenCmd(a *app) *cobra.Command {
	var yank bool

	cmd := &cobra.Command{
		Use:     "open ID",
		Aliases: []string{"o"},
		Short:   "Open a link in the browser",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			r, err := a.store.Get(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("open: %d: %w", id, err)
			}
			return a.launch(r, yank)
		},
	}

	cmd.Flags().BoolVarP(&yank, "yank", "y", false, "copy the url to the clipboard instead of opening it")
	return cmd
}

func newPickCmd(a *app) *cobra.Command {
	var (
		ff   filterFlags
		yank bool
	)

	cmd := &cobra.Command{
		Use:   "pick [QUERY]",
		Short: "Choose a matching link interactively and open it",
		Long: "Search links like query and choose one of the results interactively.\n" +
			"A single match is opened right away.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := ff.filter(args)
			if err != nil {
				return err
			}
			records, err := a.store.Select(cmd.Context(), search.Build(filter, a.store.Dialect()))
			if err != nil {
				return err
			}

			switch len(records) {
			case 0:
				fmt.Fprintln(cmd.ErrOrStderr(), "no matching links")
				return nil
			case 1:
				return a.launch(records[0], yank)
			}

			header := "links"
			if filter.Query != nil {
				header = fmt.Sprintf("links matching %q", *filter.Query)
			}
			r, ok, err := a.pick(records, header)
			if err != nil {
				return fmt.Errorf("pick: %w", err)
			}
			if !ok {
				return nil
			}
			return a.launch(r, yank)
		},
	}

	ff.register(cmd)
	cmd.Flags().BoolVarP(&yank, "yank", "y", false, "copy the url to the clipboard instead of opening it")
	return cmd
}

// launch opens r in the browser, or copies its URL when yank is set.
func (a *app) launch(r model.Record, yank bool) error {
	if yank {
		if err := a.copyText(r.URL); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		a.log.Debug("url copied", logger.Int64("id", r.ID))
		return nil
	}
	a.log.Debug("opening", logger.Int64("id", r.ID), logger.String("url", r.URL))
	return a.openURL(r.URL)
}
