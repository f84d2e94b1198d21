package cli

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/li/internal/culler"
	"github.com/nikbrunner/li/internal/logger"
	"github.com/nikbrunner/li/internal/search"
)

func newCullCmd(a *app) *cobra.Command {
	var (
		ff          filterFlags
		concurrency int
		exclude     []string
		remove      bool
	)

	cmd := &cobra.Command{
		Use:   "cull [QUERY]",
		Short: "Find links whose pages are gone",
		Long: "Check the matching links (all by default) and list the dead and\n" +
			"unreachable ones. --remove deletes the dead links; unreachable links\n" +
			"are never removed.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				ff.limit = math.MaxInt32
			}
			filter, err := ff.filter(args)
			if err != nil {
				return err
			}
			records, err := a.store.Select(cmd.Context(), search.Build(filter, a.store.Dialect()))
			if err != nil {
				return fmt.Errorf("cull: %w", err)
			}

			results := culler.Check(cmd.Context(), records, culler.Options{
				Concurrency:    concurrency,
				Timeout:        a.cfg.FetchTimeout,
				UserAgent:      a.cfg.UserAgent,
				ExcludeDomains: exclude,
				Logger:         a.log,
				OnProgress:     progressLogger(a.log),
			})

			out := cmd.OutOrStdout()
			var dead, unreachable int
			for _, res := range results {
				switch res.Status {
				case culler.Dead:
					dead++
					fmt.Fprintf(out, "%d\t%s\t%d\t%s\n", res.Record.ID, res.Status, res.StatusCode, res.Record.URL)
				case culler.Unreachable:
					unreachable++
					fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", res.Record.ID, res.Status, res.Reason, res.Record.URL)
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "checked %d links: %d dead, %d unreachable\n", len(results), dead, unreachable)

			if !remove {
				return nil
			}
			for _, res := range results {
				if res.Status != culler.Dead {
					continue
				}
				if _, err := a.store.Delete(cmd.Context(), res.Record.ID); err != nil {
					return fmt.Errorf("cull: remove %d: %w", res.Record.ID, err)
				}
			}
			if dead > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "removed %d dead links\n", dead)
			}
			return nil
		},
	}

	ff.register(cmd)
	fl := cmd.Flags()
	fl.IntVarP(&concurrency, "concurrency", "c", culler.DefaultConcurrency, "number of links checked in parallel")
	fl.StringSliceVar(&exclude, "exclude", nil, "domains whose 404s mean private rather than dead")
	fl.BoolVar(&remove, "remove", false, "delete dead links")
	return cmd
}

// progressLogger reports check progress at info level, every tenth link and
// at the end.
func progressLogger(log logger.Logger) culler.ProgressFunc {
	return func(completed, total int) {
		if completed%10 == 0 || completed == total {
			log.Infof("checked %d/%d links", completed, total)
		}
	}
}
