package cli

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/nikbrunner/li/internal/exporter"
	"github.com/nikbrunner/li/internal/importer"
	"github.com/nikbrunner/li/internal/logger"
	"github.com/nikbrunner/li/internal/model"
	"github.com/nikbrunner/li/internal/search"
)

func newImportCmd(a *app) *cobra.Command {
	var formatName string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import links from a JSON export or a browser bookmark file",
		Long: "Import links from FILE, or from stdin when FILE is '-'. Either every\n" +
			"link is imported or none is.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := importer.ParseFormat(formatName)
			if err != nil {
				return err
			}

			var r io.Reader
			if args[0] == "-" {
				r = cmd.InOrStdin()
			} else {
				file, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("import: %w", err)
				}
				defer file.Close()
				r = bufio.NewReader(file)
			}

			var records []model.Record
			switch f {
			case importer.FormatHTML:
				var skipped []string
				records, skipped, err = importer.ParseHTMLBookmarks(r)
				for _, href := range skipped {
					a.log.Warnf("skipping bookmark with unsupported href %q", href)
				}
			default:
				records, err = importer.ParseJSON(r)
			}
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}

			if err := a.store.InsertAll(cmd.Context(), records); err != nil {
				return fmt.Errorf("import: %w", err)
			}
			a.log.Infof("imported %d links from %s", len(records), args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&formatName, "format", string(importer.FormatJSON), "input format: json, html")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{string(importer.FormatJSON), string(importer.FormatHTML)}, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		limit      int
		formatName string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export links as JSON or as a browser bookmark file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := exporter.ParseFormat(formatName)
			if err != nil {
				return err
			}
			if limit < 0 {
				return fmt.Errorf("limit must not be negative")
			}
			if limit == 0 {
				limit = math.MaxInt32
			}

			records, err := a.store.Select(cmd.Context(), search.Build(search.Filter{Limit: limit}, a.store.Dialect()))
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}

			if output == "" {
				return exporter.Write(cmd.OutOrStdout(), records, f)
			}

			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			w := bufio.NewWriter(file)
			if err := exporter.Write(w, records, f); err != nil {
				file.Close()
				return fmt.Errorf("export: %w", err)
			}
			if err := w.Flush(); err != nil {
				file.Close()
				return fmt.Errorf("export: %w", err)
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("export: %w", err)
			}
			a.log.Info("links exported", logger.Int("count", len(records)), logger.String("path", output))
			return nil
		},
	}

	fl := cmd.Flags()
	fl.IntVarP(&limit, "limit", "l", 0, "maximum number of links, 0 for all")
	fl.StringVarP(&formatName, "format", "f", string(exporter.FormatJSON), "output format: json, html")
	fl.StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{string(exporter.FormatJSON), string(exporter.FormatHTML)}, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}
