// Package cli implements the li command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nikbrunner/li/internal/config"
	"github.com/nikbrunner/li/internal/logger"
	"github.com/nikbrunner/li/internal/model"
	"github.com/nikbrunner/li/internal/picker"
	"github.com/nikbrunner/li/internal/storage"
)

// Exit codes.
const (
	exitSuccess = 0
	exitError   = 1
)

// annotationNoStore marks commands that run without config or database.
const annotationNoStore = "li.nostore"

// app holds the state shared by every command of one invocation.
type app struct {
	configFile  string
	databaseURL string
	logLevel    string

	cfg   config.Config
	log   logger.Logger
	store storage.Store

	openStore func(ctx context.Context, databaseURL string, log logger.Logger) (storage.Store, error)
	openURL   func(url string) error
	copyText  func(text string) error
	pick      func(records []model.Record, header string) (model.Record, bool, error)
}

func newApp() *app {
	return &app{
		log: logger.Nop(),
		openStore: func(ctx context.Context, databaseURL string, log logger.Logger) (storage.Store, error) {
			return storage.Open(ctx, databaseURL, log)
		},
		openURL:  openBrowser,
		copyText: clipboard.WriteAll,
		pick: func(records []model.Record, header string) (model.Record, bool, error) {
			return picker.Run(records, header, tea.WithOutput(os.Stderr))
		},
	}
}

// NewRootCmd creates the top-level "li" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "li",
		Short: "Yet another li(nk)/bookmark manager",
		Long: "li stores links with their title, description and tags in SQLite or PostgreSQL,\n" +
			"fetching metadata from the page when no title is given.",
		Version:            Version,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error { return a.close() },
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetVersionTemplate("li {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVarP(&a.databaseURL, "database-url", "d", "", "database connection url (env LI_DATABASE_URL)")
	pf.StringVar(&a.configFile, "config", "", "config file (default: <user config dir>/li/config.yaml)")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (env LI_LOG_LEVEL)")

	root.AddCommand(
		newAddCmd(a),
		newQueryCmd(a),
		newRemoveCmd(a),
		newEditCmd(a),
		newOpenCmd(a),
		newPickCmd(a),
		newTagsCmd(a),
		newCullCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newInitDBCmd(a),
		newCompleteCmd(),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration, builds the logger and opens the store.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	switch {
	case cmd.Annotations[annotationNoStore] == "true":
		return nil
	case cmd.Name() == "help", cmd.Name() == cobra.ShellCompRequestCmd, cmd.Name() == cobra.ShellCompNoDescRequestCmd:
		return nil
	}

	cfg, err := config.Load(a.configFile, cmd.Flags())
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogLevel, cfg.PrettyLog)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log.With(logger.String("cmd", cmd.Name()))

	store, err := a.openStore(cmd.Context(), cfg.DatabaseURL, a.log)
	if err != nil {
		return fmt.Errorf("could not connect to the database: %w", err)
	}
	a.store = store
	return nil
}

// close releases the store. It is safe to call more than once.
func (a *app) close() error {
	_ = a.log.Sync()
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp()
	root := newRootCmd(a)
	err := root.ExecuteContext(ctx)
	_ = a.close()

	if err != nil {
		fmt.Fprintf(os.Stderr, "li: %v\n", err)
		return exitError
	}
	return exitSuccess
}
