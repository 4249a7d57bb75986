package cli

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sadopc/tomato/internal/config"
	"github.com/sadopc/tomato/internal/logging"
	"github.com/sadopc/tomato/internal/store"
	"github.com/sadopc/tomato/internal/tui"
)

// RootOptions holds global flags and the state they resolve to.
type RootOptions struct {
	ConfigPath string
	DataDir    string
	Output     string
	LogLevel   string
	LogStderr  bool

	cfg       config.Config
	log       zerolog.Logger
	logCloser io.Closer
}

var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the tomato command tree. Without a subcommand it
// starts the terminal UI.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{log: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:   "tomato",
		Short: "Pomodoro timer with task tracking",
		Long: `tomato is a pomodoro timer that keeps a task list and an audit log of
every completed work session in a local SQLite database.

Run without arguments to open the terminal UI.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.teardown()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.ConfigPath, "config", "", "config file (default <config dir>/tomato/config.toml)")
	pf.StringVar(&opts.DataDir, "data-dir", "", "directory holding data.db and the log file")
	pf.StringVarP(&opts.Output, "output", "o", "text", "output format (text|json|yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	pf.BoolVar(&opts.LogStderr, "log-stderr", false, "log to stderr instead of the log file")

	cmd.AddCommand(NewSettingsCommand(opts))
	cmd.AddCommand(NewTaskCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))
	cmd.AddCommand(NewAuditCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts, version))

	return cmd
}

func (o *RootOptions) setup() error {
	if !isValidFormat(o.Output) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid output format %q: must be one of %v", o.Output, ValidFormats))
	}

	cfg, err := config.Load(config.LoadOptions{
		ConfigPath: o.ConfigPath,
		Flags: config.FlagOverrides{
			DataDir:  &o.DataDir,
			LogLevel: &o.LogLevel,
		},
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}
	o.cfg = cfg

	l, closer, err := logging.New(logging.Options{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
		Stderr:    o.LogStderr,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "set up logging", err)
	}
	o.log, o.logCloser = l, closer
	return nil
}

func (o *RootOptions) teardown() error {
	if o.logCloser == nil {
		return nil
	}
	err := o.logCloser.Close()
	o.logCloser = nil
	return err
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Output, Writer: cmd.OutOrStdout()}
}

// withStore opens the database for the duration of fn.
func (o *RootOptions) withStore(fn func(s *store.Store) error) error {
	s, err := store.New(store.DBPath(o.cfg.Storage.DataDir), store.WithLogger(o.log))
	if err != nil {
		return storeError("open store", err)
	}
	defer s.Close()
	return fn(s)
}

func runTUI(ctx context.Context, opts *RootOptions) error {
	return opts.withStore(func(s *store.Store) error {
		app := tui.NewApp(s, tui.Options{
			LongBreakEvery: opts.cfg.Pomodoro.LongBreakEvery,
			ExportDir:      opts.cfg.Storage.DataDir,
			Logger:         opts.log,
		})
		p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil {
			return WrapExitError(ExitFailure, "run terminal UI", err)
		}
		return nil
	})
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
