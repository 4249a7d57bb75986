package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sadopc/tomato/internal/export"
	"github.com/sadopc/tomato/internal/store"
)

type ExportOptions struct {
	RangeOptions
	Format string
	Out    string
}

func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RangeOptions: RangeOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the audit log as CSV or JSON",
		Long: `Export the audit log as CSV or JSON, with task descriptions and UTC
timestamps.

Examples:
  tomato export --format csv --out sessions.csv
  tomato export --format json --since 30d`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}

	addRangeFlags(cmd, &opts.RangeOptions, "0")
	cmd.Flags().StringVar(&opts.Format, "format", "csv", "export format (csv|json)")
	cmd.Flags().StringVar(&opts.Out, "out", "-", "output file, - for stdout")

	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions) error {
	if opts.Format != "csv" && opts.Format != "json" {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid export format %q: must be csv or json", opts.Format))
	}
	since, until, err := opts.bounds()
	if err != nil {
		return err
	}

	return opts.withStore(func(s *store.Store) error {
		ctx := cmd.Context()
		entries, err := s.QueryAudit(ctx, since, until)
		if err != nil {
			return storeError("query audit", err)
		}
		tasks, err := s.ListTasks(ctx)
		if err != nil {
			return storeError("list tasks", err)
		}
		names := export.TaskNames(tasks)

		if opts.Out != "-" {
			if opts.Format == "csv" {
				err = export.ToCSV(entries, names, opts.Out)
			} else {
				err = export.ToJSON(entries, names, opts.Out)
			}
			if err != nil {
				return WrapExitError(ExitFailure, "export", err)
			}
			opts.log.Info().Str("path", opts.Out).Int("entries", len(entries)).Msg("audit exported")
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d sessions to %s\n", len(entries), opts.Out)
			return nil
		}

		return writeExport(cmd.OutOrStdout(), opts.Format, entries, names)
	})
}

func writeExport(w io.Writer, format string, entries []store.AuditEntry, names map[string]string) error {
	var err error
	if format == "csv" {
		err = export.WriteCSV(w, entries, names)
	} else {
		err = export.WriteJSON(w, entries, names, time.Now())
	}
	if err != nil {
		return WrapExitError(ExitFailure, "export", err)
	}
	return nil
}

