package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/tomato/internal/store"
)

type LogOptions struct {
	*RootOptions
	AuditOnly bool
}

type RangeOptions struct {
	*RootOptions
	Since string
	Until string
	TaskID string

	now func() time.Time
}

func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log <task-id> <duration>",
		Short: "Record a finished work session",
		Long: `Record a finished work session for a task. The duration is added to the
task's worked time and appended to the audit log in one step.
With --audit-only the worked time is left untouched.

Example:
  tomato log t1 25
  tomato log t1 4:30 --audit-only`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := parseTimerDuration(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "duration", err)
			}
			return logSession(cmd, opts, args[0], delta)
		},
	}

	cmd.Flags().BoolVar(&opts.AuditOnly, "audit-only", false, "only append to the audit log")

	return cmd
}

func logSession(cmd *cobra.Command, opts *LogOptions, taskID string, delta store.TimerDuration) error {
	return opts.withStore(func(s *store.Store) error {
		ctx := cmd.Context()
		if opts.AuditOnly {
			if err := s.LogSession(ctx, taskID, delta); err != nil {
				return storeError("log session", err)
			}
			opts.log.Info().Str("task_id", taskID).Stringer("delta", delta).Msg("session logged")
			return opts.formatter(cmd).Print(map[string]any{"task_id": taskID, "worked_time": delta}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "logged %s for %s\n", delta, taskID)
				return err
			})
		}

		t, err := s.CompleteSession(ctx, taskID, delta)
		if err != nil {
			return storeError("log session", err)
		}
		opts.log.Info().Str("task_id", taskID).Stringer("delta", delta).Stringer("total", t.WorkedTime).Msg("session logged")
		return opts.formatter(cmd).Print(t, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "logged %s for %s (total %s)\n", delta, taskID, t.WorkedTime)
			return err
		})
	})
}

func addRangeFlags(cmd *cobra.Command, opts *RangeOptions, defaultSince string) {
	cmd.Flags().StringVar(&opts.Since, "since", defaultSince, "start of the range (unix, RFC3339, YYYY-MM-DD or age like 7d)")
	cmd.Flags().StringVar(&opts.Until, "until", "", "end of the range, inclusive (default now)")
}

// bounds resolves --since/--until to an inclusive unix range.
func (o *RangeOptions) bounds() (int64, int64, error) {
	now := time.Now()
	if o.now != nil {
		now = o.now()
	}

	since, err := parseTimeArg(o.Since, now)
	if err != nil {
		return 0, 0, WrapExitError(ExitCommandError, "--since", err)
	}
	until := now.Unix()
	if o.Until != "" {
		until, err = parseTimeArg(o.Until, now)
		if err != nil {
			return 0, 0, WrapExitError(ExitCommandError, "--until", err)
		}
	}
	return since, until, nil
}

func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RangeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List recorded work sessions",
		Long: `List recorded work sessions, oldest first.

Examples:
  tomato audit --since 7d
  tomato audit --since 2024-03-01 --until 2024-03-31T23:59:59Z
  tomato audit --task t1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showAudit(cmd, opts)
		},
	}

	addRangeFlags(cmd, opts, "0")
	cmd.Flags().StringVar(&opts.TaskID, "task", "", "only sessions of this task (ignores the range)")

	return cmd
}

func showAudit(cmd *cobra.Command, opts *RangeOptions) error {
	since, until, err := opts.bounds()
	if err != nil {
		return err
	}

	return opts.withStore(func(s *store.Store) error {
		ctx := cmd.Context()

		var entries []store.AuditEntry
		if opts.TaskID != "" {
			entries, err = s.AuditForTask(ctx, opts.TaskID)
		} else {
			entries, err = s.QueryAudit(ctx, since, until)
		}
		if err != nil {
			return storeError("query audit", err)
		}
		if entries == nil {
			entries = []store.AuditEntry{}
		}

		return opts.formatter(cmd).Print(entries, func(w io.Writer) error {
			if len(entries) == 0 {
				_, err := fmt.Fprintln(w, "no sessions")
				return err
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					fmt.Sprintf("%d", e.ID),
					e.TaskID,
					time.Unix(e.Timestamp, 0).UTC().Format(time.RFC3339),
					e.WorkedTime.String(),
				})
			}
			tbl := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "TASK ID", "TIMESTAMP", "WORKED").
				Rows(rows...)
			_, err := fmt.Fprintln(w, tbl.Render())
			return err
		})
	})
}

type report struct {
	Since int64              `json:"since" yaml:"since"`
	Until int64              `json:"until" yaml:"until"`
	Days  []store.DailyTotal `json:"days" yaml:"days"`
	Tasks []store.TaskTotal  `json:"tasks" yaml:"tasks"`
}

func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RangeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise worked time per day and per task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showReport(cmd, opts)
		},
	}

	addRangeFlags(cmd, opts, "7d")

	return cmd
}

func showReport(cmd *cobra.Command, opts *RangeOptions) error {
	since, until, err := opts.bounds()
	if err != nil {
		return err
	}

	return opts.withStore(func(s *store.Store) error {
		ctx := cmd.Context()
		r := report{Since: since, Until: until}

		if r.Days, err = s.DailyTotals(ctx, since, until); err != nil {
			return storeError("daily totals", err)
		}
		if r.Tasks, err = s.TaskTotals(ctx, since, until); err != nil {
			return storeError("task totals", err)
		}
		if r.Days == nil {
			r.Days = []store.DailyTotal{}
		}
		if r.Tasks == nil {
			r.Tasks = []store.TaskTotal{}
		}

		return opts.formatter(cmd).Print(r, func(w io.Writer) error {
			return printReport(w, r)
		})
	})
}

func printReport(w io.Writer, r report) error {
	var total int64
	fmt.Fprintln(w, "By day:")
	for _, d := range r.Days {
		total += d.Seconds
		fmt.Fprintf(w, "  %s  %-9s %d sessions\n", d.Date, formatSeconds(d.Seconds), d.Sessions)
	}
	fmt.Fprintln(w, "By task:")
	for _, t := range r.Tasks {
		fmt.Fprintf(w, "  %-9s %s\n", formatSeconds(t.Seconds), t.Description)
	}
	_, err := fmt.Fprintf(w, "Total: %s\n", formatSeconds(total))
	return err
}

func formatSeconds(secs int64) string {
	h, m := secs/3600, (secs%3600)/60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%dm %02ds", m, secs%60)
}
