package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sadopc/tomato/internal/store"
)

type SettingsSetOptions struct {
	*RootOptions
	Pomodoro   string
	ShortBreak string
	LongBreak  string
	JSON       string
}

func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the timer durations",
	}
	cmd.AddCommand(newSettingsGetCommand(rootOpts))
	cmd.AddCommand(newSettingsSetCommand(rootOpts))
	return cmd
}

func newSettingsGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the stored timer durations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(func(s *store.Store) error {
				ts, err := s.ReadSettings(cmd.Context())
				if err != nil {
					return storeError("read settings", err)
				}
				return rootOpts.formatter(cmd).Print(ts, func(w io.Writer) error {
					return printSettings(w, ts)
				})
			})
		},
	}
}

func newSettingsSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SettingsSetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change one or more timer durations",
		Long: `Change one or more timer durations. Durations are MM, MM:SS or a Go
duration such as 25m. Unset flags keep their stored value.

Examples:
  tomato settings set --pomodoro 50 --short-break 10
  tomato settings set --json '{"pomodoro_time":{"minutes":25,"seconds":0},...}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return setSettings(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Pomodoro, "pomodoro", "", "work session length")
	cmd.Flags().StringVar(&opts.ShortBreak, "short-break", "", "short break length")
	cmd.Flags().StringVar(&opts.LongBreak, "long-break", "", "long break length")
	cmd.Flags().StringVar(&opts.JSON, "json", "", "full settings document as JSON")
	cmd.MarkFlagsMutuallyExclusive("json", "pomodoro")
	cmd.MarkFlagsMutuallyExclusive("json", "short-break")
	cmd.MarkFlagsMutuallyExclusive("json", "long-break")

	return cmd
}

func setSettings(cmd *cobra.Command, opts *SettingsSetOptions) error {
	if opts.JSON == "" && opts.Pomodoro == "" && opts.ShortBreak == "" && opts.LongBreak == "" {
		return NewExitError(ExitCommandError, "nothing to set: pass --pomodoro, --short-break, --long-break or --json")
	}

	return opts.withStore(func(s *store.Store) error {
		ctx := cmd.Context()

		var ts store.TimerSettings
		if opts.JSON != "" {
			decoded, err := store.DecodeSettings([]byte(opts.JSON))
			if err != nil {
				return WrapExitError(ExitFailure, "parse --json", err)
			}
			ts = decoded
		} else {
			current, err := s.ReadSettings(ctx)
			if store.IsNotFound(err) {
				current, err = store.DefaultSettings(), nil
			}
			if err != nil {
				return storeError("read settings", err)
			}
			ts = current

			for _, f := range []struct {
				name, value string
				target      *store.TimerDuration
			}{
				{"pomodoro", opts.Pomodoro, &ts.Pomodoro},
				{"short-break", opts.ShortBreak, &ts.ShortBreak},
				{"long-break", opts.LongBreak, &ts.LongBreak},
			} {
				if f.value == "" {
					continue
				}
				d, err := parseTimerDuration(f.value)
				if err != nil {
					return WrapExitError(ExitCommandError, "--"+f.name, err)
				}
				*f.target = d
			}
		}

		if err := s.WriteSettings(ctx, ts); err != nil {
			return storeError("write settings", err)
		}
		opts.log.Info().Stringer("pomodoro", ts.Pomodoro).Stringer("short_break", ts.ShortBreak).
			Stringer("long_break", ts.LongBreak).Msg("settings updated")

		return opts.formatter(cmd).Print(ts, func(w io.Writer) error {
			return printSettings(w, ts)
		})
	})
}

func printSettings(w io.Writer, ts store.TimerSettings) error {
	_, err := fmt.Fprintf(w, "pomodoro:    %s\nshort break: %s\nlong break:  %s\n",
		ts.Pomodoro, ts.ShortBreak, ts.LongBreak)
	return err
}
