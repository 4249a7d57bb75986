package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sadopc/tomato/internal/store"
)

type TaskAddOptions struct {
	*RootOptions
	ID       string
	Expected uint32
}

func NewTaskCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks"},
		Short:   "Manage the task list",
	}
	cmd.AddCommand(newTaskAddCommand(rootOpts))
	cmd.AddCommand(newTaskSetCommand(rootOpts))
	cmd.AddCommand(newTaskListCommand(rootOpts))
	cmd.AddCommand(newTaskShowCommand(rootOpts))
	cmd.AddCommand(newTaskRemoveCommand(rootOpts))
	cmd.AddCommand(newTaskClearCommand(rootOpts))
	return cmd
}

func newTaskAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TaskAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <description>",
		Short: "Add a task",
		Long: `Add a task. A random id is assigned unless --id is given; adding with
an existing id replaces that task.

Example:
  tomato task add "write report" --expected 50`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := store.Task{
				ID:           opts.ID,
				Description:  strings.Join(args, " "),
				ExpectedTime: opts.Expected,
			}
			if t.ID == "" {
				t.ID = uuid.NewString()
			}
			return upsertTask(cmd, rootOpts, t)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "task id (default: random UUID)")
	cmd.Flags().Uint32Var(&opts.Expected, "expected", 0, "expected time in minutes")

	return cmd
}

func newTaskSetCommand(rootOpts *RootOptions) *cobra.Command {
	var doc string

	cmd := &cobra.Command{
		Use:   "set --json <task>",
		Short: "Insert or replace a task from its JSON form",
		Long: `Insert or replace a task from its JSON form. Every field is replaced.

Example:
  tomato task set --json '{"id":"t1","task":"write draft","expected_time":30,"worked_time":{"minutes":0,"seconds":0}}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := store.DecodeTask([]byte(doc))
			if err != nil {
				return WrapExitError(ExitFailure, "parse --json", err)
			}
			return upsertTask(cmd, rootOpts, t)
		},
	}

	cmd.Flags().StringVar(&doc, "json", "", "task as JSON")
	_ = cmd.MarkFlagRequired("json")

	return cmd
}

func upsertTask(cmd *cobra.Command, opts *RootOptions, t store.Task) error {
	return opts.withStore(func(s *store.Store) error {
		if err := s.UpsertTask(cmd.Context(), t); err != nil {
			return storeError("save task", err)
		}
		opts.log.Info().Str("task_id", t.ID).Msg("task saved")
		return opts.formatter(cmd).Print(t, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "saved task %s\n", t.ID)
			return err
		})
	})
}

func newTaskListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(func(s *store.Store) error {
				tasks, err := s.ListTasks(cmd.Context())
				if err != nil {
					return storeError("list tasks", err)
				}
				if tasks == nil {
					tasks = []store.Task{}
				}
				return rootOpts.formatter(cmd).Print(tasks, func(w io.Writer) error {
					return printTasks(w, tasks)
				})
			})
		},
	}
}

func newTaskShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(func(s *store.Store) error {
				t, err := s.GetTask(cmd.Context(), args[0])
				if err != nil {
					return storeError("show task", err)
				}
				return rootOpts.formatter(cmd).Print(t, func(w io.Writer) error {
					return printTasks(w, []store.Task{t})
				})
			})
		},
	}
}

func newTaskRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete tasks and their audit history",
		Long:    "Delete tasks and their audit history. Unknown ids are ignored.",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(func(s *store.Store) error {
				for _, id := range args {
					if err := s.DeleteTask(cmd.Context(), id); err != nil {
						return storeError("delete task "+id, err)
					}
				}
				return nil
			})
		},
	}
}

func newTaskClearCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every task and the whole audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return NewExitError(ExitCommandError, "refusing to clear all tasks without --yes")
			}
			return rootOpts.withStore(func(s *store.Store) error {
				if err := s.ClearTasks(cmd.Context()); err != nil {
					return storeError("clear tasks", err)
				}
				rootOpts.log.Info().Msg("all tasks cleared")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting everything")

	return cmd
}

func printTasks(w io.Writer, tasks []store.Task) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "no tasks")
		return err
	}

	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			t.ID,
			t.Description,
			fmt.Sprintf("%dm", t.ExpectedTime),
			t.WorkedTime.String(),
		})
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TASK", "EXPECTED", "WORKED").
		Rows(rows...)
	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}
