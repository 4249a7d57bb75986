package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const taskColumnList = `id, task, expected_time, worked_minutes, worked_seconds`

// UpsertTask inserts t or replaces every field of the task with the same id.
// ON CONFLICT keeps the row (and its audit children) in place, where
// INSERT OR REPLACE would delete and re-insert it.
func (s *Store) UpsertTask(ctx context.Context, t Task) error {
	if strings.TrimSpace(t.ID) == "" {
		return wrapKind(ErrInvalidInput, "upsert task", errors.New("empty task id"))
	}
	return s.withConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx,
			`INSERT INTO tasks (`+taskColumnList+`) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				task           = excluded.task,
				expected_time  = excluded.expected_time,
				worked_minutes = excluded.worked_minutes,
				worked_seconds = excluded.worked_seconds`,
			t.ID, t.Description, t.ExpectedTime, t.WorkedTime.Minutes, t.WorkedTime.Seconds,
		)
		return classify(fmt.Sprintf("upsert task %q", t.ID), err)
	})
}

// EditTask changes the description and expected time of an existing task.
// Worked time is not touched; only CompleteSession changes it.
func (s *Store) EditTask(ctx context.Context, id, description string, expected uint32) (Task, error) {
	var t Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE tasks SET task = ?, expected_time = ? WHERE id = ?`,
			description, expected, id,
		)
		if err != nil {
			return classify(fmt.Sprintf("edit task %q", id), err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return wrapKind(ErrNotFound, fmt.Sprintf("edit task %q", id), sql.ErrNoRows)
		}
		return getTask(ctx, tx, id, &t)
	})
	if err != nil {
		return Task{}, err
	}
	return t, nil
}

// ListTasks returns every task in insertion order.
func (s *Store) ListTasks(ctx context.Context) ([]Task, error) {
	var tasks []Task
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `SELECT `+taskColumnList+` FROM tasks ORDER BY rowid`)
		if err != nil {
			return classify("list tasks", err)
		}
		defer rows.Close()

		for rows.Next() {
			var t Task
			if err := scanTask(rows, &t); err != nil {
				return classify("scan task", err)
			}
			tasks = append(tasks, t)
		}
		return classify("list tasks", rows.Err())
	})
	return tasks, err
}

func (s *Store) GetTask(ctx context.Context, id string) (Task, error) {
	var t Task
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		return getTask(ctx, conn, id, &t)
	})
	if err != nil {
		return Task{}, err
	}
	return t, nil
}

// DeleteTask removes the task and, through the foreign key, its audit
// entries. Deleting an unknown id is not an error.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
		if err != nil {
			return classify(fmt.Sprintf("delete task %q", id), err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			s.log.Debug().Str("task_id", id).Msg("delete of unknown task ignored")
		}
		return nil
	})
}

// ClearTasks deletes every task and the whole audit log with it.
func (s *Store) ClearTasks(ctx context.Context) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx, `DELETE FROM tasks`)
		return classify("clear tasks", err)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(r rowScanner, t *Task) error {
	return r.Scan(&t.ID, &t.Description, &t.ExpectedTime, &t.WorkedTime.Minutes, &t.WorkedTime.Seconds)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getTask(ctx context.Context, q queryRower, id string, t *Task) error {
	err := scanTask(q.QueryRowContext(ctx, `SELECT `+taskColumnList+` FROM tasks WHERE id = ?`, id), t)
	if errors.Is(err, sql.ErrNoRows) {
		return wrapKind(ErrNotFound, fmt.Sprintf("get task %q", id), err)
	}
	return classify(fmt.Sprintf("get task %q", id), err)
}
