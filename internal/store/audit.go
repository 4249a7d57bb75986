package store

import (
	"context"
	"database/sql"
	"fmt"
)

const auditColumnList = `id, task_id, worked_minutes, worked_seconds, timestamp`

// LogSession appends one audit entry for taskID stamped with the current
// time. The task must exist; otherwise ErrReferentialIntegrity is returned
// and nothing is written.
func (s *Store) LogSession(ctx context.Context, taskID string, delta TimerDuration) error {
	ts := s.nowUnix()
	return s.withConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx,
			`INSERT INTO audit (task_id, worked_minutes, worked_seconds, timestamp) VALUES (?, ?, ?, ?)`,
			taskID, delta.Minutes, delta.Seconds, ts,
		)
		return classify(fmt.Sprintf("log session for task %q", taskID), err)
	})
}

// CompleteSession adds delta to the task's cumulative worked time and
// appends the matching audit entry in a single transaction. Like
// LogSession, an unknown task yields ErrReferentialIntegrity.
func (s *Store) CompleteSession(ctx context.Context, taskID string, delta TimerDuration) (Task, error) {
	ts := s.nowUnix()
	var t Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := getTask(ctx, tx, taskID, &t); err != nil {
			if IsNotFound(err) {
				return wrapKind(ErrReferentialIntegrity, fmt.Sprintf("complete session for task %q", taskID), sql.ErrNoRows)
			}
			return err
		}
		t.WorkedTime = t.WorkedTime.Add(delta)

		if _, err := tx.ExecContext(ctx,
			`UPDATE tasks SET worked_minutes = ?, worked_seconds = ? WHERE id = ?`,
			t.WorkedTime.Minutes, t.WorkedTime.Seconds, taskID,
		); err != nil {
			return classify(fmt.Sprintf("update worked time of %q", taskID), err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO audit (task_id, worked_minutes, worked_seconds, timestamp) VALUES (?, ?, ?, ?)`,
			taskID, delta.Minutes, delta.Seconds, ts,
		); err != nil {
			return classify(fmt.Sprintf("log session for task %q", taskID), err)
		}
		return nil
	})
	if err != nil {
		return Task{}, err
	}
	s.log.Debug().Str("task_id", taskID).Stringer("delta", delta).Msg("session completed")
	return t, nil
}

// QueryAudit returns every entry with since <= timestamp <= until, oldest
// first.
func (s *Store) QueryAudit(ctx context.Context, since, until int64) ([]AuditEntry, error) {
	return s.queryAudit(ctx, "query audit",
		`SELECT `+auditColumnList+` FROM audit
		 WHERE timestamp BETWEEN ? AND ?
		 ORDER BY timestamp, id`,
		since, until,
	)
}

// AuditForTask returns all entries of one task, oldest first.
func (s *Store) AuditForTask(ctx context.Context, taskID string) ([]AuditEntry, error) {
	return s.queryAudit(ctx, fmt.Sprintf("audit for task %q", taskID),
		`SELECT `+auditColumnList+` FROM audit
		 WHERE task_id = ?
		 ORDER BY timestamp, id`,
		taskID,
	)
}

func (s *Store) queryAudit(ctx context.Context, op, query string, args ...any) ([]AuditEntry, error) {
	var entries []AuditEntry
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return classify(op, err)
		}
		defer rows.Close()

		for rows.Next() {
			var e AuditEntry
			if err := rows.Scan(&e.ID, &e.TaskID, &e.WorkedTime.Minutes, &e.WorkedTime.Seconds, &e.Timestamp); err != nil {
				return classify(op, err)
			}
			entries = append(entries, e)
		}
		return classify(op, rows.Err())
	})
	return entries, err
}

// DailyTotals sums session deltas per UTC day within [since, until].
func (s *Store) DailyTotals(ctx context.Context, since, until int64) ([]DailyTotal, error) {
	var totals []DailyTotal
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT date(timestamp, 'unixepoch') AS day,
			       COALESCE(SUM(worked_minutes * 60 + worked_seconds), 0),
			       COUNT(*)
			FROM audit
			WHERE timestamp BETWEEN ? AND ?
			GROUP BY day
			ORDER BY day`,
			since, until,
		)
		if err != nil {
			return classify("daily totals", err)
		}
		defer rows.Close()

		for rows.Next() {
			var d DailyTotal
			if err := rows.Scan(&d.Date, &d.Seconds, &d.Sessions); err != nil {
				return classify("daily totals", err)
			}
			totals = append(totals, d)
		}
		return classify("daily totals", rows.Err())
	})
	return totals, err
}

// TaskTotals sums session deltas per task within [since, until], largest
// first.
func (s *Store) TaskTotals(ctx context.Context, since, until int64) ([]TaskTotal, error) {
	var totals []TaskTotal
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, `
			SELECT a.task_id, t.task,
			       COALESCE(SUM(a.worked_minutes * 60 + a.worked_seconds), 0) AS secs,
			       COUNT(*)
			FROM audit a
			JOIN tasks t ON t.id = a.task_id
			WHERE a.timestamp BETWEEN ? AND ?
			GROUP BY a.task_id
			ORDER BY secs DESC, a.task_id`,
			since, until,
		)
		if err != nil {
			return classify("task totals", err)
		}
		defer rows.Close()

		for rows.Next() {
			var tt TaskTotal
			if err := rows.Scan(&tt.TaskID, &tt.Description, &tt.Seconds, &tt.Sessions); err != nil {
				return classify("task totals", err)
			}
			totals = append(totals, tt)
		}
		return classify("task totals", rows.Err())
	})
	return totals, err
}
