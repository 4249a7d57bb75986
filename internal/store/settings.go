package store

import (
	"context"
	"database/sql"
	"errors"
)

// WriteSettings replaces all six stored durations.
func (s *Store) WriteSettings(ctx context.Context, ts TimerSettings) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		_, err := conn.ExecContext(ctx,
			`INSERT INTO settings (
				id, pomodoro_minutes, pomodoro_seconds, short_break_minutes,
				short_break_seconds, long_break_minutes, long_break_seconds
			) VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				pomodoro_minutes    = excluded.pomodoro_minutes,
				pomodoro_seconds    = excluded.pomodoro_seconds,
				short_break_minutes = excluded.short_break_minutes,
				short_break_seconds = excluded.short_break_seconds,
				long_break_minutes  = excluded.long_break_minutes,
				long_break_seconds  = excluded.long_break_seconds`,
			settingsRowID,
			ts.Pomodoro.Minutes, ts.Pomodoro.Seconds,
			ts.ShortBreak.Minutes, ts.ShortBreak.Seconds,
			ts.LongBreak.Minutes, ts.LongBreak.Seconds,
		)
		return classify("write settings", err)
	})
}

// ReadSettings returns the stored durations. The row is seeded when the
// schema is created, so ErrNotFound only shows up if it was removed by hand.
func (s *Store) ReadSettings(ctx context.Context) (TimerSettings, error) {
	var ts TimerSettings
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx,
			`SELECT pomodoro_minutes, pomodoro_seconds, short_break_minutes,
			        short_break_seconds, long_break_minutes, long_break_seconds
			 FROM settings WHERE id = ?`, settingsRowID,
		).Scan(
			&ts.Pomodoro.Minutes, &ts.Pomodoro.Seconds,
			&ts.ShortBreak.Minutes, &ts.ShortBreak.Seconds,
			&ts.LongBreak.Minutes, &ts.LongBreak.Seconds,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return wrapKind(ErrNotFound, "read settings", err)
		}
		return classify("read settings", err)
	})
	if err != nil {
		return TimerSettings{}, err
	}
	return ts, nil
}
