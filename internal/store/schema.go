package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// errSchemaTooNew means the file was written by a newer build.
var errSchemaTooNew = errors.New("schema too new")

// execQuerier is what a migration runs against: the scoped connection
// while it holds the write lock.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type migration struct {
	version     int
	description string
	up          func(ctx context.Context, tx execQuerier) error
}

type columnSpec struct {
	name       string
	definition string
}

// Expected columns per table. Migration v2 adds whichever of these an older
// store is missing; columns are never dropped or renamed.
var (
	settingsColumns = []columnSpec{
		{name: "pomodoro_minutes", definition: "INTEGER NOT NULL DEFAULT 25"},
		{name: "pomodoro_seconds", definition: "INTEGER NOT NULL DEFAULT 0"},
		{name: "short_break_minutes", definition: "INTEGER NOT NULL DEFAULT 5"},
		{name: "short_break_seconds", definition: "INTEGER NOT NULL DEFAULT 0"},
		{name: "long_break_minutes", definition: "INTEGER NOT NULL DEFAULT 15"},
		{name: "long_break_seconds", definition: "INTEGER NOT NULL DEFAULT 0"},
	}
	taskColumns = []columnSpec{
		{name: "expected_time", definition: "INTEGER NOT NULL DEFAULT 0"},
		{name: "worked_minutes", definition: "INTEGER NOT NULL DEFAULT 0"},
		{name: "worked_seconds", definition: "INTEGER NOT NULL DEFAULT 0"},
	}
)

const settingsRowID = 1

var migrations = []migration{
	{
		version:     1,
		description: "create settings and tasks",
		up: func(ctx context.Context, tx execQuerier) error {
			const ddl = `
			CREATE TABLE IF NOT EXISTS settings (
				id                  INTEGER PRIMARY KEY,
				pomodoro_minutes    INTEGER NOT NULL DEFAULT 25,
				pomodoro_seconds    INTEGER NOT NULL DEFAULT 0,
				short_break_minutes INTEGER NOT NULL DEFAULT 5,
				short_break_seconds INTEGER NOT NULL DEFAULT 0,
				long_break_minutes  INTEGER NOT NULL DEFAULT 15,
				long_break_seconds  INTEGER NOT NULL DEFAULT 0
			);

			CREATE TABLE IF NOT EXISTS tasks (
				id             TEXT PRIMARY KEY,
				task           TEXT NOT NULL,
				expected_time  INTEGER NOT NULL DEFAULT 0,
				worked_minutes INTEGER NOT NULL DEFAULT 0,
				worked_seconds INTEGER NOT NULL DEFAULT 0
			);
			`
			_, err := tx.ExecContext(ctx, ddl)
			return err
		},
	},
	{
		version:     2,
		description: "add missing duration columns and seed settings",
		up: func(ctx context.Context, tx execQuerier) error {
			if err := addMissingColumns(ctx, tx, "settings", settingsColumns); err != nil {
				return err
			}
			if err := addMissingColumns(ctx, tx, "tasks", taskColumns); err != nil {
				return err
			}
			d := DefaultSettings()
			_, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO settings (
					id, pomodoro_minutes, pomodoro_seconds, short_break_minutes,
					short_break_seconds, long_break_minutes, long_break_seconds
				) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				settingsRowID,
				d.Pomodoro.Minutes, d.Pomodoro.Seconds,
				d.ShortBreak.Minutes, d.ShortBreak.Seconds,
				d.LongBreak.Minutes, d.LongBreak.Seconds,
			)
			if err != nil {
				return fmt.Errorf("seed settings: %w", err)
			}
			return nil
		},
	},
	{
		version:     3,
		description: "create audit log",
		up: func(ctx context.Context, tx execQuerier) error {
			const ddl = `
			CREATE TABLE IF NOT EXISTS audit (
				id             INTEGER PRIMARY KEY AUTOINCREMENT,
				task_id        TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
				worked_minutes INTEGER NOT NULL,
				worked_seconds INTEGER NOT NULL,
				timestamp      INTEGER NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit(timestamp);
			CREATE INDEX IF NOT EXISTS idx_audit_task_id   ON audit(task_id);
			`
			_, err := tx.ExecContext(ctx, ddl)
			return err
		},
	},
}

// currentVersion is the schema version this build expects.
func currentVersion() int {
	max := 0
	for _, m := range migrations {
		if m.version > max {
			max = m.version
		}
	}
	return max
}

// ensureSchema brings the database behind conn up to currentVersion. It is
// cheap when nothing is pending: one PRAGMA read.
func ensureSchema(ctx context.Context, conn *sql.Conn, log zerolog.Logger) error {
	version, err := schemaVersion(ctx, conn)
	if err != nil {
		return wrapKind(ErrSchema, "read user_version", err)
	}

	target := currentVersion()
	if version == target {
		return nil
	}
	if version > target {
		return wrapKind(ErrSchema, "check version", fmt.Errorf("%w: db=%d code=%d", errSchemaTooNew, version, target))
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		applied, err := applyMigration(ctx, conn, m)
		if err != nil {
			return wrapKind(ErrSchema, fmt.Sprintf("migration v%d (%s)", m.version, m.description), err)
		}
		if applied {
			log.Info().Int("version", m.version).Str("migration", m.description).Msg("schema migrated")
		}
	}
	return nil
}

// applyMigration runs m under BEGIN IMMEDIATE and re-reads user_version once
// the write lock is held, so a migration another process finished in the
// meantime is skipped rather than replayed.
func applyMigration(ctx context.Context, conn *sql.Conn, m migration) (applied bool, err error) {
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil || !applied {
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	version, err := schemaVersion(ctx, conn)
	if err != nil {
		return false, fmt.Errorf("re-read user_version: %w", err)
	}
	if version >= m.version {
		return false, nil
	}

	if err := m.up(ctx, conn); err != nil {
		return false, err
	}
	// user_version lives in the file header and is covered by the transaction.
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return false, fmt.Errorf("set user_version: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func schemaVersion(ctx context.Context, conn *sql.Conn) (int, error) {
	var version int
	if err := conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

func addMissingColumns(ctx context.Context, tx execQuerier, table string, want []columnSpec) error {
	have, err := tableColumns(ctx, tx, table)
	if err != nil {
		return err
	}
	for _, c := range want {
		if have[c.name] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `ALTER TABLE `+table+` ADD COLUMN `+c.name+` `+c.definition); err != nil {
			return fmt.Errorf("add %s.%s: %w", table, c.name, err)
		}
	}
	return nil
}

func tableColumns(ctx context.Context, tx execQuerier, table string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx, `PRAGMA table_info(`+table+`)`)
	if err != nil {
		return nil, fmt.Errorf("query table info %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name       string
			colType    string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("scan table info %s: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
