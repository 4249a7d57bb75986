package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// connPragmas are connection scoped in SQLite, so they are applied every
// time a connection is handed to an operation.
var connPragmas = []string{
	"PRAGMA foreign_keys=ON",
	"PRAGMA busy_timeout=5000",
}

// Store is the persistence layer for settings, tasks and the audit log.
// Every method acquires a scoped connection, makes sure the schema is
// current, runs its statements and releases the connection again.
type Store struct {
	db   *sql.DB
	path string
	log  zerolog.Logger
	now  func() time.Time
}

type Option func(*Store)

// WithLogger routes store diagnostics to l.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l.With().Str("component", "store").Logger() }
}

// WithClock overrides the wall clock used to stamp audit entries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New opens (or creates) the SQLite database at dbPath and brings its schema
// up to date.
func New(dbPath string, opts ...Option) (*Store, error) {
	s := &Store{
		path: dbPath,
		log:  zerolog.Nop(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if dbPath != memoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, wrapKind(ErrStorageUnavailable, "create db directory", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, wrapKind(ErrStorageUnavailable, "open database", err)
	}

	// One connection: SQLite allows a single writer, and an in-memory
	// database only lives as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	s.db = db

	ctx := context.Background()
	if dbPath != memoryPath {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, wrapKind(ErrStorageUnavailable, "exec pragma journal_mode", err)
		}
	}

	conn, err := s.acquire(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	conn.Close()

	s.log.Debug().Str("path", dbPath).Msg("store opened")
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory(opts ...Option) (*Store, error) {
	return New(memoryPath, opts...)
}

// Path returns the database location the store was opened with.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	return s.db.Close()
}

// acquire hands out a connection with pragmas applied and the schema
// ensured. The caller must Close it.
func (s *Store) acquire(ctx context.Context) (*sql.Conn, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, wrapKind(ErrStorageUnavailable, "acquire connection", err)
	}
	for _, p := range connPragmas {
		if _, err := conn.ExecContext(ctx, p); err != nil {
			conn.Close()
			return nil, wrapKind(ErrStorageUnavailable, fmt.Sprintf("exec pragma %q", p), err)
		}
	}
	if err := ensureSchema(ctx, conn, s.log); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// withConn runs fn on a freshly acquired connection and always releases it.
func (s *Store) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(conn)
}

// withTx runs fn inside a transaction on a scoped connection. The
// transaction is committed only if fn returns nil.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if err := fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	})
}

func (s *Store) nowUnix() int64 {
	return s.now().UTC().Unix()
}
