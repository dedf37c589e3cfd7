package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	_ "modernc.org/sqlite"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// ErrUnavailable marks persistence failures (store unreachable or a call
// that hit its deadline). Callers treat it as non-fatal and decide fail-open
// or fail-closed for their feature.
var ErrUnavailable = errors.New("storage unavailable")

const defaultOpTimeout = 3 * time.Second

type Config struct {
	Path        string
	BusyTimeout time.Duration // sqlite busy_timeout pragma; 0 means default
	OpTimeout   time.Duration // per-call deadline; 0 means 3s
}

// Store wraps the sqlite database. Quota and job records each have their own
// writer mutex so mutating a counter never blocks behind a job sweep.
type Store struct {
	db  *sql.DB
	log zerolog.Logger

	path      string
	opTimeout time.Duration

	quotaMu sync.Mutex
	jobMu   sync.Mutex
}

func Open(cfg Config, log zerolog.Logger) (*Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	opTimeout := cfg.OpTimeout
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}

	st := &Store{db: db, log: log, path: path, opTimeout: opTimeout}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *Store) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// opCtx bounds a single storage call. A deadline hit surfaces as
// ErrUnavailable via persistErr, never as an indefinite block.
func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

func persistErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}

// timeColFormat is fixed-width (fractional seconds never trimmed) so the
// stored strings compare lexicographically the same way the times compare.
const timeColFormat = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeColFormat) }

func (s *Store) parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		s.log.Warn().Str("value", v).Err(err).Msg("corrupt timestamp column, defaulting to zero time")
		return time.Time{}
	}
	return t
}
