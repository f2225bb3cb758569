package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNoDatabase   = errors.New("VRCX database not found")
	ErrInvalidTable = errors.New("table is not a VRCX online/offline feed")
)

// DB is a read-only handle on a VRCX database.
type DB struct {
	*sql.DB
	path   string
	logger *slog.Logger
}

// Open opens the VRCX database at path read-only. VRCX may hold a write lock
// while it runs, so queries retry on SQLITE_BUSY.
func Open(path string, logger *slog.Logger) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no database path configured", ErrNoDatabase)
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoDatabase, path)
		}
		return nil, fmt.Errorf("checking database: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(2000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &DB{DB: db, path: path, logger: logger}, nil
}

// Path returns the file the handle was opened on.
func (db *DB) Path() string { return db.path }

func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// withRetry runs fn until it succeeds, fails with a non-lock error or ctx ends.
func (db *DB) withRetry(ctx context.Context, op string, fn func() error) error {
	err := retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(100*time.Millisecond),
		retry.MaxDelay(2*time.Second),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.RetryIf(isBusy),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			db.logger.Debug("database busy, retrying", "op", op, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// queryStrings runs a query returning a single text column.
func (db *DB) queryStrings(ctx context.Context, op, query string, args ...any) ([]string, error) {
	var out []string
	err := db.withRetry(ctx, op, func() error {
		out = out[:0]
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s sql.NullString
			if err := rows.Scan(&s); err != nil {
				return err
			}
			if s.Valid {
				out = append(out, s.String)
			}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
