package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"luxafor/internal/color"
	"luxafor/internal/config"
)

// Source names what produced a transition.
type Source string

const (
	SourceWatch    Source = "watch"
	SourceSet      Source = "set"
	SourceToggle   Source = "toggle"
	SourceColor    Source = "color"
	SourceShutdown Source = "shutdown"
)

// Transition is one applied or attempted colour change.
type Transition struct {
	ID        int64
	SessionID string
	Source    Source
	State     string
	Color     color.Hex
	Applied   bool
	Error     string
	CreatedAt time.Time
}

// Recorder persists transitions.
type Recorder interface {
	Record(ctx context.Context, t Transition) error
}

// Discard is a Recorder that drops everything. Used when history is disabled.
type Discard struct{}

func (Discard) Record(context.Context, Transition) error { return nil }

// Store manages history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	// timestampLayout has a fixed width so created_at sorts lexically.
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Open opens the database configured in cfg.History.Path.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("history: nil config")
	}
	return OpenPath(cfg.History.Path)
}

// OpenPath initializes or connects to the history database at path.
func OpenPath(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history: database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts t. A zero CreatedAt is stamped with the current time.
func (s *Store) Record(ctx context.Context, t Transition) error {
	ctx = ensureContext(ctx)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	applied := 0
	if t.Applied {
		applied = 1
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO transitions (session_id, source, state, color, applied, error_message, created_at)
             VALUES (?, ?, ?, ?, ?, ?, ?)`,
			nullableString(t.SessionID),
			string(t.Source),
			t.State,
			string(t.Color),
			applied,
			nullableString(t.Error),
			t.CreatedAt.UTC().Format(timestampLayout),
		)
		if err != nil {
			return fmt.Errorf("insert transition: %w", err)
		}
		return nil
	})
}

// Recent returns up to limit transitions, newest first. A limit <= 0 returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Transition, error) {
	query := `SELECT id, session_id, source, state, color, applied, error_message, created_at
              FROM transitions ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		t, err := scanTransition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Latest returns the most recent transition, or nil when none exist.
func (s *Store) Latest(ctx context.Context) (*Transition, error) {
	items, err := s.Recent(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// Prune deletes transitions older than retentionDays and returns how many were
// removed. A retentionDays value of 0 disables pruning.
func (s *Store) Prune(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	ctx = ensureContext(ctx)
	cutoff := time.Now().AddDate(0, 0, -retentionDays).UTC().Format(timestampLayout)

	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM transitions WHERE created_at < ?`, cutoff)
		if err != nil {
			return fmt.Errorf("prune transitions: %w", err)
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransition(row rowScanner) (Transition, error) {
	var (
		t         Transition
		sessionID sql.NullString
		source    string
		hex       string
		applied   int
		errText   sql.NullString
		createdAt string
	)
	if err := row.Scan(&t.ID, &sessionID, &source, &t.State, &hex, &applied, &errText, &createdAt); err != nil {
		return Transition{}, fmt.Errorf("scan transition: %w", err)
	}
	t.SessionID = sessionID.String
	t.Source = Source(source)
	t.Color = color.Hex(hex)
	t.Applied = applied != 0
	t.Error = errText.String
	if ts, err := time.Parse(timestampLayout, createdAt); err == nil {
		t.CreatedAt = ts
	}
	return t, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
