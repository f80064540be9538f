package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/embediq/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
)

// Store wraps a SQLite database and hands out typed stores backed by it.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database at path and applies pending migrations.
// If path is empty, defaults to ~/.embediq/data/history.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".embediq", "data", "history.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: path,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// HistoryStore returns a HistoryStore backed by this database.
func (s *Store) HistoryStore() *HistoryStore {
	return &HistoryStore{store: s}
}

// Version returns the highest applied migration version.
func (s *Store) Version() (int, error) {
	var v int
	err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	return v, err
}

// migrate runs all pending up migrations in version order, each in its own
// transaction together with its schema_migrations row.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	currentVersion, err := s.Version()
	if err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_history.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(script); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ==================== History Store ====================

// Ensure HistoryStore implements the interface.
var _ driven.HistoryStore = (*HistoryStore)(nil)

// HistoryStore persists chat exchanges in the chat_history table.
type HistoryStore struct {
	store *Store
}

// Append records one exchange.
func (h *HistoryStore) Append(ctx context.Context, record domain.HistoryRecord) error {
	if record.SessionID == "" {
		return fmt.Errorf("append history: %w: session id is required", domain.ErrInvalidInput)
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	mode := record.Mode
	if mode == "" {
		mode = domain.ModeNormal
	}

	_, err := h.store.db.ExecContext(ctx, `
		INSERT INTO chat_history (session_id, user_text, bot_text, mode, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, record.SessionID, record.User, record.Bot, string(mode), record.Timestamp.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// List returns a session's records oldest first.
func (h *HistoryStore) List(ctx context.Context, sessionID string) ([]domain.HistoryRecord, error) {
	rows, err := h.store.db.QueryContext(ctx, `
		SELECT user_text, bot_text, mode, created_at
		FROM chat_history
		WHERE session_id = ?
		ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	records := make([]domain.HistoryRecord, 0)
	for rows.Next() {
		var (
			rec  domain.HistoryRecord
			mode string
			ts   int64
		)
		if err := rows.Scan(&rec.User, &rec.Bot, &mode, &ts); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		rec.SessionID = sessionID
		rec.Mode = domain.Mode(mode)
		rec.Timestamp = time.Unix(0, ts).UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return records, nil
}

// Sessions returns the distinct session IDs that have history, most recent first.
func (h *HistoryStore) Sessions(ctx context.Context) ([]string, error) {
	rows, err := h.store.db.QueryContext(ctx, `
		SELECT session_id FROM chat_history
		GROUP BY session_id
		ORDER BY MAX(id) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the underlying database.
func (h *HistoryStore) Close() error {
	return h.store.Close()
}
