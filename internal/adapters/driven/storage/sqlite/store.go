package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/quarry-labs/quarry/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// queryer is the subset of database operations shared by *sql.DB and
// *sql.Tx, letting the same substores run pooled or inside a transaction.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// stores bundles every substore over one queryer.
type stores struct {
	q queryer
}

var _ driven.Stores = (*stores)(nil)

// Jobs returns the job store.
func (s *stores) Jobs() driven.JobStore {
	return &jobStore{q: s.q}
}

// Files returns the share and file store.
func (s *stores) Files() driven.FileStore {
	return &fileStore{q: s.q}
}

// Documents returns the document and chunk store.
func (s *stores) Documents() driven.DocumentStore {
	return &documentStore{q: s.q}
}

// Findings returns the sensitivity finding store.
func (s *stores) Findings() driven.FindingStore {
	return &findingStore{q: s.q}
}

// Exposures returns the exposure store.
func (s *stores) Exposures() driven.ExposureStore {
	return &exposureStore{q: s.q}
}

// Access returns the principal and access grant store.
func (s *stores) Access() driven.AccessStore {
	return &accessStore{q: s.q}
}

// Policies returns the policy and agent store.
func (s *stores) Policies() driven.PolicyStore {
	return &policyStore{q: s.q}
}

// Diffs returns the semantic diff cache store.
func (s *stores) Diffs() driven.DiffStore {
	return &diffStore{q: s.q}
}

// Interactions returns the interaction audit store.
func (s *stores) Interactions() driven.InteractionStore {
	return &interactionStore{q: s.q}
}

// Store is a unified SQLite-based storage that provides access to all
// persistence interfaces through wrapper types, and doubles as the
// UnitOfWork for transaction-scoped access.
type Store struct {
	stores

	db   *sql.DB
	path string
}

var _ driven.UnitOfWork = (*Store)(nil)

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.quarry/data/quarry.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".quarry", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "quarry.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		stores: stores{q: db},
		db:     db,
		path:   dbPath,
	}

	// Run migrations
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

// Execute runs fn against a transaction-scoped Stores. The transaction
// commits when fn returns nil and rolls back otherwise.
func (s *Store) Execute(ctx context.Context, fn func(tx driven.Stores) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(&stores{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// nullString returns nil for empty strings, otherwise the string.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// isUniqueViolation reports whether the error is a SQLite unique or primary
// key constraint failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
