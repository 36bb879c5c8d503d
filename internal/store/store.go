package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"entgo.io/ent/dialect"

	// Postgres via pgx's database/sql adapter.
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store owns the database handle. It serves Repository calls outside any
// transaction and opens per-learner transactions through InLearnerTx.
type Store struct {
	*repo
	db      *sql.DB
	dialect string
}

// Open connects to dsn and ensures the schema exists. A postgres:// or
// postgresql:// DSN selects Postgres; anything else is a SQLite path or URI.
func Open(ctx context.Context, dsn string) (*Store, error) {
	d, driver := dialectFor(dsn)
	if d == dialect.SQLite {
		dsn = withPragmas(dsn)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := ensureSchema(ctx, db, d); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Store{
		repo:    &repo{q: db, dialect: d},
		db:      db,
		dialect: d,
	}, nil
}

func dialectFor(dsn string) (name, driver string) {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return dialect.Postgres, "pgx"
	}
	return dialect.SQLite, "sqlite"
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the ent dialect name in use.
func (s *Store) Dialect() string {
	return s.dialect
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// EventRepo returns the LLM request log backed by this store.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{q: s.db, dialect: s.dialect}
}

// withPragmas appends the SQLite pragmas as DSN parameters so that every
// pooled connection gets them, and makes transactions take the write lock
// up front (BEGIN IMMEDIATE) so concurrent writers queue on busy_timeout
// instead of failing on lock upgrade.
func withPragmas(dsn string) string {
	params := []string{
		"_pragma=journal_mode(WAL)",
		"_pragma=busy_timeout(5000)",
		"_pragma=foreign_keys(1)",
		"_pragma=synchronous(NORMAL)",
		"_txlock=immediate",
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// DefaultDBPath resolves the database file path in priority order:
// 1. DRILLZ_DB environment variable
// 2. $XDG_DATA_HOME/drillz/drillz.db
// 3. ~/.local/share/drillz/drillz.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("DRILLZ_DB"); p != "" {
		if d, _ := dialectFor(p); d == dialect.Postgres {
			return p, nil
		}
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "drillz", "drillz.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
