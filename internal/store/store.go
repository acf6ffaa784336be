package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Driver names a supported SQL backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ParseDriver maps a configuration value to a Driver. Empty means SQLite.
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", s)
}

type Store struct {
	db     *sql.DB
	driver Driver
	now    func() time.Time
}

// Open connects to dsn and, when migrate is set, creates any missing tables.
func Open(ctx context.Context, driver Driver, dsn string, migrate bool) (*Store, error) {
	var name string
	switch driver {
	case DriverSQLite:
		name = "sqlite"
		if dsn == "" {
			dsn = "florafauna.db"
		}
		if !strings.Contains(dsn, ":memory:") && !strings.Contains(dsn, "?") {
			dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
		}
	case DriverPostgres:
		name = "pgx"
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Every connection to an in-memory SQLite database is a separate database.
	if driver == DriverSQLite && strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, driver: driver, now: time.Now}
	if migrate {
		if err := s.migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// rebind rewrites ? placeholders into the driver's native form.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func (s *Store) stamp() int64 {
	return s.now().UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := schemaSQLite
	if s.driver == DriverPostgres {
		schema = schemaPostgres
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS species (
	id TEXT PRIMARY KEY,
	slug TEXT NOT NULL UNIQUE,
	scientific_name TEXT NOT NULL,
	common_name TEXT NOT NULL DEFAULT '',
	kingdom TEXT NOT NULL DEFAULT '',
	phylum TEXT NOT NULL DEFAULT '',
	class TEXT NOT NULL DEFAULT '',
	order_name TEXT NOT NULL DEFAULT '',
	family TEXT NOT NULL DEFAULT '',
	genus TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	habitat_description TEXT NOT NULL DEFAULT '',
	iucn_status TEXT NOT NULL DEFAULT '',
	image_urls TEXT NOT NULL DEFAULT '[]',
	featured INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS taxonomy_hierarchy (
	species_id TEXT PRIMARY KEY REFERENCES species(id) ON DELETE CASCADE,
	kingdom TEXT NOT NULL DEFAULT '',
	phylum TEXT NOT NULL DEFAULT '',
	class TEXT NOT NULL DEFAULT '',
	order_name TEXT NOT NULL DEFAULT '',
	family TEXT NOT NULL DEFAULT '',
	genus TEXT NOT NULL DEFAULT '',
	species_name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS conservation_data (
	species_id TEXT PRIMARY KEY REFERENCES species(id) ON DELETE CASCADE,
	iucn_status TEXT NOT NULL DEFAULT '',
	population_trend TEXT NOT NULL DEFAULT '',
	threats TEXT NOT NULL DEFAULT '',
	conservation_actions TEXT NOT NULL DEFAULT '',
	last_assessed INTEGER
);

CREATE TABLE IF NOT EXISTS species_images (
	id TEXT PRIMARY KEY,
	species_id TEXT NOT NULL REFERENCES species(id) ON DELETE CASCADE,
	url TEXT NOT NULL,
	caption TEXT NOT NULL DEFAULT '',
	credit TEXT NOT NULL DEFAULT '',
	sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS submissions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	type TEXT NOT NULL,
	content TEXT NOT NULL,
	url TEXT,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS quiz_results (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	quiz_id TEXT NOT NULL,
	topic TEXT NOT NULL,
	difficulty TEXT NOT NULL,
	questions_count INTEGER NOT NULL,
	correct_count INTEGER NOT NULL,
	metadata TEXT,
	finished_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'member',
	email_verified INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS app_metadata (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_species_images_species ON species_images(species_id, sort_order);
CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_quiz_results_user ON quiz_results(user_id, finished_at);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS species (
	id TEXT PRIMARY KEY,
	slug TEXT NOT NULL UNIQUE,
	scientific_name TEXT NOT NULL,
	common_name TEXT NOT NULL DEFAULT '',
	kingdom TEXT NOT NULL DEFAULT '',
	phylum TEXT NOT NULL DEFAULT '',
	class TEXT NOT NULL DEFAULT '',
	order_name TEXT NOT NULL DEFAULT '',
	family TEXT NOT NULL DEFAULT '',
	genus TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	habitat_description TEXT NOT NULL DEFAULT '',
	iucn_status TEXT NOT NULL DEFAULT '',
	image_urls TEXT NOT NULL DEFAULT '[]',
	featured BOOLEAN NOT NULL DEFAULT FALSE,
	created_at BIGINT NOT NULL,
	updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS taxonomy_hierarchy (
	species_id TEXT PRIMARY KEY REFERENCES species(id) ON DELETE CASCADE,
	kingdom TEXT NOT NULL DEFAULT '',
	phylum TEXT NOT NULL DEFAULT '',
	class TEXT NOT NULL DEFAULT '',
	order_name TEXT NOT NULL DEFAULT '',
	family TEXT NOT NULL DEFAULT '',
	genus TEXT NOT NULL DEFAULT '',
	species_name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS conservation_data (
	species_id TEXT PRIMARY KEY REFERENCES species(id) ON DELETE CASCADE,
	iucn_status TEXT NOT NULL DEFAULT '',
	population_trend TEXT NOT NULL DEFAULT '',
	threats TEXT NOT NULL DEFAULT '',
	conservation_actions TEXT NOT NULL DEFAULT '',
	last_assessed BIGINT
);

CREATE TABLE IF NOT EXISTS species_images (
	id TEXT PRIMARY KEY,
	species_id TEXT NOT NULL REFERENCES species(id) ON DELETE CASCADE,
	url TEXT NOT NULL,
	caption TEXT NOT NULL DEFAULT '',
	credit TEXT NOT NULL DEFAULT '',
	sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS submissions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	type TEXT NOT NULL,
	content TEXT NOT NULL,
	url TEXT,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS quiz_results (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	quiz_id TEXT NOT NULL,
	topic TEXT NOT NULL,
	difficulty TEXT NOT NULL,
	questions_count INTEGER NOT NULL,
	correct_count INTEGER NOT NULL,
	metadata TEXT,
	finished_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'member',
	email_verified BOOLEAN NOT NULL DEFAULT FALSE,
	created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS app_metadata (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_species_images_species ON species_images(species_id, sort_order);
CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_quiz_results_user ON quiz_results(user_id, finished_at);
`
