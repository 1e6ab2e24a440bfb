package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/shinagawa-clinic/reservation-api/internal/config"
)

// Schema is created idempotently at startup. Column types are kept portable
// between sqlite and postgres.
const schema = `
CREATE TABLE IF NOT EXISTS reservations (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	chart_number TEXT NOT NULL DEFAULT '',
	referring_hospital TEXT NOT NULL DEFAULT '',
	last_name TEXT NOT NULL DEFAULT '',
	first_name TEXT NOT NULL DEFAULT '',
	last_name_kana TEXT NOT NULL DEFAULT '',
	first_name_kana TEXT NOT NULL DEFAULT '',
	birth_date TEXT NOT NULL DEFAULT '',
	sex TEXT NOT NULL DEFAULT '',
	first_choice_date TEXT NOT NULL DEFAULT '',
	first_choice_time_slot TEXT NOT NULL DEFAULT '',
	second_choice_date TEXT NOT NULL DEFAULT '',
	second_choice_time_slot TEXT NOT NULL DEFAULT '',
	third_choice_date TEXT NOT NULL DEFAULT '',
	third_choice_time_slot TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	confirmed_datetime TEXT NOT NULL DEFAULT '',
	staff_note TEXT NOT NULL DEFAULT '',
	handled_by TEXT NOT NULL DEFAULT '',
	version INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS staff_users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMP NOT NULL
);
`

// NewDB opens the configured database and creates missing tables.
func NewDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	var driver string
	switch cfg.Driver {
	case "sqlite":
		driver = "sqlite"
	case "postgres":
		driver = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := sqlx.Connect(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// The modernc driver opens one sqlite handle per pooled
		// connection; a single shared connection avoids write lock
		// contention on the file.
		db.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the two tables if they are absent.
func Migrate(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
