package infra_pg_init

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/humanbelnik/storypoker/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func MustEstablishConn(cfg config.Store) *sqlx.DB {
	db, err := Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}

	return db
}

func Connect(cfg config.Store) (*sqlx.DB, error) {
	switch cfg.Driver {
	case DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.DBName,
			cfg.SSLMode,
		)
		return sqlx.Connect(DriverPostgres, dsn)
	case DriverSQLite:
		return OpenSQLite(cfg.Path)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// OpenSQLite opens a single-connection database, so transactions never interleave.
func OpenSQLite(path string) (*sqlx.DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sqlx.Connect(DriverSQLite, path+sep+"_pragma=foreign_keys(1)&_time_format=sqlite")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		is_active  BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS members (
		id                TEXT PRIMARY KEY,
		name              TEXT NOT NULL,
		room_id           TEXT NOT NULL REFERENCES rooms (id) ON DELETE CASCADE,
		access_credential TEXT NOT NULL,
		created_at        TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stories (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		room_id      TEXT NOT NULL REFERENCES rooms (id) ON DELETE CASCADE,
		is_completed BOOLEAN NOT NULL DEFAULT FALSE,
		position     BIGINT NOT NULL,
		created_at   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS votes (
		member_id  TEXT NOT NULL REFERENCES members (id) ON DELETE CASCADE,
		story_id   TEXT NOT NULL REFERENCES stories (id) ON DELETE CASCADE,
		value      INTEGER NULL CHECK (value BETWEEN 0 AND 100),
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (member_id, story_id)
	)`,
	`CREATE INDEX IF NOT EXISTS members_room_id_idx ON members (room_id)`,
	`CREATE INDEX IF NOT EXISTS stories_room_id_idx ON stories (room_id, position)`,
	`CREATE INDEX IF NOT EXISTS votes_story_id_idx ON votes (story_id)`,
}

// CreateSchema is idempotent and runs on every start of the gateway.
func CreateSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
