package testutil

import (
	"context"

	"github.com/google/uuid"
	infra_pg_init "github.com/humanbelnik/storypoker/internal/infra/postgres/init"
	"github.com/jmoiron/sqlx"
)

// OpenStore returns a fresh in-memory database with the schema applied.
// It is closed when the test ends.
func OpenStore(t interface {
	Fatalf(format string, args ...any)
	Cleanup(func())
}) *sqlx.DB {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := infra_pg_init.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := infra_pg_init.CreateSchema(context.Background(), db); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}
