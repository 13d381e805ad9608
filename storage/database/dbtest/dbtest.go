// Package dbtest starts throwaway Postgres databases for integration tests.
package dbtest

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/brighttutor/brightdesk/storage/database"
)

// testcontainers panics when there is no docker daemon.
func dockerAvailable() bool {
	return exec.Command("docker", "info").Run() == nil
}

// NewPostgres starts a migrated Postgres container and returns a connection to it, with its DSN.
// The test is skipped when docker is not available.
func NewPostgres(t *testing.T) (*sqlx.DB, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping Postgres integration test in short mode")
	}
	if !dockerAvailable() {
		t.Skip("docker not available, skipping Postgres integration test")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("brightdesk"),
		postgres.WithUsername("brightdesk"),
		postgres.WithPassword("brightdesk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		t.Skipf("starting Postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminating Postgres container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("migrating database: %v", err)
	}
	return db, dsn
}
