package testing

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/ddlstore/internal/testinfra"
)

// TestConnEnv points integration tests at an existing server instead of a
// container. The server needs the schemas from testinfra.DefaultSetup.
const TestConnEnv = "DDLSTORE_TEST_CONN"

var shared struct {
	once sync.Once
	conn string
	err  error
}

// sharedServer starts one container per test binary. It is left for the
// testcontainers reaper to remove.
func sharedServer() (string, error) {
	shared.once.Do(func() {
		srv, err := testinfra.StartPostgres(context.Background(), testinfra.Options{Setup: testinfra.DefaultSetup})
		if err != nil {
			shared.err = err
			return
		}
		shared.conn = srv.ConnString
	})
	return shared.conn, shared.err
}

// RequireDatabase returns a connection string for integration tests.
// The test is skipped under -short, and when neither DDLSTORE_TEST_CONN nor
// Docker is available.
func RequireDatabase(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}

	if conn := os.Getenv(TestConnEnv); conn != "" {
		return conn
	}
	conn, err := sharedServer()
	if err != nil {
		t.Skipf("%s not set and no container could be started: %v", TestConnEnv, err)
	}
	return conn
}

// RequirePool is RequireDatabase plus a pool closed at the end of the test.
func RequirePool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pool, err := pgxpool.New(context.Background(), RequireDatabase(t))
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}
