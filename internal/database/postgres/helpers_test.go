package postgres

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/osse101/RentalsLedger_Go/internal/database"
)

// testPool is shared by every integration test in the package; nil when Docker is unavailable
var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	flag.Parse()
	code, err := runWithContainer(m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "postgres integration setup: %v\n", err)
	}
	os.Exit(code)
}

func runWithContainer(m *testing.M) (code int, err error) {
	if testing.Short() || os.Getenv("SKIP_INTEGRATION") != "" {
		return m.Run(), nil
	}
	ctx := context.Background()

	var container *tcpostgres.PostgresContainer
	func() {
		// testcontainers panics when no Docker daemon is reachable
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("docker unavailable: %v", r)
			}
		}()
		container, err = tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("ledger_test"),
			tcpostgres.WithUsername("testuser"),
			tcpostgres.WithPassword("testpass"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
	}()
	if err != nil || container == nil {
		// Integration tests skip themselves when testPool is nil
		return m.Run(), err
	}
	defer func() {
		if terr := container.Terminate(ctx); terr != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", terr)
		}
	}()

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return 1, err
	}
	pool, err := database.NewPool(connStr, 20, time.Minute, 10*time.Minute)
	if err != nil {
		return 1, err
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		return 1, err
	}
	testPool = pool
	return m.Run(), nil
}

// requirePool skips the test when no database is available and truncates every ledger table
func requirePool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testPool == nil {
		t.Skip("Skipping integration test: no Postgres container")
	}
	_, err := testPool.Exec(context.Background(),
		`TRUNCATE listings, payments, subscriptions, plans RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
	return testPool
}
