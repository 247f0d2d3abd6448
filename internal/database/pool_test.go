package database

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/osse101/RentalsLedger_Go/internal/testing/leaktest"
)

var testDBConnString string

func TestMain(m *testing.M) {
	flag.Parse()
	var terminate func()
	if !testing.Short() {
		testDBConnString, terminate = setupContainer(context.Background())
	}

	code := m.Run()

	if terminate != nil {
		terminate()
	}
	os.Exit(code)
}

// setupContainer starts postgres, or returns an empty string when Docker is unavailable
func setupContainer(ctx context.Context) (connStr string, terminate func()) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("Recovered from panic in setupContainer: %v\n", r)
			connStr, terminate = "", nil
		}
	}()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("ledger_test"),
		postgres.WithUsername("ledger"),
		postgres.WithPassword("ledger"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		fmt.Printf("WARNING: Failed to start postgres container: %v\n", err)
		return "", nil
	}

	connStr, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Printf("WARNING: Failed to get connection string: %v\n", err)
		_ = pgContainer.Terminate(ctx)
		return "", nil
	}

	return connStr, func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate container: %v\n", err)
		}
	}
}

func requireDB(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if testDBConnString == "" {
		t.Skip("Skipping integration test: database not available")
	}
}

func TestNewPool_RejectsBadConnString(t *testing.T) {
	_, err := NewPool("postgres://%zz", 5, time.Minute, time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgFailedToParseConnString)
}

func TestPool_ConcurrentAccess(t *testing.T) {
	requireDB(t)

	pool, err := NewPool(testDBConnString, 10, time.Minute, 5*time.Minute)
	require.NoError(t, err)
	defer pool.Close()

	checker := leaktest.NewGoroutineChecker(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			var got int
			if err := pool.QueryRow(context.Background(), "SELECT $1::int", id).Scan(&got); err != nil {
				t.Errorf("worker %d query failed: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(0), pool.Stat().AcquiredConns(), "all connections should be released")
	checker.Check(2)
}

func TestMigrations(t *testing.T) {
	requireDB(t)

	pool, err := NewPool(testDBConnString, 5, time.Minute, 5*time.Minute)
	require.NoError(t, err)
	defer pool.Close()
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, pool))
	require.NoError(t, Migrate(ctx, pool), "second run should be a no-op")

	version, err := MigrationVersion(ctx, pool)
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)

	for _, table := range []string{"plans", "subscriptions", "payments", "listings"} {
		var exists bool
		require.NoError(t, pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", table).Scan(&exists))
		assert.True(t, exists, "table %s should exist", table)
	}

	t.Run("remaining counters cannot go negative", func(t *testing.T) {
		var planID string
		err := pool.QueryRow(ctx, `
			INSERT INTO plans (name, price_cents, duration_days, listing_quota, featured_quota)
			VALUES ('check', 100, 30, 1, 0) RETURNING id`).Scan(&planID)
		require.NoError(t, err)

		_, err = pool.Exec(ctx, `
			INSERT INTO subscriptions (user_id, plan_id, plan_name, listing_quota, featured_quota, duration_days,
				started_at, expires_at, remaining_listings, remaining_featured)
			VALUES (gen_random_uuid(), $1, 'check', 1, 0, 30, NOW(), NOW() + INTERVAL '30 days', -1, 0)`, planID)
		assert.Error(t, err)
	})

	t.Run("rollback and reapply", func(t *testing.T) {
		require.NoError(t, RollbackLast(ctx, pool))
		v, err := MigrationVersion(ctx, pool)
		require.NoError(t, err)
		assert.Equal(t, int64(3), v)

		require.NoError(t, Migrate(ctx, pool))
		v, err = MigrationVersion(ctx, pool)
		require.NoError(t, err)
		assert.Equal(t, int64(4), v)
	})
}
