package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/RentalsLedger_Go/internal/database"
)

const (
	devtoolMaxConns = 2
	dbWaitRetries   = 30
	dbWaitInterval  = 2 * time.Second
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// dbURL prefers DB_URL and otherwise assembles the same DB_* variables the service reads
func dbURL() string {
	if u := os.Getenv("DB_URL"); u != "" {
		return u
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "rentals_ledger"),
	)
}

// redactPassword hides the password in a connection string before it is printed
func redactPassword(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil || u.User == nil {
		return connStr
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

func openPool() (*pgxpool.Pool, error) {
	connStr := dbURL()
	PrintInfo("Connecting to %s", redactPassword(connStr))
	return database.NewPool(connStr, devtoolMaxConns, time.Minute, time.Hour)
}

func pingWithTimeout(pool *pgxpool.Pool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return pool.Ping(ctx)
}
