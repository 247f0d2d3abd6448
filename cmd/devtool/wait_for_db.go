package main

import (
	"fmt"
	"time"
)

type WaitForDBCommand struct{}

func (c *WaitForDBCommand) Name() string {
	return "wait-for-db"
}

func (c *WaitForDBCommand) Description() string {
	return "Wait for database to be ready (with retries)"
}

func (c *WaitForDBCommand) Run(args []string) error {
	PrintHeader("Waiting for database...")

	pool, err := openPool()
	if err != nil {
		return err
	}
	defer pool.Close()

	for i := 0; i < dbWaitRetries; i++ {
		err = pingWithTimeout(pool, dbWaitInterval)
		if err == nil {
			PrintSuccess("Database is ready")
			return nil
		}
		fmt.Printf("Database not ready (%d/%d): %v\n", i+1, dbWaitRetries, err)
		time.Sleep(dbWaitInterval)
	}

	return fmt.Errorf("database failed to become ready after %d attempts", dbWaitRetries)
}
