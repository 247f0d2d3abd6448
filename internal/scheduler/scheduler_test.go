package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/testing/leaktest"
	"github.com/osse101/RentalsLedger_Go/internal/worker"
)

func TestScheduler(t *testing.T) {
	checker := leaktest.NewGoroutineChecker(t)

	pool := worker.NewPool(1, 10)
	pool.Start()

	sched := New(pool)
	done := make(chan struct{}, 10)
	sched.Register("tick", 10*time.Millisecond, func(ctx context.Context) error {
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	})
	sched.Start()

	// Wait for at least 2 runs
	timeout := time.After(time.Second)
	runCount := 0
	for runCount < 2 {
		select {
		case <-done:
			runCount++
		case <-timeout:
			t.Fatal("Timeout waiting for job execution")
		}
	}

	sched.Stop()
	pool.Stop()
	assert.GreaterOrEqual(t, runCount, 2)
	checker.Check(0)
}

func TestScheduler_RunNow(t *testing.T) {
	pool := worker.NewPool(1, 10)
	sched := New(pool)

	var runs int32
	boom := errors.New("boom")
	sched.Register("expire", 0, func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	})
	sched.Register("broken", 0, func(ctx context.Context) error { return boom })
	sched.Start()
	defer sched.Stop()

	require.NoError(t, sched.RunNow(context.Background(), "expire"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))

	assert.ErrorIs(t, sched.RunNow(context.Background(), "broken"), boom)

	err := sched.RunNow(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, []string{"broken", "expire"}, sched.Names())
}

func TestScheduler_TickSkipsWhileRunning(t *testing.T) {
	sched := New(worker.NewPool(1, 1))
	release := make(chan struct{})
	started := make(chan struct{})
	var runs int32
	sched.Register("slow", 0, func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		close(started)
		<-release
		return nil
	})
	tk := sched.tasks["slow"]

	errCh := make(chan error, 1)
	go func() { errCh <- sched.RunNow(context.Background(), "slow") }()
	<-started

	require.NoError(t, sched.tick(context.Background(), tk))
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs), "overlapping tick skipped")

	close(release)
	require.NoError(t, <-errCh)
}
