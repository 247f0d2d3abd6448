package worker

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
)

type testJob struct {
	executed *int32
}

func (j *testJob) Process(ctx context.Context) error {
	atomic.AddInt32(j.executed, 1)
	return nil
}

func TestPool(t *testing.T) {
	checker := leaktest.NewGoroutineChecker(t)
	var executed int32
	pool := NewPool(TestWorkerCount, TestQueueSize)
	pool.Start()

	job := &testJob{executed: &executed}
	assert.True(t, pool.Enqueue(job))
	assert.True(t, pool.Enqueue(job))

	// Wait a bit for workers to process
	time.Sleep(TestWorkerProcessWaitTime * time.Millisecond)

	pool.Stop()

	assert.Equal(t, int32(TestExpectedJobCount), atomic.LoadInt32(&executed))
	checker.Check(0)
}

func TestPool_StopDrainsQueue(t *testing.T) {
	var executed int32
	pool := NewPool(1, TestQueueSize)

	// Not started yet, so everything queues
	for i := 0; i < 5; i++ {
		require.True(t, pool.Enqueue(&testJob{executed: &executed}))
	}
	pool.Start()
	pool.Stop()

	assert.Equal(t, int32(5), atomic.LoadInt32(&executed))
	assert.False(t, pool.Enqueue(&testJob{executed: &executed}), "stopped pool refuses work")
	pool.Stop()
}

func TestPool_EnqueueNeverBlocks(t *testing.T) {
	pool := NewPool(1, 1)
	var executed int32

	assert.True(t, pool.Enqueue(&testJob{executed: &executed}))
	assert.False(t, pool.Enqueue(&testJob{executed: &executed}), "full queue drops")

	pool.Start()
	pool.Stop()
	assert.Equal(t, int32(1), atomic.LoadInt32(&executed))
}

func TestPool_FailingJobDoesNotStopWorker(t *testing.T) {
	pool := NewPool(1, TestQueueSize)
	pool.Start()

	var executed int32
	pool.Enqueue(Func{JobName: "boom", Fn: func(ctx context.Context) error { return errors.New("boom") }})
	pool.Enqueue(&testJob{executed: &executed})
	pool.Stop()

	assert.Equal(t, int32(1), atomic.LoadInt32(&executed))
}

type fakeReconciler struct {
	provider string
	body     string
	err      error
	failures int // calls that fail with err before succeeding; 0 fails every call
	calls    int
}

func (f *fakeReconciler) HandleCallback(ctx context.Context, providerName string, body []byte) (domain.ReconcileOutcome, error) {
	f.calls++
	f.provider = providerName
	f.body = string(body)
	if f.err != nil && (f.failures == 0 || f.calls <= f.failures) {
		return "", f.err
	}
	return domain.ReconcileOutcomeApplied, nil
}

func TestCallbackJob(t *testing.T) {
	rec := &fakeReconciler{}
	job := &CallbackJob{Reconciler: rec, Provider: "mpesa", Body: []byte(`{"x":1}`), RequestID: "req-1"}

	require.NoError(t, job.Process(context.Background()))
	assert.Equal(t, "mpesa", rec.provider)
	assert.Equal(t, `{"x":1}`, rec.body)
	assert.Equal(t, "reconcile-callback:mpesa", job.Name())

	rec.err = errors.New("db down")
	rec.calls = 0
	job.MaxAttempts = 3
	job.Backoff = time.Millisecond
	assert.Error(t, job.Process(context.Background()))
	assert.Equal(t, 3, rec.calls)
}

func TestCallbackJob_RetriesTransientFailure(t *testing.T) {
	rec := &fakeReconciler{err: errors.New("connection reset"), failures: 1}
	job := &CallbackJob{Reconciler: rec, Provider: "mpesa", Body: []byte(`{}`), Backoff: time.Millisecond}

	require.NoError(t, job.Process(context.Background()))
	assert.Equal(t, 2, rec.calls)
}

func TestCallbackJob_DomainErrorNotRetried(t *testing.T) {
	rec := &fakeReconciler{err: domain.ErrInvalidTransition}
	job := &CallbackJob{Reconciler: rec, Provider: "mpesa", Body: []byte(`{}`), Backoff: time.Millisecond}

	err := job.Process(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, 1, rec.calls)
}

func TestCallbackJob_StopsOnContextDone(t *testing.T) {
	rec := &fakeReconciler{err: errors.New("db down")}
	job := &CallbackJob{Reconciler: rec, Provider: "mpesa", Body: []byte(`{}`), Backoff: time.Hour}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.Error(t, job.Process(ctx))
	assert.Equal(t, 1, rec.calls)
}
