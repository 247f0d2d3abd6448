package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/logger"
	"github.com/osse101/RentalsLedger_Go/internal/metrics"
	"github.com/osse101/RentalsLedger_Go/internal/worker"
)

// Log and error messages
const (
	LogMsgTaskScheduled = "Task scheduled"
	LogMsgTaskSkipped   = "Task still running, tick skipped"
	LogMsgTaskFailed    = "Task failed"
	LogMsgTaskManualRun = "Task manually triggered"

	ErrMsgUnknownTask = "unknown task"
)

// TaskFunc is one run of a scheduled task
type TaskFunc func(ctx context.Context) error

type task struct {
	name     string
	interval time.Duration
	fn       TaskFunc
	running  sync.Mutex
}

// Scheduler runs named tasks at fixed intervals through the worker pool. Each task can also
// be run on demand; a task never overlaps with itself.
type Scheduler struct {
	workerPool *worker.Pool
	tasks      map[string]*task
	quit       chan struct{}
	wg         sync.WaitGroup
	started    bool
	stopOnce   sync.Once
}

// New creates a new scheduler
func New(pool *worker.Pool) *Scheduler {
	return &Scheduler{
		workerPool: pool,
		tasks:      make(map[string]*task),
		quit:       make(chan struct{}),
	}
}

// Register adds a named task. It must be called before Start.
func (s *Scheduler) Register(name string, interval time.Duration, fn TaskFunc) {
	if s.started {
		panic("scheduler: Register called after Start")
	}
	s.tasks[name] = &task{name: name, interval: interval, fn: fn}
}

// Names returns the registered task names, sorted
func (s *Scheduler) Names() []string {
	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start begins ticking every registered task with a positive interval
func (s *Scheduler) Start() {
	s.started = true
	for _, t := range s.tasks {
		if t.interval <= 0 {
			continue
		}
		logger.Info(LogMsgTaskScheduled, "task", t.name, "interval", t.interval)
		s.wg.Add(1)
		go s.loop(t)
	}
}

func (s *Scheduler) loop(t *task) {
	defer s.wg.Done()
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// The pool drops the job when its queue is full; the next tick retries
			s.workerPool.Enqueue(worker.Func{
				JobName: t.name,
				Fn:      func(ctx context.Context) error { return s.tick(ctx, t) },
			})
		case <-s.quit:
			return
		}
	}
}

// tick runs t unless a previous run is still going
func (s *Scheduler) tick(ctx context.Context, t *task) error {
	if !t.running.TryLock() {
		metrics.TaskRuns.WithLabelValues(t.name, metrics.ResultSkipped).Inc()
		logger.FromContext(ctx).Debug(LogMsgTaskSkipped, "task", t.name)
		return nil
	}
	defer t.running.Unlock()
	return execute(ctx, t)
}

// RunNow runs the named task synchronously, waiting for any in-flight run to finish first
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	t, ok := s.tasks[name]
	if !ok {
		return domain.NewError(domain.ErrorKindNotFound, fmt.Sprintf("%s: %s", ErrMsgUnknownTask, name))
	}
	logger.FromContext(ctx).Info(LogMsgTaskManualRun, "task", name)

	t.running.Lock()
	defer t.running.Unlock()
	return execute(ctx, t)
}

func execute(ctx context.Context, t *task) error {
	if err := t.fn(ctx); err != nil {
		metrics.TaskRuns.WithLabelValues(t.name, metrics.ResultError).Inc()
		logger.FromContext(ctx).Error(LogMsgTaskFailed, "task", t.name, "error", err)
		return err
	}
	metrics.TaskRuns.WithLabelValues(t.name, metrics.ResultSuccess).Inc()
	return nil
}

// Stop stops all tickers. Runs already handed to the pool finish with the pool.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		s.wg.Wait()
	})
}
