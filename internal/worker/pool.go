package worker

import (
	"context"
	"sync"
	"time"

	"github.com/osse101/RentalsLedger_Go/internal/logger"
	"github.com/osse101/RentalsLedger_Go/internal/metrics"
)

// Job represents a task to be executed by a worker
type Job interface {
	Process(ctx context.Context) error
}

// Named jobs are logged under their name
type Named interface {
	Name() string
}

// Pool represents a worker pool
type Pool struct {
	workers    int
	jobQueue   chan Job
	jobTimeout time.Duration
	wg         sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// NewPool creates a new worker pool
func NewPool(workers int, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers:    workers,
		jobQueue:   make(chan Job, queueSize),
		jobTimeout: DefaultJobTimeout,
	}
}

// Start starts the workers
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker runs jobs until the queue is closed and drained
func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobQueue {
		p.run(job)
	}
}

func (p *Pool) run(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.jobTimeout)
	defer cancel()

	if err := job.Process(ctx); err != nil {
		metrics.WorkerJobs.WithLabelValues(metrics.ResultError).Inc()
		logger.FromContext(ctx).Error(LogMsgWorkerJobFailed, "job", jobName(job), "error", err)
		return
	}
	metrics.WorkerJobs.WithLabelValues(metrics.ResultSuccess).Inc()
}

// Enqueue adds a job without blocking. It returns false when the queue is full or the
// pool is stopping.
func (p *Pool) Enqueue(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		logger.Warn(LogMsgWorkerStopped, "job", jobName(job))
		return false
	}
	select {
	case p.jobQueue <- job:
		return true
	default:
		metrics.WorkerJobs.WithLabelValues(metrics.ResultDropped).Inc()
		logger.Warn(LogMsgWorkerQueueFull, "job", jobName(job), "capacity", cap(p.jobQueue))
		return false
	}
}

// Stop stops accepting jobs, runs what is already queued and waits for the workers
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobQueue)
	p.mu.Unlock()

	logger.Info(LogMsgWorkerDraining, "queued", len(p.jobQueue))
	p.wg.Wait()
}

func jobName(job Job) string {
	if n, ok := job.(Named); ok {
		return n.Name()
	}
	return "anonymous"
}
