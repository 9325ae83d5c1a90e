// Package worker runs media generation jobs on background goroutines,
// decoupled from the HTTP request cycle. Handlers submit work and return
// immediately; clients observe progress through the tracker.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Task is one unit of background work. Every external call the task makes
// runs under the pool's per-job timeout, so an abandoned job always ends in
// a terminal state instead of hanging.
type Task struct {
	id   string
	name string
	fn   func(ctx context.Context)
}

// Pool is a fixed-size worker pool fed by a buffered channel.
type Pool struct {
	tasks   chan Task
	timeout time.Duration
	logger  *zap.Logger
	wg      sync.WaitGroup

	// mu serializes submits against shutdown. The tasks channel is only
	// closed with mu held and closed set, so a send can never race the
	// close.
	mu     sync.Mutex
	closed bool
}

func NewPool(workers int, queueSize int, timeout time.Duration, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		tasks:   make(chan Task, queueSize),
		timeout: timeout,
		logger:  logger,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	return p
}

// Submit queues fn for background execution. Returns false when the queue
// is full or the pool is shutting down; callers surface that as a busy
// condition rather than blocking the request.
func (p *Pool) Submit(name string, fn func(ctx context.Context)) bool {
	task := Task{id: uuid.NewString(), name: name, fn: fn}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.tasks <- task:
		p.logger.Debug("job queued",
			zap.String("job", name),
			zap.String("id", task.id))
		return true
	default:
		p.logger.Warn("job queue full, rejecting",
			zap.String("job", name))
		return false
	}
}

// Shutdown stops accepting work and waits for queued and in-flight jobs
// until ctx expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) work() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

func (p *Pool) run(task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	start := time.Now()
	p.logger.Info("job started",
		zap.String("job", task.name),
		zap.String("id", task.id))

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("job panicked",
				zap.String("job", task.name),
				zap.String("id", task.id),
				zap.Any("panic", r))
		}
	}()

	task.fn(ctx)

	p.logger.Info("job finished",
		zap.String("job", task.name),
		zap.String("id", task.id),
		zap.Duration("elapsed", time.Since(start)))
}
