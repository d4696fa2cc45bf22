// Package workerpool provides a bounded worker pool for goroutine
// lifecycle management, limiting the number of concurrently executing
// tasks.
package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrPoolFull is returned when the task queue is full.
	ErrPoolFull = errors.New("worker pool queue is full")
	// ErrPoolClosed is returned when the pool has been shut down.
	ErrPoolClosed = errors.New("worker pool is closed")
)

// Config worker pool configuration
type Config struct {
	// MaxWorkers maximum number of concurrent workers, default 16
	MaxWorkers int
	// QueueSize task queue capacity, default 64
	QueueSize int
	// WarningPercent active-worker warning threshold, default 0.8
	WarningPercent float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxWorkers:     16,
		QueueSize:      64,
		WarningPercent: 0.8,
	}
}

type taskWrapper struct {
	ctx context.Context
	fn  func(context.Context) error
}

// Pool is a bounded worker pool.
type Pool struct {
	config Config
	logger *zap.Logger

	taskCh   chan taskWrapper
	workerWg sync.WaitGroup

	activeCount atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// New creates a pool and starts its workers. A nil cfg uses defaults;
// a nil logger is replaced with a nop logger.
func New(cfg *Config, logger *zap.Logger) *Pool {
	if cfg == nil {
		defaultCfg := DefaultConfig()
		cfg = &defaultCfg
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 16
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.WarningPercent <= 0 || cfg.WarningPercent > 1 {
		cfg.WarningPercent = 0.8
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		config: *cfg,
		logger: logger,
		taskCh: make(chan taskWrapper, cfg.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < cfg.MaxWorkers; i++ {
		p.workerWg.Add(1)
		go p.worker()
	}

	p.logger.Info("worker pool started",
		zap.Int("maxWorkers", cfg.MaxWorkers),
		zap.Int("queueSize", cfg.QueueSize))

	return p
}

func (p *Pool) worker() {
	defer p.workerWg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.taskCh:
			if !ok {
				return
			}
			p.executeTask(task)
		}
	}
}

func (p *Pool) executeTask(task taskWrapper) {
	p.activeCount.Add(1)
	defer p.activeCount.Add(-1)

	p.checkWarningThreshold()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker pool task panic", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	select {
	case <-task.ctx.Done():
		return
	default:
	}
	if err := task.fn(task.ctx); err != nil {
		p.logger.Error("worker pool task error", zap.Error(err))
	}
}

func (p *Pool) checkWarningThreshold() {
	active := p.activeCount.Load()
	threshold := int64(float64(p.config.MaxWorkers) * p.config.WarningPercent)
	if active >= threshold {
		p.logger.Warn("worker pool approaching capacity",
			zap.Int64("activeCount", active),
			zap.Int("maxWorkers", p.config.MaxWorkers))
	}
}

// Submit enqueues a task for asynchronous execution. Errors returned by
// the task are logged, not propagated.
func (p *Pool) Submit(ctx context.Context, fn func(context.Context) error) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPoolClosed
	}
	p.mu.RUnlock()

	select {
	case p.taskCh <- taskWrapper{ctx: ctx, fn: fn}:
		return nil
	default:
		return ErrPoolFull
	}
}

// ActiveCount returns the number of tasks currently executing.
func (p *Pool) ActiveCount() int64 {
	return p.activeCount.Load()
}

// Shutdown stops accepting tasks and waits for in-flight tasks to finish.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.taskCh)
	p.workerWg.Wait()
	p.cancel()
	p.logger.Info("worker pool stopped")
}
