// Package task runs the periodic maintenance loops: run history cleanup
// and stale heartbeat sweeping.
package task

import (
	"context"
	"time"

	"github.com/baluardo/backup-control-service/pkg/safe_close"

	"go.uber.org/zap"
)

// Task is one periodic maintenance job.
type Task interface {
	Name() string
	Run(ctx context.Context) error
	LoopInterval() time.Duration
	// IsStartupRun reports whether the task also runs once at startup.
	IsStartupRun() bool
}

// Scheduler drives the registered tasks on their intervals until the
// close signal fires.
type Scheduler struct {
	logger *zap.Logger
	tasks  []Task
	sc     *safe_close.SafeClose
}

func NewScheduler(logger *zap.Logger, sc *safe_close.SafeClose) *Scheduler {
	return &Scheduler{
		logger: logger,
		tasks:  make([]Task, 0),
		sc:     sc,
	}
}

func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

func (s *Scheduler) Start() {
	if len(s.tasks) == 0 {
		s.logger.Info("no maintenance tasks to schedule")
		return
	}

	s.logger.Info("maintenance tasks starting", zap.Int("count", len(s.tasks)))
	for _, task := range s.tasks {
		s.startTask(task)
	}
}

func (s *Scheduler) startTask(task Task) {
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()

		if task.IsStartupRun() {
			s.runOnce(task, "startupRun")
		}

		if task.LoopInterval() <= 0 {
			return
		}

		ticker := time.NewTicker(task.LoopInterval())
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runOnce(task, "loopRun")
			case <-closeSignal:
				s.logger.Info("task stopped", zap.String("name", task.Name()))
				return
			}
		}
	})
}

func (s *Scheduler) runOnce(task Task, mode string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panic",
				zap.String("name", task.Name()),
				zap.String("mode", mode),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()
	s.logger.Debug("task running", zap.String("name", task.Name()), zap.String("mode", mode))
	if err := task.Run(context.Background()); err != nil {
		s.logger.Error("task running error",
			zap.String("name", task.Name()),
			zap.String("mode", mode),
			zap.Error(err))
	}
}
