package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/baluardo/backup-control-service/internal/domain"
	"github.com/baluardo/backup-control-service/pkg/logger"
	"github.com/baluardo/backup-control-service/pkg/safe_close"
	"github.com/baluardo/backup-control-service/pkg/workerpool"

	"go.uber.org/zap"
)

// Scheduler timing. The loop wakes early so a fire is never missed by a
// timer rounding down, and never sleeps forever even with an empty job
// table so external edits are picked up.
const (
	schedulerIdleWait = 5 * time.Minute
	schedulerMinWait  = 10 * time.Second
	schedulerLead     = 5 * time.Second
)

// Entry is one scheduled fire as seen by the status API.
type Entry struct {
	JobID   int64     `json:"jobId"`
	JobName string    `json:"jobName"`
	NextRun time.Time `json:"nextRun"`
}

// SchedulerService owns the dynamic next-run timeline. One goroutine
// sleeps until the earliest due fire, launches due jobs on the worker
// pool, then recomputes the timeline from scratch. Reload discards the
// current timeline and rebuilds it from the job store.
type SchedulerService interface {
	Start()
	// Reload schedules a timeline rebuild. Safe to call from any
	// goroutine, idempotent while a rebuild is already pending.
	Reload()
	// RunJobNow executes a job immediately, outside its schedule.
	RunJobNow(ctx context.Context, jobID int64) (*domain.Run, error)
	// Entries returns the current timeline, soonest first.
	Entries() []Entry
}

type schedulerService struct {
	jobs     domain.JobRepository
	executor ExecutorService
	pool     *workerpool.Pool
	logger   *zap.Logger
	closer   *safe_close.SafeClose

	reloadCh chan struct{}

	mu         sync.Mutex
	entries    []Entry
	generation uint64

	now func() time.Time
}

func NewSchedulerService(jobs domain.JobRepository, executor ExecutorService, pool *workerpool.Pool, lg *zap.Logger, closer *safe_close.SafeClose) SchedulerService {
	return &schedulerService{
		jobs:     jobs,
		executor: executor,
		pool:     pool,
		logger:   lg,
		closer:   closer,
		reloadCh: make(chan struct{}, 1),
		now:      time.Now,
	}
}

func (s *schedulerService) Start() {
	s.closer.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		s.loop(closeSignal)
	})
}

func (s *schedulerService) Reload() {
	select {
	case s.reloadCh <- struct{}{}:
	default:
	}
}

func (s *schedulerService) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *schedulerService) RunJobNow(ctx context.Context, jobID int64) (*domain.Run, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, domain.NewError(domain.KindJobNotFound, fmt.Sprintf("job %d does not exist", jobID))
	}
	return s.executor.Execute(ctx, job)
}

func (s *schedulerService) loop(closeSignal <-chan struct{}) {
	s.rebuild()
	for {
		timer := time.NewTimer(s.wait())
		select {
		case <-timer.C:
			s.fireDue()
			s.rebuild()
		case <-s.reloadCh:
			timer.Stop()
			s.rebuild()
		case <-closeSignal:
			timer.Stop()
			s.logger.Info("scheduler stopped")
			return
		}
	}
}

// wait computes how long to sleep before the next wake-up.
func (s *schedulerService) wait() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return schedulerIdleWait
	}
	d := s.entries[0].NextRun.Sub(s.now()) - schedulerLead
	if d < schedulerMinWait {
		return schedulerMinWait
	}
	return d
}

// rebuild recomputes the whole timeline from the enabled jobs. Old
// timeline state is discarded wholesale; rebuilding an unchanged job
// table yields the same timeline, so spurious reloads are harmless.
func (s *schedulerService) rebuild() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	jobs, err := s.jobs.ListEnabled(ctx)
	if err != nil {
		s.logger.Error("timeline rebuild failed", zap.Error(err))
		return
	}
	now := s.now()
	entries := make([]Entry, 0, len(jobs))
	for _, job := range jobs {
		next, ok := NextRun(job.Schedule, now)
		if !ok {
			continue
		}
		entries = append(entries, Entry{JobID: job.ID, JobName: job.Name, NextRun: next})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].NextRun.Before(entries[j].NextRun)
	})

	s.mu.Lock()
	s.entries = entries
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	s.logger.Debug("timeline rebuilt",
		zap.Uint64(logger.FieldGeneration, gen),
		zap.Int("entries", len(entries)))
	if len(entries) > 0 {
		s.logger.Info("next scheduled run",
			zap.Int64(logger.FieldJobID, entries[0].JobID),
			zap.Time(logger.FieldNextRun, entries[0].NextRun))
	}
}

// fireDue launches every entry whose time has come. Fires run on the
// worker pool so a slow agent never delays the timeline; the executor's
// single-flight guard absorbs a fire racing a manual run.
func (s *schedulerService) fireDue() {
	now := s.now()
	s.mu.Lock()
	var due []Entry
	for _, e := range s.entries {
		if !e.NextRun.After(now) {
			due = append(due, e)
		}
	}
	s.mu.Unlock()

	for _, e := range due {
		entry := e
		err := s.pool.Submit(context.Background(), func(ctx context.Context) error {
			job, err := s.jobs.GetByID(ctx, entry.JobID)
			if err != nil {
				return err
			}
			if job == nil || !job.Enabled {
				return nil
			}
			_, err = s.executor.Execute(ctx, job)
			if domain.IsKind(err, domain.KindJobRunning) {
				s.logger.Info("scheduled fire skipped, run already in flight",
					zap.Int64(logger.FieldJobID, entry.JobID))
				return nil
			}
			return err
		})
		if err != nil {
			s.logger.Error("scheduled fire not submitted",
				zap.Int64(logger.FieldJobID, entry.JobID),
				zap.Error(err))
		}
	}
}

var _ SchedulerService = (*schedulerService)(nil)
