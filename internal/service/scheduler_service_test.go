package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/baluardo/backup-control-service/internal/domain"
	"github.com/baluardo/backup-control-service/pkg/workerpool"

	"go.uber.org/zap"
)

type schedMockJobRepo struct {
	domain.JobRepository
	jobs []*domain.Job
}

func (r *schedMockJobRepo) GetByID(_ context.Context, id int64) (*domain.Job, error) {
	for _, j := range r.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, nil
}

func (r *schedMockJobRepo) ListEnabled(_ context.Context) ([]*domain.Job, error) {
	var out []*domain.Job
	for _, j := range r.jobs {
		if j.Enabled {
			out = append(out, j)
		}
	}
	return out, nil
}

type schedMockExecutor struct {
	ExecutorService
	mu       sync.Mutex
	executed []int64
}

func (e *schedMockExecutor) Execute(_ context.Context, job *domain.Job) (*domain.Run, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.executed = append(e.executed, job.ID)
	return &domain.Run{JobID: job.ID, Status: domain.RunStatusSuccess}, nil
}

func (e *schedMockExecutor) calls() []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]int64, len(e.executed))
	copy(out, e.executed)
	return out
}

func newTestScheduler(repo *schedMockJobRepo, exec ExecutorService) *schedulerService {
	return NewSchedulerService(repo, exec, nil, zap.NewNop(), nil).(*schedulerService)
}

func TestSchedulerRebuildOrdersTimeline(t *testing.T) {
	repo := &schedMockJobRepo{jobs: []*domain.Job{
		{ID: 1, Name: "late", Enabled: true, Schedule: domain.Schedule{
			Type: domain.ScheduleTypeDaily, Days: []int{1, 2, 3, 4, 5, 6, 7}, Times: []string{"23:00"},
		}},
		{ID: 2, Name: "early", Enabled: true, Schedule: domain.Schedule{
			Type: domain.ScheduleTypeDaily, Days: []int{1, 2, 3, 4, 5, 6, 7}, Times: []string{"08:00"},
		}},
		{ID: 3, Name: "disabled", Enabled: false, Schedule: domain.Schedule{
			Type: domain.ScheduleTypeDaily, Days: []int{1, 2, 3, 4, 5, 6, 7}, Times: []string{"00:30"},
		}},
		{ID: 4, Name: "never", Enabled: true, Schedule: domain.Schedule{
			Type: domain.ScheduleTypeDaily, Days: []int{}, Times: []string{"12:00"},
		}},
	}}
	s := newTestScheduler(repo, &schedMockExecutor{})
	s.now = func() time.Time { return mustTime(t, "2024-06-12 06:00") }

	s.rebuild()

	entries := s.Entries()
	if len(entries) != 2 {
		t.Fatalf("timeline has %d entries, want 2: %+v", len(entries), entries)
	}
	if entries[0].JobID != 2 || entries[1].JobID != 1 {
		t.Fatalf("timeline out of order: %+v", entries)
	}
	if want := mustTime(t, "2024-06-12 08:00"); !entries[0].NextRun.Equal(want) {
		t.Fatalf("next run = %v, want %v", entries[0].NextRun, want)
	}

	// Rebuilding an unchanged job table yields the same timeline.
	s.rebuild()
	again := s.Entries()
	if len(again) != 2 || !again[0].NextRun.Equal(entries[0].NextRun) {
		t.Fatalf("rebuild is not idempotent: %+v", again)
	}
}

func TestSchedulerFireDueLaunchesOnlyElapsedEntries(t *testing.T) {
	exec := &schedMockExecutor{}
	repo := &schedMockJobRepo{jobs: []*domain.Job{
		{ID: 5, Name: "due", Enabled: true},
		{ID: 6, Name: "future", Enabled: true},
		{ID: 7, Name: "disabled since scheduling", Enabled: false},
	}}
	pool := workerpool.New(nil, zap.NewNop())
	s := NewSchedulerService(repo, exec, pool, zap.NewNop(), nil).(*schedulerService)
	now := mustTime(t, "2024-06-12 06:00")
	s.now = func() time.Time { return now }
	s.entries = []Entry{
		{JobID: 5, JobName: "due", NextRun: now},
		{JobID: 7, JobName: "disabled since scheduling", NextRun: now.Add(-time.Minute)},
		{JobID: 6, JobName: "future", NextRun: now.Add(time.Second)},
	}

	s.fireDue()
	pool.Shutdown()

	if got := exec.calls(); len(got) != 1 || got[0] != 5 {
		t.Fatalf("executed jobs = %v, want [5]", got)
	}
}

func TestRunJobNowMissingJob(t *testing.T) {
	s := newTestScheduler(&schedMockJobRepo{}, &schedMockExecutor{})
	_, err := s.RunJobNow(context.Background(), 99)
	if !domain.IsKind(err, domain.KindJobNotFound) {
		t.Fatalf("err = %v, want kind JOB_NOT_FOUND", err)
	}
}

func TestRunJobNowDelegatesToExecutor(t *testing.T) {
	exec := &schedMockExecutor{}
	repo := &schedMockJobRepo{jobs: []*domain.Job{{ID: 8, Name: "manual", Enabled: true}}}
	s := newTestScheduler(repo, exec)

	run, err := s.RunJobNow(context.Background(), 8)
	if err != nil {
		t.Fatal(err)
	}
	if run.JobID != 8 {
		t.Fatalf("run.JobID = %d, want 8", run.JobID)
	}
	if len(exec.executed) != 1 || exec.executed[0] != 8 {
		t.Fatalf("executor calls = %v", exec.executed)
	}
}

func TestSchedulerReloadNeverBlocks(t *testing.T) {
	s := newTestScheduler(&schedMockJobRepo{}, &schedMockExecutor{})
	// The reload channel has capacity one; extra signals collapse.
	for i := 0; i < 10; i++ {
		s.Reload()
	}
	if len(s.reloadCh) != 1 {
		t.Fatalf("reload channel depth = %d, want 1", len(s.reloadCh))
	}
}
