package service

import (
	"context"
	"testing"
	"time"

	"github.com/baluardo/backup-control-service/internal/domain"

	"go.uber.org/zap"
)

type notifyMockAlertRepo struct {
	domain.AlertRepository
	alerts map[string]*domain.Alert
}

func newNotifyMockAlertRepo() *notifyMockAlertRepo {
	return &notifyMockAlertRepo{alerts: map[string]*domain.Alert{}}
}

func (r *notifyMockAlertRepo) GetByKey(_ context.Context, key string) (*domain.Alert, error) {
	return r.alerts[key], nil
}

func (r *notifyMockAlertRepo) Save(_ context.Context, alert *domain.Alert) error {
	clone := *alert
	r.alerts[alert.Key] = &clone
	return nil
}

func (r *notifyMockAlertRepo) Resolve(_ context.Context, key string) error {
	if a, ok := r.alerts[key]; ok {
		a.Active = false
	}
	return nil
}

func TestRunFinishedOpensAlertOnce(t *testing.T) {
	repo := newNotifyMockAlertRepo()
	svc := NewNotifyService(repo, zap.NewNop()).(*notifyService)
	first := mustTime(t, "2024-06-12 02:05")
	svc.now = func() time.Time { return first }

	job := &domain.Job{ID: 3, Name: "projects nightly"}
	run := &domain.Run{RunID: "r1", Status: domain.RunStatusFailed, Errors: []string{"agent unreachable"}}

	isNew, err := svc.RunFinished(context.Background(), job, run)
	if err != nil {
		t.Fatal(err)
	}
	if !isNew {
		t.Fatal("first failure must open a new alert")
	}

	// The same failure on the next run keeps the existing alert quiet.
	second := first.Add(24 * time.Hour)
	svc.now = func() time.Time { return second }
	isNew, err = svc.RunFinished(context.Background(), job, run)
	if err != nil {
		t.Fatal(err)
	}
	if isNew {
		t.Fatal("repeated failure must not re-notify")
	}

	alert := repo.alerts["job:3:failed"]
	if alert == nil || !alert.Active {
		t.Fatalf("expected an active alert, got %+v", alert)
	}
	if !alert.FirstSeen.Equal(first) || !alert.LastSeen.Equal(second) {
		t.Fatalf("alert timestamps not maintained: %+v", alert)
	}
}

func TestRunFinishedSuccessResolves(t *testing.T) {
	repo := newNotifyMockAlertRepo()
	repo.alerts["job:3:failed"] = &domain.Alert{Key: "job:3:failed", JobID: 3, Active: true}
	repo.alerts["job:3:partial"] = &domain.Alert{Key: "job:3:partial", JobID: 3, Active: true}
	svc := NewNotifyService(repo, zap.NewNop())

	job := &domain.Job{ID: 3, Name: "projects nightly"}
	run := &domain.Run{RunID: "r2", Status: domain.RunStatusSuccess}

	isNew, err := svc.RunFinished(context.Background(), job, run)
	if err != nil {
		t.Fatal(err)
	}
	if isNew {
		t.Fatal("a successful run never notifies")
	}
	if repo.alerts["job:3:failed"].Active || repo.alerts["job:3:partial"].Active {
		t.Fatal("success must resolve the job's alerts")
	}
}

func TestRunFinishedReopensResolvedAlert(t *testing.T) {
	repo := newNotifyMockAlertRepo()
	repo.alerts["job:3:partial"] = &domain.Alert{ID: 11, Key: "job:3:partial", JobID: 3, Active: false}
	svc := NewNotifyService(repo, zap.NewNop())

	job := &domain.Job{ID: 3, Name: "projects nightly"}
	run := &domain.Run{RunID: "r3", Status: domain.RunStatusPartial, Warnings: []string{"2 files skipped"}}

	isNew, err := svc.RunFinished(context.Background(), job, run)
	if err != nil {
		t.Fatal(err)
	}
	if !isNew {
		t.Fatal("a resolved alert that fires again is a new condition")
	}
	alert := repo.alerts["job:3:partial"]
	if !alert.Active || alert.ID != 11 {
		t.Fatalf("alert row must be reused and reactivated: %+v", alert)
	}
}
