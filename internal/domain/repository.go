package domain

import (
	"context"
	"time"
)

// JobRepository is the job store contract. The scheduler treats it as
// authoritative on every reload.
type JobRepository interface {
	GetByID(ctx context.Context, id int64) (*Job, error)
	List(ctx context.Context, page, pageSize int) ([]*Job, int64, error)
	ListEnabled(ctx context.Context) ([]*Job, error)
	Save(ctx context.Context, job *Job) (*Job, error)
	Delete(ctx context.Context, id int64) error
}

// RunRepository persists run records. Save is called repeatedly during a
// run so partial progress is visible mid-run.
type RunRepository interface {
	GetByRunID(ctx context.Context, runID string) (*Run, error)
	ListByJob(ctx context.Context, jobID int64, page, pageSize int) ([]*Run, int64, error)
	Save(ctx context.Context, run *Run) (*Run, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// HeartbeatRepository stores the per-host agent liveness records.
type HeartbeatRepository interface {
	GetByHostname(ctx context.Context, hostname string) (*Heartbeat, error)
	List(ctx context.Context) ([]*Heartbeat, error)
	Save(ctx context.Context, hb *Heartbeat) error
	MarkOfflineOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AlertRepository stores active failure conditions for notification
// deduplication.
type AlertRepository interface {
	GetByKey(ctx context.Context, key string) (*Alert, error)
	Save(ctx context.Context, alert *Alert) error
	Resolve(ctx context.Context, key string) error
}
