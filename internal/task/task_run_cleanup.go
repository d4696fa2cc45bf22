package task

import (
	"context"
	"time"

	"github.com/baluardo/backup-control-service/internal/app"

	"go.uber.org/zap"
)

// RunCleanupTask deletes terminal run records older than the configured
// retention window. Running runs are never touched.
type RunCleanupTask struct {
	app    *app.App
	keep   time.Duration
	logger *zap.Logger
}

// NewRunCleanupTask returns nil when run history retention is disabled.
func NewRunCleanupTask(appContainer *app.App) Task {
	days := appContainer.Config().Engine.RunRetentionDays
	if days <= 0 {
		return nil
	}
	return &RunCleanupTask{
		app:    appContainer,
		keep:   time.Duration(days) * 24 * time.Hour,
		logger: appContainer.Logger(),
	}
}

func (t *RunCleanupTask) Name() string {
	return "RunCleanup"
}

func (t *RunCleanupTask) LoopInterval() time.Duration {
	return 6 * time.Hour
}

func (t *RunCleanupTask) IsStartupRun() bool {
	return true
}

func (t *RunCleanupTask) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-t.keep)
	deleted, err := t.app.RunRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		t.logger.Info("old runs cleaned up",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
	return nil
}
