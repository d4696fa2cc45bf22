package task

import (
	"context"
	"time"

	"github.com/baluardo/backup-control-service/internal/app"

	"go.uber.org/zap"
)

// HeartbeatSweepTask marks heartbeats older than the TTL as offline so
// the host view reflects silence without waiting for a read.
type HeartbeatSweepTask struct {
	app    *app.App
	logger *zap.Logger
}

func NewHeartbeatSweepTask(appContainer *app.App) Task {
	return &HeartbeatSweepTask{
		app:    appContainer,
		logger: appContainer.Logger(),
	}
}

func (t *HeartbeatSweepTask) Name() string {
	return "HeartbeatSweep"
}

func (t *HeartbeatSweepTask) LoopInterval() time.Duration {
	return t.app.Config().GetHeartbeatSweepInterval()
}

func (t *HeartbeatSweepTask) IsStartupRun() bool {
	return false
}

func (t *HeartbeatSweepTask) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-t.app.HeartbeatService.TTL())
	marked, err := t.app.HeartbeatRepo.MarkOfflineOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if marked > 0 {
		t.logger.Info("stale heartbeats marked offline", zap.Int64("marked", marked))
	}
	return nil
}
