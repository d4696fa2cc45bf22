package task

import (
	"github.com/baluardo/backup-control-service/internal/app"
	"github.com/baluardo/backup-control-service/pkg/safe_close"

	"go.uber.org/zap"
)

// Manager creates and registers the maintenance tasks.
type Manager struct {
	scheduler *Scheduler
	logger    *zap.Logger
	app       *app.App
}

func NewManager(logger *zap.Logger, sc *safe_close.SafeClose, appContainer *app.App) *Manager {
	return &Manager{
		scheduler: NewScheduler(logger, sc),
		logger:    logger,
		app:       appContainer,
	}
}

// RegisterTasks registers all maintenance tasks.
func (m *Manager) RegisterTasks() error {
	if t := NewRunCleanupTask(m.app); t != nil {
		m.scheduler.AddTask(t)
	} else {
		m.logger.Info("run cleanup task is disabled (retention days not configured)")
	}

	m.scheduler.AddTask(NewHeartbeatSweepTask(m.app))
	return nil
}

// Start starts all registered tasks.
func (m *Manager) Start() {
	m.scheduler.Start()
}
