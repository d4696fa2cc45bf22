package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/baluardo/backup-control-service/internal/agent"
	"github.com/baluardo/backup-control-service/internal/dao"
	"github.com/baluardo/backup-control-service/internal/domain"
	"github.com/baluardo/backup-control-service/internal/service"
	"github.com/baluardo/backup-control-service/pkg/safe_close"
	"github.com/baluardo/backup-control-service/pkg/workerpool"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App is the application container. It wires repositories, the agent
// client factory and the engine services, and owns their shutdown order.
type App struct {
	config *AppConfig
	logger *zap.Logger
	DB     *gorm.DB
	Dao    *dao.Dao

	workerPool *workerpool.Pool

	// Repository layer
	JobRepo       domain.JobRepository
	RunRepo       domain.RunRepository
	HeartbeatRepo domain.HeartbeatRepository
	AlertRepo     domain.AlertRepository

	// Service layer
	JobService       service.JobService
	HeartbeatService service.HeartbeatService
	NotifyService    service.NotifyService
	ExecutorService  service.ExecutorService
	Scheduler        service.SchedulerService

	// AgentFactory builds one API client per agent address.
	AgentFactory agent.Factory

	shutdownOnce sync.Once
}

// NewApp creates the container and performs all dependency injection.
// The scheduler is created but not started; call Scheduler.Start after
// the container is assembled.
func NewApp(cfg *AppConfig, logger *zap.Logger, db *gorm.DB, sc *safe_close.SafeClose) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if sc == nil {
		return nil, fmt.Errorf("close coordinator is required")
	}

	a := &App{
		config: cfg,
		logger: logger,
		DB:     db,
	}

	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	a.Dao = dao.New(db, dao.WithLogger(logger))

	a.JobRepo = dao.NewJobRepository(a.Dao)
	a.RunRepo = dao.NewRunRepository(a.Dao)
	a.HeartbeatRepo = dao.NewHeartbeatRepository(a.Dao)
	a.AlertRepo = dao.NewAlertRepository(a.Dao)

	a.AgentFactory = agent.NewFactory(
		agent.WithLogger(logger),
		agent.WithTimeouts(cfg.GetAgentCallTimeout(), cfg.GetAgentBackupTimeout()),
	)

	a.HeartbeatService = service.NewHeartbeatService(a.HeartbeatRepo, logger, cfg.GetHeartbeatTTL())
	a.NotifyService = service.NewNotifyService(a.AlertRepo, logger)
	a.ExecutorService = service.NewExecutorService(a.RunRepo, a.HeartbeatService, a.NotifyService, a.AgentFactory, logger)
	a.Scheduler = service.NewSchedulerService(a.JobRepo, a.ExecutorService, a.workerPool, logger, sc)
	a.JobService = service.NewJobService(a.JobRepo, logger, func() {
		a.Scheduler.Reload()
	})

	logger.Info("app container initialized",
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers),
		zap.Duration("heartbeatTTL", cfg.GetHeartbeatTTL()))

	return a, nil
}

// Config returns the application configuration.
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger returns the zap logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// WorkerPool returns the worker pool used for scheduled fires.
func (a *App) WorkerPool() *workerpool.Pool {
	return a.workerPool
}

// SubmitTask submits a task to the worker pool.
func (a *App) SubmitTask(ctx context.Context, task func(context.Context) error) error {
	return a.workerPool.Submit(ctx, task)
}

// Shutdown closes the container in order: worker pool first so no new
// runs start, then the database.
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	a.shutdownOnce.Do(func() {
		a.logger.Info("app container shutting down")

		done := make(chan struct{})
		go func() {
			a.workerPool.Shutdown()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			a.logger.Warn("worker pool shutdown timed out", zap.Error(ctx.Err()))
		}

		if a.DB != nil {
			sqlDB, dbErr := a.DB.DB()
			if dbErr != nil {
				err = fmt.Errorf("failed to get sql.DB: %w", dbErr)
				return
			}
			if closeErr := sqlDB.Close(); closeErr != nil {
				err = fmt.Errorf("failed to close database: %w", closeErr)
				return
			}
			a.logger.Info("database connection closed")
		}
	})
	return err
}

// DefaultShutdownTimeout bounds container shutdown.
const DefaultShutdownTimeout = 30 * time.Second
