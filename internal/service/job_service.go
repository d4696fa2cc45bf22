package service

import (
	"context"
	"fmt"

	"github.com/baluardo/backup-control-service/internal/domain"
	"github.com/baluardo/backup-control-service/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrInvalidJob marks job definitions rejected before persistence.
var ErrInvalidJob = errors.New("invalid job definition")

// JobService is the job definition surface behind the HTTP API. Every
// change notifies the scheduler so the timeline is rebuilt from the
// store.
type JobService interface {
	Get(ctx context.Context, id int64) (*domain.Job, error)
	List(ctx context.Context, page, pageSize int) ([]*domain.Job, int64, error)
	Save(ctx context.Context, job *domain.Job) (*domain.Job, error)
	Delete(ctx context.Context, id int64) error
}

type jobService struct {
	jobs     domain.JobRepository
	logger   *zap.Logger
	onChange func()
}

// NewJobService creates the job surface. onChange runs after every
// successful mutation; a nil callback is allowed.
func NewJobService(jobs domain.JobRepository, lg *zap.Logger, onChange func()) JobService {
	if onChange == nil {
		onChange = func() {}
	}
	return &jobService{jobs: jobs, logger: lg, onChange: onChange}
}

func (s *jobService) Get(ctx context.Context, id int64) (*domain.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, domain.NewError(domain.KindJobNotFound, fmt.Sprintf("job %d does not exist", id))
	}
	return job, nil
}

func (s *jobService) List(ctx context.Context, page, pageSize int) ([]*domain.Job, int64, error) {
	return s.jobs.List(ctx, page, pageSize)
}

func (s *jobService) Save(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	if err := validateJob(job); err != nil {
		return nil, err
	}
	saved, err := s.jobs.Save(ctx, job)
	if err != nil {
		return nil, err
	}
	s.logger.Info("job saved",
		zap.Int64(logger.FieldJobID, saved.ID),
		zap.String("name", saved.Name))
	s.onChange()
	return saved, nil
}

func (s *jobService) Delete(ctx context.Context, id int64) error {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job == nil {
		return domain.NewError(domain.KindJobNotFound, fmt.Sprintf("job %d does not exist", id))
	}
	if err := s.jobs.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("job deleted", zap.Int64(logger.FieldJobID, id))
	s.onChange()
	return nil
}

// validateJob rejects job definitions that can never execute cleanly.
// Schedules that currently yield no next run are allowed; they simply
// never fire until edited.
func validateJob(job *domain.Job) error {
	if job.Name == "" {
		return errors.Wrap(ErrInvalidJob, "job name is required")
	}
	if job.ClientHostname == "" {
		return errors.Wrap(ErrInvalidJob, "client hostname is required")
	}
	if len(job.Mappings) == 0 {
		return errors.Wrap(ErrInvalidJob, "job needs at least one mapping")
	}
	switch job.Schedule.Type {
	case domain.ScheduleTypeOnce, domain.ScheduleTypeDaily, domain.ScheduleTypeWeekly,
		domain.ScheduleTypeMonthly, domain.ScheduleTypeCron:
	default:
		return errors.Wrapf(ErrInvalidJob, "unknown schedule type %q", job.Schedule.Type)
	}
	for i := range job.Mappings {
		m := &job.Mappings[i]
		switch m.Mode {
		case "", domain.ModeCopy, domain.ModeSync:
		default:
			return errors.Wrapf(ErrInvalidJob, "mapping %d has unknown mode %q", i, m.Mode)
		}
		if err := validateMapping(m); err != nil {
			return errors.Wrap(ErrInvalidJob, err.Error())
		}
	}
	return nil
}

var _ JobService = (*jobService)(nil)
