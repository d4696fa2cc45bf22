package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/baluardo/backup-control-service/internal/domain"
	"github.com/baluardo/backup-control-service/pkg/logger"

	"go.uber.org/zap"
)

// NotifyService turns terminal runs into alerts. Identical consecutive
// failures keep one active alert instead of re-notifying every run; a
// successful run resolves the job's alerts.
type NotifyService interface {
	// RunFinished records the run outcome. isNew is true when the outcome
	// opened a new alert, i.e. an operator should actually be told.
	RunFinished(ctx context.Context, job *domain.Job, run *domain.Run) (isNew bool, err error)
	// ActiveAlertKey builds the alert key for a job outcome.
	ActiveAlertKey(jobID int64, status string) string
}

type notifyService struct {
	alerts domain.AlertRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewNotifyService(alerts domain.AlertRepository, lg *zap.Logger) NotifyService {
	return &notifyService{
		alerts: alerts,
		logger: lg,
		now:    time.Now,
	}
}

func (s *notifyService) ActiveAlertKey(jobID int64, status string) string {
	return fmt.Sprintf("job:%d:%s", jobID, status)
}

func (s *notifyService) RunFinished(ctx context.Context, job *domain.Job, run *domain.Run) (bool, error) {
	if run.Status == domain.RunStatusSuccess {
		for _, status := range []string{domain.RunStatusFailed, domain.RunStatusPartial} {
			if err := s.alerts.Resolve(ctx, s.ActiveAlertKey(job.ID, status)); err != nil {
				return false, err
			}
		}
		return false, nil
	}

	key := s.ActiveAlertKey(job.ID, run.Status)
	now := s.now()
	existing, err := s.alerts.GetByKey(ctx, key)
	if err != nil {
		return false, err
	}
	message := alertMessage(job, run)

	if existing != nil && existing.Active {
		existing.LastSeen = now
		existing.Message = message
		return false, s.alerts.Save(ctx, existing)
	}

	alert := &domain.Alert{
		Key:       key,
		JobID:     job.ID,
		Status:    run.Status,
		Message:   message,
		Active:    true,
		FirstSeen: now,
		LastSeen:  now,
	}
	if existing != nil {
		alert.ID = existing.ID
	}
	if err := s.alerts.Save(ctx, alert); err != nil {
		return false, err
	}
	s.logger.Warn("job run alert",
		zap.Int64(logger.FieldJobID, job.ID),
		zap.String(logger.FieldRunID, run.RunID),
		zap.String(logger.FieldStatus, run.Status),
		zap.String("message", message))
	return true, nil
}

func alertMessage(job *domain.Job, run *domain.Run) string {
	if len(run.Errors) > 0 {
		return fmt.Sprintf("job %q %s: %s", job.Name, run.Status, strings.Join(run.Errors, "; "))
	}
	if len(run.Warnings) > 0 {
		return fmt.Sprintf("job %q %s: %s", job.Name, run.Status, strings.Join(run.Warnings, "; "))
	}
	return fmt.Sprintf("job %q finished %s", job.Name, run.Status)
}

var _ NotifyService = (*notifyService)(nil)
