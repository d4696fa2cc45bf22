package service

import (
	"context"
	"time"

	"github.com/baluardo/backup-control-service/internal/domain"

	"go.uber.org/zap"
)

// HeartbeatService is the liveness view over agent heartbeats. Both the
// scheduler and the executor consult it to decide reachability.
type HeartbeatService interface {
	Get(ctx context.Context, hostname string) (*domain.Heartbeat, error)
	List(ctx context.Context) ([]*domain.Heartbeat, error)
	// Ping records an inbound agent heartbeat.
	Ping(ctx context.Context, hb *domain.Heartbeat) error
	// Online applies the TTL rule to a heartbeat.
	Online(hb *domain.Heartbeat) bool
	// SetBackupStatus stamps backup progress onto the host's heartbeat.
	SetBackupStatus(ctx context.Context, hostname, status string, jobID int64) error
	TTL() time.Duration
}

type heartbeatService struct {
	repo   domain.HeartbeatRepository
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time
}

// NewHeartbeatService creates the heartbeat view. A non-positive ttl
// falls back to the default of two minutes.
func NewHeartbeatService(repo domain.HeartbeatRepository, logger *zap.Logger, ttl time.Duration) HeartbeatService {
	if ttl <= 0 {
		ttl = domain.DefaultHeartbeatTTL
	}
	return &heartbeatService{
		repo:   repo,
		logger: logger,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *heartbeatService) Get(ctx context.Context, hostname string) (*domain.Heartbeat, error) {
	return s.repo.GetByHostname(ctx, hostname)
}

func (s *heartbeatService) List(ctx context.Context) ([]*domain.Heartbeat, error) {
	return s.repo.List(ctx)
}

func (s *heartbeatService) Ping(ctx context.Context, hb *domain.Heartbeat) error {
	if hb.Status == "" {
		hb.Status = domain.HeartbeatStatusOnline
	}
	if hb.Timestamp.IsZero() {
		hb.Timestamp = s.now()
	}
	// Preserve the backup progress fields the executor may have stamped;
	// the agent only owns liveness.
	if hb.BackupStatus == "" {
		if old, err := s.repo.GetByHostname(ctx, hb.Hostname); err == nil && old != nil {
			hb.BackupStatus = old.BackupStatus
			hb.BackupJobID = old.BackupJobID
			hb.BackupStatusUpdated = old.BackupStatusUpdated
		}
	}
	return s.repo.Save(ctx, hb)
}

func (s *heartbeatService) Online(hb *domain.Heartbeat) bool {
	return hb.OnlineAt(s.now(), s.ttl)
}

func (s *heartbeatService) SetBackupStatus(ctx context.Context, hostname, status string, jobID int64) error {
	hb, err := s.repo.GetByHostname(ctx, hostname)
	if err != nil {
		return err
	}
	if hb == nil {
		// No heartbeat yet for the host; nothing to stamp.
		s.logger.Debug("no heartbeat to stamp", zap.String("host", hostname))
		return nil
	}
	hb.BackupStatus = status
	hb.BackupJobID = jobID
	hb.BackupStatusUpdated = s.now()
	return s.repo.Save(ctx, hb)
}

func (s *heartbeatService) TTL() time.Duration {
	return s.ttl
}

var _ HeartbeatService = (*heartbeatService)(nil)
