package dao

import (
	"context"
	"time"

	"github.com/baluardo/backup-control-service/internal/domain"
	"github.com/baluardo/backup-control-service/internal/model"
	"github.com/baluardo/backup-control-service/pkg/timex"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type heartbeatRepository struct {
	dao *Dao
}

// NewHeartbeatRepository creates the gorm-backed HeartbeatRepository.
func NewHeartbeatRepository(dao *Dao) domain.HeartbeatRepository {
	return &heartbeatRepository{dao: dao}
}

func (r *heartbeatRepository) toDomain(m *model.Heartbeat) *domain.Heartbeat {
	if m == nil {
		return nil
	}
	return &domain.Heartbeat{
		Hostname:            m.Hostname,
		Status:              m.Status,
		Timestamp:           m.Timestamp.Time(),
		AgentIP:             m.AgentIP,
		AgentPort:           int(m.AgentPort),
		BackupStatus:        m.BackupStatus,
		BackupJobID:         m.BackupJobID,
		BackupStatusUpdated: m.BackupStatusUpdated.Time(),
	}
}

func (r *heartbeatRepository) GetByHostname(ctx context.Context, hostname string) (*domain.Heartbeat, error) {
	var m model.Heartbeat
	err := r.dao.Db.WithContext(ctx).Where("hostname = ?", hostname).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&m), nil
}

func (r *heartbeatRepository) List(ctx context.Context) ([]*domain.Heartbeat, error) {
	var ms []*model.Heartbeat
	if err := r.dao.Db.WithContext(ctx).Order("hostname").Find(&ms).Error; err != nil {
		return nil, err
	}
	var list []*domain.Heartbeat
	for _, m := range ms {
		list = append(list, r.toDomain(m))
	}
	return list, nil
}

// Save upserts the heartbeat keyed by hostname. Writes are idempotent
// snapshots, so last-writer-wins is acceptable.
func (r *heartbeatRepository) Save(ctx context.Context, hb *domain.Heartbeat) error {
	m := &model.Heartbeat{
		Hostname:            hb.Hostname,
		Status:              hb.Status,
		Timestamp:           timex.Time(hb.Timestamp),
		AgentIP:             hb.AgentIP,
		AgentPort:           int64(hb.AgentPort),
		BackupStatus:        hb.BackupStatus,
		BackupJobID:         hb.BackupJobID,
		BackupStatusUpdated: timex.Time(hb.BackupStatusUpdated),
	}
	var old model.Heartbeat
	err := r.dao.Db.WithContext(ctx).Where("hostname = ?", hb.Hostname).First(&old).Error
	if err == nil {
		m.ID = old.ID
		m.CreatedAt = old.CreatedAt
		m.UpdatedAt = timex.Now()
		return r.dao.Db.WithContext(ctx).Save(m).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	m.CreatedAt = timex.Now()
	m.UpdatedAt = timex.Now()
	return r.dao.Db.WithContext(ctx).Create(m).Error
}

func (r *heartbeatRepository) MarkOfflineOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.dao.Db.WithContext(ctx).Model(&model.Heartbeat{}).
		Where("status <> ? AND timestamp < ?", domain.HeartbeatStatusOffline, timex.Time(cutoff)).
		Updates(map[string]interface{}{
			"status":     domain.HeartbeatStatusOffline,
			"updated_at": timex.Now(),
		})
	return res.RowsAffected, res.Error
}

var _ domain.HeartbeatRepository = (*heartbeatRepository)(nil)
