package dao

import (
	"context"

	"github.com/baluardo/backup-control-service/internal/domain"
	"github.com/baluardo/backup-control-service/internal/model"
	"github.com/baluardo/backup-control-service/pkg/timex"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type alertRepository struct {
	dao *Dao
}

// NewAlertRepository creates the gorm-backed AlertRepository.
func NewAlertRepository(dao *Dao) domain.AlertRepository {
	return &alertRepository{dao: dao}
}

func (r *alertRepository) toDomain(m *model.Alert) *domain.Alert {
	if m == nil {
		return nil
	}
	return &domain.Alert{
		ID:        m.ID,
		Key:       m.AlertKey,
		JobID:     m.JobID,
		Status:    m.Status,
		Message:   m.Message,
		Active:    m.IsActive == 1,
		FirstSeen: m.FirstSeen.Time(),
		LastSeen:  m.LastSeen.Time(),
	}
}

func (r *alertRepository) GetByKey(ctx context.Context, key string) (*domain.Alert, error) {
	var m model.Alert
	err := r.dao.Db.WithContext(ctx).Where("alert_key = ?", key).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&m), nil
}

func (r *alertRepository) Save(ctx context.Context, alert *domain.Alert) error {
	isActive := int64(0)
	if alert.Active {
		isActive = 1
	}
	m := &model.Alert{
		ID:        alert.ID,
		AlertKey:  alert.Key,
		JobID:     alert.JobID,
		Status:    alert.Status,
		Message:   alert.Message,
		IsActive:  isActive,
		FirstSeen: timex.Time(alert.FirstSeen),
		LastSeen:  timex.Time(alert.LastSeen),
	}
	var old model.Alert
	err := r.dao.Db.WithContext(ctx).Where("alert_key = ?", alert.Key).First(&old).Error
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

func (r *alertRepository) Resolve(ctx context.Context, key string) error {
	return r.dao.Db.WithContext(ctx).Model(&model.Alert{}).
		Where("alert_key = ?", key).
		Updates(map[string]interface{}{
			"is_active":  0,
			"updated_at": timex.Now(),
		}).Error
}

var _ domain.AlertRepository = (*alertRepository)(nil)
