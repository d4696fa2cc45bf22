package dao

import (
	"context"
	"encoding/json"

	"github.com/baluardo/backup-control-service/internal/domain"
	"github.com/baluardo/backup-control-service/internal/model"
	"github.com/baluardo/backup-control-service/pkg/timex"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type jobRepository struct {
	dao *Dao
}

// NewJobRepository creates the gorm-backed JobRepository.
func NewJobRepository(dao *Dao) domain.JobRepository {
	return &jobRepository{dao: dao}
}

func (r *jobRepository) toDomain(m *model.Job) (*domain.Job, error) {
	if m == nil {
		return nil, nil
	}
	d := &domain.Job{
		ID:             m.ID,
		Name:           m.Name,
		ClientHostname: m.ClientHostname,
		Enabled:        m.IsEnabled == 1,
		ModeDefault:    m.ModeDefault,
		CreatedAt:      m.CreatedAt.Time(),
		UpdatedAt:      m.UpdatedAt.Time(),
	}
	if m.Schedule != "" {
		if err := json.Unmarshal([]byte(m.Schedule), &d.Schedule); err != nil {
			return nil, errors.Wrapf(err, "job %d: decode schedule", m.ID)
		}
	}
	if m.Mappings != "" {
		if err := json.Unmarshal([]byte(m.Mappings), &d.Mappings); err != nil {
			return nil, errors.Wrapf(err, "job %d: decode mappings", m.ID)
		}
	}
	return d, nil
}

func (r *jobRepository) toModel(d *domain.Job) (*model.Job, error) {
	if d == nil {
		return nil, nil
	}
	isEnabled := int64(0)
	if d.Enabled {
		isEnabled = 1
	}
	schedule, err := json.Marshal(d.Schedule)
	if err != nil {
		return nil, errors.Wrap(err, "encode schedule")
	}
	mappings, err := json.Marshal(d.Mappings)
	if err != nil {
		return nil, errors.Wrap(err, "encode mappings")
	}
	return &model.Job{
		ID:             d.ID,
		Name:           d.Name,
		ClientHostname: d.ClientHostname,
		IsEnabled:      isEnabled,
		ModeDefault:    d.ModeDefault,
		Schedule:       string(schedule),
		Mappings:       string(mappings),
		CreatedAt:      timex.Time(d.CreatedAt),
		UpdatedAt:      timex.Time(d.UpdatedAt),
	}, nil
}

func (r *jobRepository) GetByID(ctx context.Context, id int64) (*domain.Job, error) {
	var m model.Job
	err := r.dao.Db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&m)
}

func (r *jobRepository) List(ctx context.Context, page, pageSize int) ([]*domain.Job, int64, error) {
	var count int64
	if err := r.dao.Db.WithContext(ctx).Model(&model.Job{}).Count(&count).Error; err != nil {
		return nil, 0, err
	}
	var ms []*model.Job
	offset := (page - 1) * pageSize
	err := r.dao.Db.WithContext(ctx).Order("id desc").Offset(offset).Limit(pageSize).Find(&ms).Error
	if err != nil {
		return nil, 0, err
	}
	var list []*domain.Job
	for _, m := range ms {
		d, err := r.toDomain(m)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, d)
	}
	return list, count, nil
}

func (r *jobRepository) ListEnabled(ctx context.Context) ([]*domain.Job, error) {
	var ms []*model.Job
	err := r.dao.Db.WithContext(ctx).Where("is_enabled = ?", 1).Order("id").Find(&ms).Error
	if err != nil {
		return nil, err
	}
	var list []*domain.Job
	for _, m := range ms {
		d, err := r.toDomain(m)
		if err != nil {
			// A job with an undecodable schedule must not take the whole
			// reload down; it is simply not scheduled.
			r.dao.logger.Warn("skipping job with invalid definition", zap.Error(err))
			continue
		}
		list = append(list, d)
	}
	return list, nil
}

func (r *jobRepository) Save(ctx context.Context, job *domain.Job) (*domain.Job, error) {
	m, err := r.toModel(job)
	if err != nil {
		return nil, err
	}
	if job.ID > 0 {
		var old model.Job
		if err := r.dao.Db.WithContext(ctx).Where("id = ?", job.ID).First(&old).Error; err != nil {
			return nil, err
		}
		m.CreatedAt = old.CreatedAt
		m.UpdatedAt = timex.Now()
		if err := r.dao.Db.WithContext(ctx).Save(m).Error; err != nil {
			return nil, err
		}
	} else {
		m.CreatedAt = timex.Now()
		m.UpdatedAt = timex.Now()
		if err := r.dao.Db.WithContext(ctx).Create(m).Error; err != nil {
			return nil, err
		}
	}
	return r.toDomain(m)
}

func (r *jobRepository) Delete(ctx context.Context, id int64) error {
	return r.dao.Db.WithContext(ctx).Where("id = ?", id).Delete(&model.Job{}).Error
}

var _ domain.JobRepository = (*jobRepository)(nil)
