package dao

import (
	"context"
	"encoding/json"
	"time"

	"github.com/baluardo/backup-control-service/internal/domain"
	"github.com/baluardo/backup-control-service/internal/model"
	"github.com/baluardo/backup-control-service/pkg/timex"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type runRepository struct {
	dao *Dao
}

// NewRunRepository creates the gorm-backed RunRepository.
func NewRunRepository(dao *Dao) domain.RunRepository {
	return &runRepository{dao: dao}
}

func (r *runRepository) toDomain(m *model.Run) (*domain.Run, error) {
	if m == nil {
		return nil, nil
	}
	d := &domain.Run{
		ID:             m.ID,
		RunID:          m.RunID,
		JobID:          m.JobID,
		ClientHostname: m.ClientHostname,
		Start:          m.StartTime.Time(),
		End:            m.EndTime.Time(),
		Status:         m.Status,
		Stats: domain.Stats{
			TotalFiles:     m.TotalFiles,
			CopiedFiles:    m.CopiedFiles,
			UpdatedFiles:   m.UpdatedFiles,
			SkippedFiles:   m.SkippedFiles,
			FailedFiles:    m.FailedFiles,
			BytesProcessed: m.BytesProcessed,
		},
	}
	decode := func(column string, target interface{}) error {
		if column == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(column), target); err != nil {
			return errors.Wrapf(err, "run %s: decode", m.RunID)
		}
		return nil
	}
	if err := decode(m.Mappings, &d.Mappings); err != nil {
		return nil, err
	}
	if err := decode(m.Warnings, &d.Warnings); err != nil {
		return nil, err
	}
	if err := decode(m.Errors, &d.Errors); err != nil {
		return nil, err
	}
	if err := decode(m.Retention, &d.Retention); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *runRepository) toModel(d *domain.Run) (*model.Run, error) {
	if d == nil {
		return nil, nil
	}
	mappings, err := json.Marshal(d.Mappings)
	if err != nil {
		return nil, errors.Wrap(err, "encode mapping results")
	}
	warnings, err := json.Marshal(d.Warnings)
	if err != nil {
		return nil, errors.Wrap(err, "encode warnings")
	}
	errs, err := json.Marshal(d.Errors)
	if err != nil {
		return nil, errors.Wrap(err, "encode errors")
	}
	retention, err := json.Marshal(d.Retention)
	if err != nil {
		return nil, errors.Wrap(err, "encode retention status")
	}
	return &model.Run{
		ID:             d.ID,
		RunID:          d.RunID,
		JobID:          d.JobID,
		ClientHostname: d.ClientHostname,
		StartTime:      timex.Time(d.Start),
		EndTime:        timex.Time(d.End),
		Status:         d.Status,
		Mappings:       string(mappings),
		TotalFiles:     d.Stats.TotalFiles,
		CopiedFiles:    d.Stats.CopiedFiles,
		UpdatedFiles:   d.Stats.UpdatedFiles,
		SkippedFiles:   d.Stats.SkippedFiles,
		FailedFiles:    d.Stats.FailedFiles,
		BytesProcessed: d.Stats.BytesProcessed,
		Warnings:       string(warnings),
		Errors:         string(errs),
		Retention:      string(retention),
	}, nil
}

func (r *runRepository) GetByRunID(ctx context.Context, runID string) (*domain.Run, error) {
	var m model.Run
	err := r.dao.Db.WithContext(ctx).Where("run_id = ?", runID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&m)
}

func (r *runRepository) ListByJob(ctx context.Context, jobID int64, page, pageSize int) ([]*domain.Run, int64, error) {
	q := r.dao.Db.WithContext(ctx).Model(&model.Run{})
	if jobID > 0 {
		q = q.Where("job_id = ?", jobID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	var ms []*model.Run
	offset := (page - 1) * pageSize
	if err := q.Order("id desc").Offset(offset).Limit(pageSize).Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	var list []*domain.Run
	for _, m := range ms {
		d, err := r.toDomain(m)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, d)
	}
	return list, count, nil
}

// Save upserts the run keyed by its run id. It is called after every
// mapping so observers see partial progress mid-run.
func (r *runRepository) Save(ctx context.Context, run *domain.Run) (*domain.Run, error) {
	m, err := r.toModel(run)
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		var old model.Run
		err := r.dao.Db.WithContext(ctx).Where("run_id = ?", m.RunID).First(&old).Error
		if err == nil {
			m.ID = old.ID
			m.CreatedAt = old.CreatedAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if m.ID == 0 {
		m.CreatedAt = timex.Now()
		m.UpdatedAt = timex.Now()
		if err := r.dao.Db.WithContext(ctx).Create(m).Error; err != nil {
			return nil, err
		}
	} else {
		m.UpdatedAt = timex.Now()
		if err := r.dao.Db.WithContext(ctx).Save(m).Error; err != nil {
			return nil, err
		}
	}
	run.ID = m.ID
	return run, nil
}

func (r *runRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.dao.Db.WithContext(ctx).
		Where("status <> ? AND start_time < ?", domain.RunStatusRunning, timex.Time(cutoff)).
		Delete(&model.Run{})
	return res.RowsAffected, res.Error
}

var _ domain.RunRepository = (*runRepository)(nil)
