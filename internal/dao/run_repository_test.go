package dao

import (
	"context"
	"testing"
	"time"

	"github.com/baluardo/backup-control-service/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestRunSaveUpsertsByRunID(t *testing.T) {
	repo := NewRunRepository(newTestDao(t))
	ctx := context.Background()

	run := &domain.Run{
		RunID:          "7f3a2b1c",
		JobID:          7,
		ClientHostname: "nas-01",
		Start:          time.Now().Add(-time.Minute),
		Status:         domain.RunStatusRunning,
	}
	saved, err := repo.Save(ctx, run)
	assert.Nil(t, err)
	assert.NotZero(t, saved.ID)
	firstID := saved.ID

	// The executor saves repeatedly while the run progresses; the same row
	// must be updated, not duplicated.
	run.Status = domain.RunStatusPartial
	run.Stats = domain.Stats{TotalFiles: 10, CopiedFiles: 9, FailedFiles: 1, BytesProcessed: 4096}
	run.Mappings = []domain.MappingResult{{
		Index:           0,
		SourcePath:      `\\fileserver\projects`,
		DestinationPath: `E:\backups\projects`,
		Mode:            domain.ModeCopy,
		Status:          domain.RunStatusPartial,
	}}
	run.Warnings = []string{"1 file failed"}
	run.Retention = domain.RetentionStatus{Applied: true, Deleted: []string{`E:\backups\projects\backup_20240601_020000`}}

	saved, err = repo.Save(ctx, run)
	assert.Nil(t, err)
	assert.Equal(t, firstID, saved.ID)

	_, count, err := repo.ListByJob(ctx, 7, 1, 10)
	assert.Nil(t, err)
	assert.Equal(t, int64(1), count)

	got, err := repo.GetByRunID(ctx, "7f3a2b1c")
	assert.Nil(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, domain.RunStatusPartial, got.Status)
	assert.Equal(t, int64(9), got.Stats.CopiedFiles)
	assert.Len(t, got.Mappings, 1)
	assert.Equal(t, []string{"1 file failed"}, got.Warnings)
	assert.True(t, got.Retention.Applied)
	assert.Len(t, got.Retention.Deleted, 1)
}

func TestRunGetMissingReturnsNil(t *testing.T) {
	repo := NewRunRepository(newTestDao(t))
	got, err := repo.GetByRunID(context.Background(), "nope")
	assert.Nil(t, err)
	assert.Nil(t, got)
}

func TestRunListByJobFilters(t *testing.T) {
	repo := NewRunRepository(newTestDao(t))
	ctx := context.Background()

	for i, jobID := range []int64{1, 1, 2} {
		_, err := repo.Save(ctx, &domain.Run{
			RunID:  string(rune('a' + i)),
			JobID:  jobID,
			Start:  time.Now(),
			Status: domain.RunStatusSuccess,
		})
		assert.Nil(t, err)
	}

	_, count, err := repo.ListByJob(ctx, 1, 1, 10)
	assert.Nil(t, err)
	assert.Equal(t, int64(2), count)

	// jobID 0 lists across all jobs.
	_, count, err = repo.ListByJob(ctx, 0, 1, 10)
	assert.Nil(t, err)
	assert.Equal(t, int64(3), count)
}

func TestRunDeleteOlderThan(t *testing.T) {
	repo := NewRunRepository(newTestDao(t))
	ctx := context.Background()
	now := time.Now()

	seed := []*domain.Run{
		{RunID: "old-done", JobID: 1, Start: now.Add(-100 * 24 * time.Hour), Status: domain.RunStatusSuccess},
		{RunID: "old-running", JobID: 1, Start: now.Add(-100 * 24 * time.Hour), Status: domain.RunStatusRunning},
		{RunID: "recent", JobID: 1, Start: now.Add(-time.Hour), Status: domain.RunStatusFailed},
	}
	for _, r := range seed {
		_, err := repo.Save(ctx, r)
		assert.Nil(t, err)
	}

	deleted, err := repo.DeleteOlderThan(ctx, now.Add(-90*24*time.Hour))
	assert.Nil(t, err)
	assert.Equal(t, int64(1), deleted)

	// A stuck running row is never reaped by age.
	got, err := repo.GetByRunID(ctx, "old-running")
	assert.Nil(t, err)
	assert.NotNil(t, got)

	got, err = repo.GetByRunID(ctx, "old-done")
	assert.Nil(t, err)
	assert.Nil(t, got)
}
