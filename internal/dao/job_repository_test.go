package dao

import (
	"context"
	"testing"

	"github.com/baluardo/backup-control-service/internal/domain"

	"github.com/stretchr/testify/assert"
)

func newTestDao(t *testing.T) *Dao {
	t.Helper()
	db, err := NewDBEngine(DatabaseConfig{
		Type:         "sqlite",
		Path:         ":memory:",
		AutoMigrate:  true,
		MaxIdleConns: 1,
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(db)
}

func TestJobSaveRoundtrip(t *testing.T) {
	repo := NewJobRepository(newTestDao(t))
	ctx := context.Background()

	job := &domain.Job{
		Name:           "projects nightly",
		ClientHostname: "nas-01",
		Enabled:        true,
		ModeDefault:    domain.ModeCopy,
		Schedule: domain.Schedule{
			Type:  domain.ScheduleTypeDaily,
			Days:  []int{1, 2, 3, 4, 5},
			Times: []string{"02:00"},
		},
		Mappings: []domain.Mapping{{
			SourcePath:      `\\fileserver\projects`,
			DestinationPath: `E:\backups\projects`,
			Mode:            domain.ModeCopy,
			Retention:       &domain.Retention{MaxBackups: 7},
			Credentials:     &domain.Credentials{Username: "svc", Password: "secret", Domain: "CORP"},
		}},
	}

	saved, err := repo.Save(ctx, job)
	assert.Nil(t, err)
	assert.NotZero(t, saved.ID)

	got, err := repo.GetByID(ctx, saved.ID)
	assert.Nil(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, job.Name, got.Name)
	assert.Equal(t, job.Schedule.Times, got.Schedule.Times)
	assert.Equal(t, job.Mappings[0].Credentials.Password, got.Mappings[0].Credentials.Password)
	assert.Equal(t, 7, got.Mappings[0].Retention.MaxBackups)
	assert.True(t, got.Enabled)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestJobUpdateKeepsCreatedAt(t *testing.T) {
	repo := NewJobRepository(newTestDao(t))
	ctx := context.Background()

	saved, err := repo.Save(ctx, &domain.Job{
		Name:           "projects nightly",
		ClientHostname: "nas-01",
		Enabled:        true,
		Schedule:       domain.Schedule{Type: domain.ScheduleTypeDaily, Times: []string{"02:00"}},
		Mappings:       []domain.Mapping{{SourcePath: "/a", DestinationPath: "/b"}},
	})
	assert.Nil(t, err)

	saved.Name = "projects nightly v2"
	saved.Enabled = false
	updated, err := repo.Save(ctx, saved)
	assert.Nil(t, err)
	assert.Equal(t, saved.ID, updated.ID)
	assert.Equal(t, "projects nightly v2", updated.Name)
	assert.False(t, updated.Enabled)

	enabled, err := repo.ListEnabled(ctx)
	assert.Nil(t, err)
	assert.Len(t, enabled, 0)
}

func TestJobGetMissingReturnsNil(t *testing.T) {
	repo := NewJobRepository(newTestDao(t))
	got, err := repo.GetByID(context.Background(), 999)
	assert.Nil(t, err)
	assert.Nil(t, got)
}

func TestJobListPagination(t *testing.T) {
	repo := NewJobRepository(newTestDao(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Save(ctx, &domain.Job{
			Name:           "job",
			ClientHostname: "nas-01",
			Enabled:        true,
			Schedule:       domain.Schedule{Type: domain.ScheduleTypeDaily},
			Mappings:       []domain.Mapping{{SourcePath: "/a", DestinationPath: "/b"}},
		})
		assert.Nil(t, err)
	}

	list, count, err := repo.List(ctx, 1, 2)
	assert.Nil(t, err)
	assert.Equal(t, int64(3), count)
	assert.Len(t, list, 2)

	list, _, err = repo.List(ctx, 2, 2)
	assert.Nil(t, err)
	assert.Len(t, list, 1)
}

func TestJobDelete(t *testing.T) {
	repo := NewJobRepository(newTestDao(t))
	ctx := context.Background()

	saved, err := repo.Save(ctx, &domain.Job{
		Name:           "doomed",
		ClientHostname: "nas-01",
		Enabled:        true,
		Schedule:       domain.Schedule{Type: domain.ScheduleTypeOnce},
		Mappings:       []domain.Mapping{{SourcePath: "/a", DestinationPath: "/b"}},
	})
	assert.Nil(t, err)

	assert.Nil(t, repo.Delete(ctx, saved.ID))

	got, err := repo.GetByID(ctx, saved.ID)
	assert.Nil(t, err)
	assert.Nil(t, got)
}
