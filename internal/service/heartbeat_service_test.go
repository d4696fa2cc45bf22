package service

import (
	"context"
	"testing"
	"time"

	"github.com/baluardo/backup-control-service/internal/domain"

	"go.uber.org/zap"
)

type hbMockRepo struct {
	domain.HeartbeatRepository
	byHost map[string]*domain.Heartbeat
}

func newHBMockRepo() *hbMockRepo {
	return &hbMockRepo{byHost: map[string]*domain.Heartbeat{}}
}

func (r *hbMockRepo) GetByHostname(_ context.Context, hostname string) (*domain.Heartbeat, error) {
	if hb, ok := r.byHost[hostname]; ok {
		clone := *hb
		return &clone, nil
	}
	return nil, nil
}

func (r *hbMockRepo) Save(_ context.Context, hb *domain.Heartbeat) error {
	clone := *hb
	r.byHost[hb.Hostname] = &clone
	return nil
}

func TestHeartbeatOnlineTTL(t *testing.T) {
	now := mustTime(t, "2024-06-12 10:00")
	svc := NewHeartbeatService(newHBMockRepo(), zap.NewNop(), 2*time.Minute).(*heartbeatService)
	svc.now = func() time.Time { return now }

	cases := []struct {
		name   string
		hb     *domain.Heartbeat
		online bool
	}{
		{"fresh", &domain.Heartbeat{Status: domain.HeartbeatStatusOnline, Timestamp: now.Add(-time.Minute)}, true},
		{"exactly at ttl", &domain.Heartbeat{Status: domain.HeartbeatStatusOnline, Timestamp: now.Add(-2 * time.Minute)}, true},
		{"stale", &domain.Heartbeat{Status: domain.HeartbeatStatusOnline, Timestamp: now.Add(-2*time.Minute - time.Second)}, false},
		{"reported offline", &domain.Heartbeat{Status: domain.HeartbeatStatusOffline, Timestamp: now}, false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := svc.Online(tc.hb); got != tc.online {
				t.Fatalf("Online = %v, want %v", got, tc.online)
			}
		})
	}
}

func TestHeartbeatPingDefaultsAndPreservesBackupFields(t *testing.T) {
	repo := newHBMockRepo()
	repo.byHost["nas-01"] = &domain.Heartbeat{
		Hostname:     "nas-01",
		BackupStatus: domain.BackupStatusInProgress,
		BackupJobID:  7,
	}
	now := mustTime(t, "2024-06-12 10:00")
	svc := NewHeartbeatService(repo, zap.NewNop(), 0).(*heartbeatService)
	svc.now = func() time.Time { return now }

	hb := &domain.Heartbeat{Hostname: "nas-01", AgentIP: "10.0.0.5", AgentPort: 8745}
	if err := svc.Ping(context.Background(), hb); err != nil {
		t.Fatal(err)
	}

	saved := repo.byHost["nas-01"]
	if saved.Status != domain.HeartbeatStatusOnline {
		t.Fatalf("status = %q, want online default", saved.Status)
	}
	if !saved.Timestamp.Equal(now) {
		t.Fatalf("timestamp = %v, want %v", saved.Timestamp, now)
	}
	// A ping only owns liveness; backup progress stays with the engine.
	if saved.BackupStatus != domain.BackupStatusInProgress || saved.BackupJobID != 7 {
		t.Fatalf("backup fields lost on ping: %+v", saved)
	}
}

func TestSetBackupStatusWithoutHeartbeat(t *testing.T) {
	repo := newHBMockRepo()
	svc := NewHeartbeatService(repo, zap.NewNop(), 0)

	if err := svc.SetBackupStatus(context.Background(), "unknown-host", domain.BackupStatusInProgress, 1); err != nil {
		t.Fatalf("missing heartbeat must be a no-op, got %v", err)
	}
	if len(repo.byHost) != 0 {
		t.Fatal("no record should be created for an unknown host")
	}
}

func TestSetBackupStatusStampsExisting(t *testing.T) {
	repo := newHBMockRepo()
	repo.byHost["nas-01"] = &domain.Heartbeat{Hostname: "nas-01", Status: domain.HeartbeatStatusOnline}
	now := mustTime(t, "2024-06-12 10:00")
	svc := NewHeartbeatService(repo, zap.NewNop(), 0).(*heartbeatService)
	svc.now = func() time.Time { return now }

	if err := svc.SetBackupStatus(context.Background(), "nas-01", domain.BackupStatusCompleted, 7); err != nil {
		t.Fatal(err)
	}
	saved := repo.byHost["nas-01"]
	if saved.BackupStatus != domain.BackupStatusCompleted || saved.BackupJobID != 7 || !saved.BackupStatusUpdated.Equal(now) {
		t.Fatalf("stamp not applied: %+v", saved)
	}
}
