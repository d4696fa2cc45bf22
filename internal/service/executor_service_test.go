package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/baluardo/backup-control-service/internal/agent"
	"github.com/baluardo/backup-control-service/internal/domain"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type execRunRepo struct {
	domain.RunRepository
	mu    sync.Mutex
	last  *domain.Run
	saves int
}

func (r *execRunRepo) Save(_ context.Context, run *domain.Run) (*domain.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	clone := *run
	if clone.ID == 0 {
		clone.ID = 1
	}
	r.last = &clone
	return &clone, nil
}

type execHeartbeatRepo struct {
	domain.HeartbeatRepository
	mu  sync.Mutex
	hb  *domain.Heartbeat
	err error
}

func (r *execHeartbeatRepo) GetByHostname(_ context.Context, hostname string) (*domain.Heartbeat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if r.hb == nil || r.hb.Hostname != hostname {
		return nil, nil
	}
	clone := *r.hb
	return &clone, nil
}

func (r *execHeartbeatRepo) Save(_ context.Context, hb *domain.Heartbeat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *hb
	r.hb = &clone
	return nil
}

type execAlertRepo struct {
	domain.AlertRepository
	alerts map[string]*domain.Alert
}

func (r *execAlertRepo) GetByKey(_ context.Context, key string) (*domain.Alert, error) {
	return r.alerts[key], nil
}

func (r *execAlertRepo) Save(_ context.Context, alert *domain.Alert) error {
	r.alerts[alert.Key] = alert
	return nil
}

func (r *execAlertRepo) Resolve(_ context.Context, key string) error {
	if a, ok := r.alerts[key]; ok {
		a.Active = false
	}
	return nil
}

// fakeAgent mimics the remote agent. Its Backup creates the destination
// directory the way a real agent does before transferring.
type fakeAgent struct {
	mu      sync.Mutex
	backup  func(req *agent.BackupRequest) (*agent.BackupResponse, error)
	backups []*agent.BackupRequest
	deletes [][]agent.DeleteItem
}

func (a *fakeAgent) Backup(_ context.Context, req *agent.BackupRequest) (*agent.BackupResponse, error) {
	a.mu.Lock()
	a.backups = append(a.backups, req)
	a.mu.Unlock()
	return a.backup(req)
}

func (a *fakeAgent) DeletePaths(_ context.Context, items []agent.DeleteItem) ([]agent.DeleteResult, error) {
	a.mu.Lock()
	a.deletes = append(a.deletes, items)
	a.mu.Unlock()
	results := make([]agent.DeleteResult, 0, len(items))
	for _, it := range items {
		results = append(results, agent.DeleteResult{Path: it.Path, Status: "deleted"})
	}
	return results, nil
}

func (a *fakeAgent) ListJobBackups(_ context.Context, _ *agent.JobBackupsRequest) ([]agent.PhysicalBackup, error) {
	return nil, nil
}

func newTestExecutor(api agent.API, hb *domain.Heartbeat) (*executorService, *execRunRepo, *execHeartbeatRepo) {
	runs := &execRunRepo{}
	hbRepo := &execHeartbeatRepo{hb: hb}
	heartbeats := NewHeartbeatService(hbRepo, zap.NewNop(), 0)
	notify := NewNotifyService(&execAlertRepo{alerts: map[string]*domain.Alert{}}, zap.NewNop())
	svc := NewExecutorService(runs, heartbeats, notify, func(string) agent.API { return api }, zap.NewNop()).(*executorService)
	return svc, runs, hbRepo
}

func onlineHeartbeat() *domain.Heartbeat {
	return &domain.Heartbeat{
		Hostname:  "nas-01",
		Status:    domain.HeartbeatStatusOnline,
		Timestamp: time.Now(),
		AgentIP:   "10.0.0.5",
		AgentPort: 8745,
	}
}

func copyJob(dest string) *domain.Job {
	return &domain.Job{
		ID:             7,
		Name:           "projects nightly",
		ClientHostname: "nas-01",
		Enabled:        true,
		Mappings: []domain.Mapping{{
			SourcePath:      "/srv/projects",
			DestinationPath: dest,
			Mode:            domain.ModeCopy,
			Retention:       &domain.Retention{MaxBackups: 5},
		}},
	}
}

func TestExecuteSuccess(t *testing.T) {
	dest := t.TempDir()
	api := &fakeAgent{backup: func(req *agent.BackupRequest) (*agent.BackupResponse, error) {
		if err := os.MkdirAll(req.Destination, 0755); err != nil {
			t.Fatal(err)
		}
		return &agent.BackupResponse{
			Success: true,
			Stats:   map[string]interface{}{"totalFiles": float64(3), "copiedFiles": float64(3), "bytesProcessed": float64(1024)},
		}, nil
	}}
	svc, _, hbRepo := newTestExecutor(api, onlineHeartbeat())

	run, err := svc.Execute(context.Background(), copyJob(dest))
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != domain.RunStatusSuccess {
		t.Fatalf("run status = %q, want success", run.Status)
	}
	if len(run.Mappings) != 1 || run.Mappings[0].Status != domain.RunStatusSuccess {
		t.Fatalf("unexpected mapping results: %+v", run.Mappings)
	}
	if run.Stats.CopiedFiles != 3 || run.Stats.BytesProcessed != 1024 {
		t.Fatalf("unexpected stats: %+v", run.Stats)
	}

	target := run.Mappings[0].TargetPath
	meta, err := readBackupMeta(target)
	if err != nil {
		t.Fatalf("sidecar missing in %s: %v", target, err)
	}
	if meta.RunID != run.RunID || meta.Slots != 5 || meta.RetentionIndex != 0 {
		t.Fatalf("unexpected sidecar: %+v", meta)
	}

	if hbRepo.hb.BackupStatus != domain.BackupStatusCompleted || hbRepo.hb.BackupJobID != 7 {
		t.Fatalf("heartbeat not stamped: %+v", hbRepo.hb)
	}
}

func TestExecuteSingleFlight(t *testing.T) {
	api := &fakeAgent{backup: func(*agent.BackupRequest) (*agent.BackupResponse, error) {
		return &agent.BackupResponse{Success: true}, nil
	}}
	svc, _, _ := newTestExecutor(api, onlineHeartbeat())
	job := copyJob(t.TempDir())

	svc.mu.Lock()
	svc.inflight[job.ID] = "already-running"
	svc.mu.Unlock()

	_, err := svc.Execute(context.Background(), job)
	if !domain.IsKind(err, domain.KindJobRunning) {
		t.Fatalf("err = %v, want kind JOB_RUNNING", err)
	}
	if len(api.backups) != 0 {
		t.Fatal("no agent call expected while a run is in flight")
	}
}

func TestExecuteStaleHeartbeatFailsRun(t *testing.T) {
	api := &fakeAgent{backup: func(*agent.BackupRequest) (*agent.BackupResponse, error) {
		t.Fatal("agent must not be called")
		return nil, nil
	}}
	hb := onlineHeartbeat()
	hb.Timestamp = time.Now().Add(-10 * time.Minute)
	svc, _, hbRepo := newTestExecutor(api, hb)

	run, err := svc.Execute(context.Background(), copyJob(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != domain.RunStatusFailed {
		t.Fatalf("run status = %q, want failed", run.Status)
	}
	if run.Retention.Reason != "run failed" {
		t.Fatalf("retention reason = %q", run.Retention.Reason)
	}
	if hbRepo.hb.BackupStatus != domain.BackupStatusFailed {
		t.Fatalf("heartbeat backup status = %q", hbRepo.hb.BackupStatus)
	}
}

func TestExecuteFatalAccessNoTransferRollsBack(t *testing.T) {
	dest := t.TempDir()
	api := &fakeAgent{backup: func(req *agent.BackupRequest) (*agent.BackupResponse, error) {
		if err := os.MkdirAll(req.Destination, 0755); err != nil {
			t.Fatal(err)
		}
		return &agent.BackupResponse{
			Success:      false,
			ErrorCode:    "ACCESS_DENIED",
			ErrorMessage: "share refused",
		}, nil
	}}
	svc, _, _ := newTestExecutor(api, onlineHeartbeat())

	run, err := svc.Execute(context.Background(), copyJob(dest))
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != domain.RunStatusFailed {
		t.Fatalf("run status = %q, want failed", run.Status)
	}
	if run.Mappings[0].Status != domain.RunStatusFailed {
		t.Fatalf("mapping status = %q, want failed", run.Mappings[0].Status)
	}
	if run.Retention.Reason != "destination access errors reported" {
		t.Fatalf("retention reason = %q", run.Retention.Reason)
	}
	if run.Retention.Applied {
		t.Fatal("rotation must not run after an access failure")
	}
	if len(api.deletes) != 1 || len(api.deletes[0]) != 1 {
		t.Fatalf("expected one rollback delete, got %+v", api.deletes)
	}
	if got := api.deletes[0][0].Path; got != run.Mappings[0].TargetPath {
		t.Fatalf("rollback deleted %q, want %q", got, run.Mappings[0].TargetPath)
	}
}

func TestExecuteFatalAccessWithTransferDowngrades(t *testing.T) {
	dest := t.TempDir()
	api := &fakeAgent{backup: func(req *agent.BackupRequest) (*agent.BackupResponse, error) {
		if err := os.MkdirAll(req.Destination, 0755); err != nil {
			t.Fatal(err)
		}
		return &agent.BackupResponse{
			Success:   false,
			ErrorCode: "DEST_WRITE_ERROR",
			Stats:     map[string]interface{}{"copiedFiles": float64(42), "bytesProcessed": float64(9000)},
		}, nil
	}}
	svc, _, _ := newTestExecutor(api, onlineHeartbeat())

	run, err := svc.Execute(context.Background(), copyJob(dest))
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != domain.RunStatusPartial {
		t.Fatalf("run status = %q, want partial", run.Status)
	}
	if run.Mappings[0].Stats.CopiedFiles != 42 {
		t.Fatalf("transferred counters must survive the downgrade: %+v", run.Mappings[0].Stats)
	}
	if len(api.deletes) != 0 {
		t.Fatal("no rollback expected when data was transferred")
	}
	if run.Retention.Reason == "" {
		t.Fatal("rotation must be suppressed after an access failure")
	}
}

func TestExecuteTransportLossReconstructsFromDisk(t *testing.T) {
	dest := t.TempDir()
	api := &fakeAgent{backup: func(req *agent.BackupRequest) (*agent.BackupResponse, error) {
		// Files landed before the connection broke.
		if err := os.MkdirAll(req.Destination, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(req.Destination, "report.pdf"), []byte("12345"), 0644); err != nil {
			t.Fatal(err)
		}
		return nil, domain.NewError(domain.KindAgentTimeout, "deadline exceeded")
	}}
	svc, _, _ := newTestExecutor(api, onlineHeartbeat())

	run, err := svc.Execute(context.Background(), copyJob(dest))
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != domain.RunStatusPartial {
		t.Fatalf("run status = %q, want partial", run.Status)
	}
	m := run.Mappings[0]
	if m.Stats.TotalFiles != 1 || m.Stats.BytesProcessed != 5 {
		t.Fatalf("counters not rebuilt from disk: %+v", m.Stats)
	}
	if len(m.Warnings) == 0 {
		t.Fatal("expected a reconstruction warning")
	}
}

func TestExecuteTransportLossWithoutFilesAborts(t *testing.T) {
	job := copyJob(t.TempDir())
	job.Mappings = append(job.Mappings, domain.Mapping{
		SourcePath:      "/srv/archive",
		DestinationPath: t.TempDir(),
		Mode:            domain.ModeCopy,
	})
	api := &fakeAgent{backup: func(*agent.BackupRequest) (*agent.BackupResponse, error) {
		return nil, domain.NewError(domain.KindAgentUnreachable, "connection refused")
	}}
	svc, _, _ := newTestExecutor(api, onlineHeartbeat())

	run, err := svc.Execute(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != domain.RunStatusFailed {
		t.Fatalf("run status = %q, want failed", run.Status)
	}
	if len(api.backups) != 1 {
		t.Fatalf("remaining mappings must be abandoned, got %d agent calls", len(api.backups))
	}
	if run.Retention.Reason != "run failed" {
		t.Fatalf("retention reason = %q", run.Retention.Reason)
	}
}

func TestExecuteHeartbeatLookupErrorFinalizesRun(t *testing.T) {
	api := &fakeAgent{backup: func(*agent.BackupRequest) (*agent.BackupResponse, error) {
		t.Fatal("agent must not be called")
		return nil, nil
	}}
	svc, runs, hbRepo := newTestExecutor(api, nil)
	hbRepo.err = errors.New("heartbeat store unavailable")

	_, err := svc.Execute(context.Background(), copyJob(t.TempDir()))
	if err == nil {
		t.Fatal("expected the store error to propagate")
	}
	if runs.last == nil || runs.last.Status != domain.RunStatusFailed {
		t.Fatalf("persisted run = %+v, want failed", runs.last)
	}
	if runs.last.End.IsZero() {
		t.Fatal("run must be finalized, not left in flight")
	}
	if runs.last.Retention.Reason != "run failed" {
		t.Fatalf("retention reason = %q", runs.last.Retention.Reason)
	}
}

func TestExecuteLateFailureSkipsEarlierRotation(t *testing.T) {
	dest1 := t.TempDir()
	dest2 := t.TempDir()
	base := time.Now().Add(-24 * time.Hour)
	var oldDirs []string
	for i := 0; i < 7; i++ {
		dir := filepath.Join(dest1, fmt.Sprintf("backup_2024010%d_010000", i+1))
		if err := os.Mkdir(dir, 0755); err != nil {
			t.Fatal(err)
		}
		ts := base.Add(time.Duration(i) * time.Hour)
		if err := os.Chtimes(dir, ts, ts); err != nil {
			t.Fatal(err)
		}
		oldDirs = append(oldDirs, dir)
	}

	job := copyJob(dest1)
	job.Mappings = append(job.Mappings, domain.Mapping{
		SourcePath:      "/srv/archive",
		DestinationPath: dest2,
		Mode:            domain.ModeCopy,
	})
	api := &fakeAgent{backup: func(req *agent.BackupRequest) (*agent.BackupResponse, error) {
		if err := os.MkdirAll(req.Destination, 0755); err != nil {
			t.Fatal(err)
		}
		if req.SourcePath == "/srv/projects" {
			return &agent.BackupResponse{
				Success: true,
				Stats:   map[string]interface{}{"copiedFiles": float64(2), "bytesProcessed": float64(64)},
			}, nil
		}
		return &agent.BackupResponse{Success: false, ErrorCode: "ACCESS_DENIED"}, nil
	}}
	svc, _, _ := newTestExecutor(api, onlineHeartbeat())

	run, err := svc.Execute(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != domain.RunStatusFailed {
		t.Fatalf("run status = %q, want failed", run.Status)
	}
	if run.Retention.Applied || len(run.Retention.Deleted) != 0 {
		t.Fatalf("rotation ran despite the failed run: %+v", run.Retention)
	}
	// The only delete is the rollback of the failed mapping's directory;
	// the seven retained versions stay untouched.
	if len(api.deletes) != 1 || len(api.deletes[0]) != 1 {
		t.Fatalf("expected one rollback delete, got %+v", api.deletes)
	}
	if got := api.deletes[0][0].Path; got != run.Mappings[1].TargetPath {
		t.Fatalf("rollback deleted %q, want %q", got, run.Mappings[1].TargetPath)
	}
	for _, dir := range oldDirs {
		if api.deletes[0][0].Path == dir {
			t.Fatalf("retained version %q was deleted", dir)
		}
	}
}

func TestExecuteAbortRollsBackAttemptedTargets(t *testing.T) {
	dest1 := t.TempDir()
	dest2 := t.TempDir()
	job := copyJob(dest1)
	job.Mappings = append(job.Mappings, domain.Mapping{
		SourcePath:      "/srv/archive",
		DestinationPath: dest2,
		Mode:            domain.ModeCopy,
	})
	api := &fakeAgent{backup: func(req *agent.BackupRequest) (*agent.BackupResponse, error) {
		if err := os.MkdirAll(req.Destination, 0755); err != nil {
			t.Fatal(err)
		}
		if req.SourcePath == "/srv/projects" {
			return &agent.BackupResponse{Success: true}, nil
		}
		// Connection lost right after the directory was created.
		return nil, domain.NewError(domain.KindAgentUnreachable, "connection reset")
	}}
	svc, _, _ := newTestExecutor(api, onlineHeartbeat())

	run, err := svc.Execute(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != domain.RunStatusFailed {
		t.Fatalf("run status = %q, want failed", run.Status)
	}
	if len(api.deletes) != 1 || len(api.deletes[0]) != 2 {
		t.Fatalf("expected one rollback delete covering both targets, got %+v", api.deletes)
	}
	if got := api.deletes[0][0].Path; got != run.Mappings[0].TargetPath {
		t.Fatalf("rollback item 0 = %q, want %q", got, run.Mappings[0].TargetPath)
	}
	want := filepath.Join(dest2, backupDirName(run.Start))
	if got := api.deletes[0][1].Path; got != want {
		t.Fatalf("rollback item 1 = %q, want %q", got, want)
	}
	if run.Retention.Applied {
		t.Fatal("rotation must not run after an aborted run")
	}
}

func TestExecuteRotationKeepsSlots(t *testing.T) {
	dest := t.TempDir()
	base := time.Now().Add(-24 * time.Hour)
	names := []string{
		"backup_20240101_010000",
		"backup_20240102_010000",
		"backup_20240103_010000",
		"backup_20240104_010000",
		"backup_20240105_010000",
		"backup_20240106_010000",
		"backup_20240107_010000",
	}
	for i, name := range names {
		dir := filepath.Join(dest, name)
		if err := os.Mkdir(dir, 0755); err != nil {
			t.Fatal(err)
		}
		ts := base.Add(time.Duration(i) * time.Hour)
		if err := os.Chtimes(dir, ts, ts); err != nil {
			t.Fatal(err)
		}
	}

	api := &fakeAgent{backup: func(req *agent.BackupRequest) (*agent.BackupResponse, error) {
		if err := os.MkdirAll(req.Destination, 0755); err != nil {
			t.Fatal(err)
		}
		return &agent.BackupResponse{Success: true}, nil
	}}
	svc, _, _ := newTestExecutor(api, onlineHeartbeat())

	run, err := svc.Execute(context.Background(), copyJob(dest))
	if err != nil {
		t.Fatal(err)
	}
	if !run.Retention.Applied {
		t.Fatal("rotation must run after a clean transfer")
	}
	// 7 existing plus the new one, 5 slots: the 3 oldest go.
	if len(run.Retention.Deleted) != 3 {
		t.Fatalf("deleted %d versions, want 3: %+v", len(run.Retention.Deleted), run.Retention.Deleted)
	}
	for i, want := range names[:3] {
		if got := filepath.Base(run.Retention.Deleted[i]); got != want {
			t.Fatalf("victim %d = %q, want %q", i, got, want)
		}
	}
	if run.Mappings[0].RetentionIndex != 2 {
		t.Fatalf("retention index = %d, want 2", run.Mappings[0].RetentionIndex)
	}
}
