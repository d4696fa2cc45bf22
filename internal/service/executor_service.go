package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/baluardo/backup-control-service/internal/agent"
	"github.com/baluardo/backup-control-service/internal/domain"
	"github.com/baluardo/backup-control-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ExecutorService runs one job end to end: single-flight guard, mapping
// execution against the host's agent, retention rotation, heartbeat
// stamping and alerting. Execute blocks until the run is terminal.
type ExecutorService interface {
	Execute(ctx context.Context, job *domain.Job) (*domain.Run, error)
	// Running reports the in-flight run id for a job, if any.
	Running(jobID int64) (string, bool)
}

type executorService struct {
	runs       domain.RunRepository
	heartbeats HeartbeatService
	notify     NotifyService
	agents     agent.Factory
	logger     *zap.Logger

	mu       sync.Mutex
	inflight map[int64]string

	now      func() time.Time
	newRunID func() string
}

func NewExecutorService(runs domain.RunRepository, heartbeats HeartbeatService, notify NotifyService, agents agent.Factory, lg *zap.Logger) ExecutorService {
	return &executorService{
		runs:       runs,
		heartbeats: heartbeats,
		notify:     notify,
		agents:     agents,
		logger:     lg,
		inflight:   make(map[int64]string),
		now:        time.Now,
		newRunID:   uuid.NewString,
	}
}

func (s *executorService) Running(jobID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	runID, ok := s.inflight[jobID]
	return runID, ok
}

func (s *executorService) Execute(ctx context.Context, job *domain.Job) (*domain.Run, error) {
	runID := s.newRunID()

	s.mu.Lock()
	if current, ok := s.inflight[job.ID]; ok {
		s.mu.Unlock()
		return nil, domain.NewError(domain.KindJobRunning,
			fmt.Sprintf("job %d already has run %s in flight", job.ID, current))
	}
	s.inflight[job.ID] = runID
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inflight, job.ID)
		s.mu.Unlock()
	}()

	run := &domain.Run{
		RunID:          runID,
		JobID:          job.ID,
		ClientHostname: job.ClientHostname,
		Start:          s.now(),
		Status:         domain.RunStatusRunning,
	}
	s.persist(ctx, run)

	s.logger.Info("run started",
		zap.Int64(logger.FieldJobID, job.ID),
		zap.String(logger.FieldRunID, run.RunID),
		zap.String(logger.FieldHost, job.ClientHostname))

	hb, err := s.heartbeats.Get(ctx, job.ClientHostname)
	if err != nil {
		run.End = s.now()
		run.Status = domain.RunStatusFailed
		run.Errors = append(run.Errors, err.Error())
		run.Retention.Reason = "run failed"
		s.persist(ctx, run)
		return nil, err
	}

	var api agent.API
	var rotations []pendingRotation
	aborted := false
	if hb == nil || !s.heartbeats.Online(hb) || hb.Addr() == "" {
		fatal := domain.NewError(domain.KindAgentUnreachable,
			fmt.Sprintf("agent on %s has no fresh heartbeat", job.ClientHostname))
		run.Errors = append(run.Errors, fatal.Error())
		aborted = true
	} else {
		s.stampBackupStatus(ctx, job, domain.BackupStatusInProgress)
		api = s.agents(hb.Addr())
		aborted, rotations = s.executeMappings(ctx, api, job, run)
	}

	run.End = s.now()
	if aborted {
		run.Status = domain.RunStatusFailed
	} else {
		run.Status = run.DeriveStatus()
	}
	// Rotation waits for the terminal status: a failed run, or one that
	// hit destination access errors, keeps every old version.
	if run.Status != domain.RunStatusFailed && run.Retention.Reason == "" {
		for _, p := range rotations {
			s.rotate(ctx, api, run, p.mapping, p.existing)
		}
	}
	if run.Status == domain.RunStatusFailed && !run.Retention.Applied && run.Retention.Reason == "" {
		run.Retention.Reason = "run failed"
	}
	s.persist(ctx, run)
	s.stampBackupStatus(ctx, job, backupStatusFor(run.Status))

	if _, err := s.notify.RunFinished(ctx, job, run); err != nil {
		s.logger.Error("alert bookkeeping failed",
			zap.Int64(logger.FieldJobID, job.ID),
			zap.String(logger.FieldRunID, run.RunID),
			zap.Error(err))
	}

	s.logger.Info("run finished",
		zap.Int64(logger.FieldJobID, job.ID),
		zap.String(logger.FieldRunID, run.RunID),
		zap.String(logger.FieldStatus, run.Status),
		zap.Duration(logger.FieldDuration, run.End.Sub(run.Start)))
	return run, nil
}

// pendingRotation holds the retention snapshot taken for a copy mapping
// at the start of its transfer. Rotation itself is deferred until the
// run's terminal status is known.
type pendingRotation struct {
	mapping  *domain.Mapping
	existing []backupEntry
}

// executeMappings runs the job's mappings in order. It returns true when
// the agent was lost mid-run and the remaining mappings were abandoned,
// along with the rotations to apply once the run is terminal.
func (s *executorService) executeMappings(ctx context.Context, api agent.API, job *domain.Job, run *domain.Run) (bool, []pendingRotation) {
	var rotations []pendingRotation
	for i := range job.Mappings {
		m := &job.Mappings[i]
		res, rot, err := s.executeMapping(ctx, api, job, run, i, m)
		if err != nil {
			run.Errors = append(run.Errors, err.Error())
			kind := domain.KindOf(err)
			if kind == domain.KindAgentUnreachable || kind == domain.KindAgentTimeout {
				s.logger.Error("agent lost mid run, abandoning remaining mappings",
					zap.Int64(logger.FieldJobID, job.ID),
					zap.String(logger.FieldRunID, run.RunID),
					zap.Int(logger.FieldMapping, i),
					zap.Error(err))
				s.rollbackRun(ctx, api, job, run, domain.PathOf(err), m.Credentials)
				return true, nil
			}
			run.Mappings = append(run.Mappings, domain.MappingResult{
				Index:           i,
				Label:           m.Label,
				SourcePath:      m.SourcePath,
				DestinationPath: m.DestinationPath,
				Mode:            mappingMode(job, m),
				Status:          domain.RunStatusFailed,
				Errors:          []string{err.Error()},
			})
			s.persist(ctx, run)
			continue
		}
		run.Mappings = append(run.Mappings, *res)
		run.Stats.Add(res.Stats)
		run.Warnings = append(run.Warnings, res.Warnings...)
		if rot != nil {
			rotations = append(rotations, *rot)
		}
		s.persist(ctx, run)
	}
	return false, rotations
}

// executeMapping runs one mapping. A non-nil error means the mapping
// could not be attempted or completed at the transport level; errors of
// kind AGENT_UNREACHABLE or AGENT_TIMEOUT abort the whole run and carry
// the attempted target path for rollback.
func (s *executorService) executeMapping(ctx context.Context, api agent.API, job *domain.Job, run *domain.Run, index int, m *domain.Mapping) (*domain.MappingResult, *pendingRotation, error) {
	res := &domain.MappingResult{
		Index:           index,
		Label:           m.Label,
		SourcePath:      m.SourcePath,
		DestinationPath: m.DestinationPath,
		Mode:            mappingMode(job, m),
	}

	if err := validateMapping(m); err != nil {
		res.Status = domain.RunStatusFailed
		res.Errors = append(res.Errors, err.Error())
		return res, nil, nil
	}

	target := m.DestinationPath
	var existing []backupEntry
	var retention *agent.RetentionBody
	if res.Mode == domain.ModeCopy {
		var err error
		existing, err = snapshotBackups(m.DestinationPath)
		if err != nil {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("could not inspect destination %s: %v", m.DestinationPath, err))
		}
		target = filepath.Join(m.DestinationPath, backupDirName(run.Start))
		res.RetentionIndex = len(existing) % m.Slots()
		retention = &agent.RetentionBody{Slots: m.Slots(), Index: res.RetentionIndex}
	}
	res.TargetPath = target

	resp, err := api.Backup(ctx, &agent.BackupRequest{
		JobID:       job.ID,
		RunID:       run.RunID,
		SourcePath:  m.SourcePath,
		Destination: target,
		Mode:        res.Mode,
		Credentials: credentialsBody(m.Credentials),
		Retention:   retention,
	})
	if err != nil {
		// The agent may have transferred data before the connection broke.
		// Whatever landed on disk is the ground truth now.
		if stats, found := reconstructFromDisk(target); found {
			res.Status = domain.RunStatusPartial
			res.Stats = stats
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("agent connection lost mid transfer, counters rebuilt from disk: %v", err))
			s.logger.Warn("transfer counters rebuilt from disk",
				zap.String(logger.FieldRunID, run.RunID),
				zap.Int(logger.FieldMapping, index),
				zap.String(logger.FieldPath, target))
			return res, nil, nil
		}
		var derr *domain.Error
		if res.Mode == domain.ModeCopy && errors.As(err, &derr) {
			err = derr.WithPath(target)
		}
		return nil, nil, err
	}

	stats := agent.NormalizeStats(resp.Stats)
	res.Stats = stats
	res.Warnings = append(res.Warnings, resp.Warnings...)
	if len(resp.BlockedFiles) > 0 {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("%d files were blocked and skipped", len(resp.BlockedFiles)))
	}

	if !resp.Success {
		kind := agent.KindForCode(resp.ErrorCode)
		msg := agent.MessageForKind(kind, resp.ErrorMessage)
		res.Errors = append(res.Errors, resp.Errors...)
		if domain.FatalAccessKinds[kind] {
			run.Retention.Reason = "destination access errors reported"
			if !stats.Transferred() {
				res.Status = domain.RunStatusFailed
				res.Errors = append(res.Errors, msg)
				s.rollback(ctx, api, m, target, res.Mode)
				return res, nil, nil
			}
		}
		res.Status = domain.RunStatusPartial
		res.Warnings = append(res.Warnings, msg)
	} else if stats.FailedFiles > 0 || len(resp.Warnings) > 0 || len(resp.Errors) > 0 {
		res.Status = domain.RunStatusPartial
		res.Errors = append(res.Errors, resp.Errors...)
	} else {
		res.Status = domain.RunStatusSuccess
	}

	var rot *pendingRotation
	if res.Mode == domain.ModeCopy {
		meta := BackupMeta{
			JobID:          job.ID,
			RunID:          run.RunID,
			RetentionIndex: res.RetentionIndex,
			Slots:          m.Slots(),
			Timestamp:      s.now(),
		}
		if err := writeCompletionMarker(target, meta); err != nil {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("could not mark backup complete: %v", err))
		}
		rot = &pendingRotation{mapping: m, existing: existing}
	}
	return res, rot, nil
}

// rotate deletes the oldest backup versions so that slots versions
// remain, counting the one just written. Deletion runs on the agent;
// per-path failures are recorded and never fail the run.
func (s *executorService) rotate(ctx context.Context, api agent.API, run *domain.Run, m *domain.Mapping, existing []backupEntry) {
	victims := rotationVictims(existing, m.Slots())
	if len(victims) == 0 {
		return
	}
	items := make([]agent.DeleteItem, 0, len(victims))
	for _, v := range victims {
		items = append(items, agent.DeleteItem{Path: v.Path, Credentials: credentialsBody(m.Credentials)})
	}
	run.Retention.Applied = true
	results, err := api.DeletePaths(ctx, items)
	if err != nil {
		for _, v := range victims {
			run.Retention.Failures = append(run.Retention.Failures, v.Path)
		}
		s.logger.Warn("retention rotation failed",
			zap.String(logger.FieldRunID, run.RunID),
			zap.Error(err))
		return
	}
	for _, r := range results {
		if r.Error == "" {
			run.Retention.Deleted = append(run.Retention.Deleted, r.Path)
		} else {
			run.Retention.Failures = append(run.Retention.Failures, r.Path)
			s.logger.Warn("retention delete failed",
				zap.String(logger.FieldRunID, run.RunID),
				zap.String(logger.FieldPath, r.Path),
				zap.String(logger.FieldError, r.Error))
		}
	}
}

// rollbackRun deletes every versioned directory the run attempted after
// the agent was lost mid-run. Half-written directories left behind would
// be counted as versions by later retention scans. Best effort; the
// agent is likely unreachable at this point.
func (s *executorService) rollbackRun(ctx context.Context, api agent.API, job *domain.Job, run *domain.Run, errPath string, errCreds *domain.Credentials) {
	var items []agent.DeleteItem
	for i := range run.Mappings {
		r := &run.Mappings[i]
		if r.Mode != domain.ModeCopy || r.TargetPath == "" {
			continue
		}
		var creds *domain.Credentials
		if r.Index >= 0 && r.Index < len(job.Mappings) {
			creds = job.Mappings[r.Index].Credentials
		}
		items = append(items, agent.DeleteItem{Path: r.TargetPath, Credentials: credentialsBody(creds)})
	}
	if errPath != "" && fileExists(errPath) {
		items = append(items, agent.DeleteItem{Path: errPath, Credentials: credentialsBody(errCreds)})
	}
	if len(items) == 0 {
		return
	}
	results, err := api.DeletePaths(ctx, items)
	if err != nil {
		s.logger.Warn("run rollback failed",
			zap.String(logger.FieldRunID, run.RunID),
			zap.Error(err))
		return
	}
	for _, r := range results {
		if r.Error != "" {
			s.logger.Warn("rollback delete failed",
				zap.String(logger.FieldRunID, run.RunID),
				zap.String(logger.FieldPath, r.Path),
				zap.String(logger.FieldError, r.Error))
		}
	}
}

// rollback removes a partially written versioned directory after a hard
// mapping failure with no transferred data. Best effort.
func (s *executorService) rollback(ctx context.Context, api agent.API, m *domain.Mapping, target, mode string) {
	if mode != domain.ModeCopy || !fileExists(target) {
		return
	}
	if _, err := api.DeletePaths(ctx, []agent.DeleteItem{{Path: target, Credentials: credentialsBody(m.Credentials)}}); err != nil {
		s.logger.Warn("rollback of incomplete backup failed",
			zap.String(logger.FieldPath, target),
			zap.Error(err))
	}
}

func (s *executorService) persist(ctx context.Context, run *domain.Run) {
	saved, err := s.runs.Save(ctx, run)
	if err != nil {
		s.logger.Error("run persistence failed",
			zap.String(logger.FieldRunID, run.RunID),
			zap.Error(err))
		return
	}
	run.ID = saved.ID
}

func (s *executorService) stampBackupStatus(ctx context.Context, job *domain.Job, status string) {
	if err := s.heartbeats.SetBackupStatus(ctx, job.ClientHostname, status, job.ID); err != nil {
		s.logger.Warn("backup status stamp failed",
			zap.String(logger.FieldHost, job.ClientHostname),
			zap.Error(err))
	}
}

func mappingMode(job *domain.Job, m *domain.Mapping) string {
	if m.Mode != "" {
		return m.Mode
	}
	if job.ModeDefault != "" {
		return job.ModeDefault
	}
	return domain.ModeCopy
}

func credentialsBody(c *domain.Credentials) *agent.CredentialsBody {
	if c == nil {
		return nil
	}
	return &agent.CredentialsBody{
		Username: c.Username,
		Password: c.Password,
		Domain:   c.Domain,
	}
}

func backupStatusFor(runStatus string) string {
	switch runStatus {
	case domain.RunStatusSuccess:
		return domain.BackupStatusCompleted
	case domain.RunStatusPartial:
		return domain.BackupStatusPartial
	default:
		return domain.BackupStatusFailed
	}
}

var _ ExecutorService = (*executorService)(nil)
