package domain

import (
	"time"
)

// Run and mapping statuses. A run starts running and transitions exactly
// once to success, partial or failed.
const (
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusPartial = "partial"
	RunStatusFailed  = "failed"
)

// Stats are the aggregate transfer counters reported for a mapping or a
// whole run.
type Stats struct {
	TotalFiles     int64 `json:"totalFiles"`
	CopiedFiles    int64 `json:"copiedFiles"`
	UpdatedFiles   int64 `json:"updatedFiles"`
	SkippedFiles   int64 `json:"skippedFiles"`
	FailedFiles    int64 `json:"failedFiles"`
	BytesProcessed int64 `json:"bytesProcessed"`
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.TotalFiles += other.TotalFiles
	s.CopiedFiles += other.CopiedFiles
	s.UpdatedFiles += other.UpdatedFiles
	s.SkippedFiles += other.SkippedFiles
	s.FailedFiles += other.FailedFiles
	s.BytesProcessed += other.BytesProcessed
}

// Transferred reports whether any data was actually moved. This predicate
// decides the fatal-versus-partial downgrade for agent-reported errors;
// skipped and blocked counts intentionally do not count as transfer.
func (s Stats) Transferred() bool {
	return s.BytesProcessed > 0 || s.CopiedFiles > 0 || s.UpdatedFiles > 0
}

// MappingResult is the outcome of executing one mapping within a run.
type MappingResult struct {
	Index           int      `json:"index"`
	Label           string   `json:"label,omitempty"`
	SourcePath      string   `json:"sourcePath"`
	DestinationPath string   `json:"destinationPath"`
	// TargetPath is the actual directory written for this run: the
	// versioned backup directory in copy mode, the destination itself in
	// sync mode.
	TargetPath     string   `json:"targetPath"`
	Mode           string   `json:"mode"`
	Status         string   `json:"status"`
	Stats          Stats    `json:"stats"`
	Warnings       []string `json:"warnings,omitempty"`
	Errors         []string `json:"errors,omitempty"`
	RetentionIndex int      `json:"retentionIndex,omitempty"`
}

// RetentionStatus records whether rotation ran for a run and what it did.
type RetentionStatus struct {
	Applied  bool     `json:"applied"`
	Reason   string   `json:"reason,omitempty"`
	Deleted  []string `json:"deleted,omitempty"`
	Failures []string `json:"failures,omitempty"`
}

// Run is one execution attempt of a job covering all its mappings. It is
// owned and mutated exclusively by the executor until terminal, then
// immutable.
type Run struct {
	ID             int64
	RunID          string
	JobID          int64
	ClientHostname string
	Start          time.Time
	End            time.Time
	Status         string
	Mappings       []MappingResult
	Stats          Stats
	Warnings       []string
	Errors         []string
	Retention      RetentionStatus
}

// Terminal reports whether the run has reached a final status.
func (r *Run) Terminal() bool {
	return r.Status != RunStatusRunning
}

// DeriveStatus computes the terminal run status from the mapping results:
// any failed mapping fails the run, otherwise any partial mapping makes
// it partial, otherwise success. With no mapping results the aggregate
// stats and errors are inspected with the same precedence.
func (r *Run) DeriveStatus() string {
	if len(r.Mappings) == 0 {
		if len(r.Errors) > 0 {
			return RunStatusFailed
		}
		if r.Stats.FailedFiles > 0 || len(r.Warnings) > 0 {
			return RunStatusPartial
		}
		return RunStatusSuccess
	}
	status := RunStatusSuccess
	for _, m := range r.Mappings {
		switch m.Status {
		case RunStatusFailed:
			return RunStatusFailed
		case RunStatusPartial:
			status = RunStatusPartial
		}
	}
	return status
}
