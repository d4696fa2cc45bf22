package dto

import (
	"github.com/baluardo/backup-control-service/internal/domain"
	"github.com/baluardo/backup-control-service/pkg/timex"
)

type RunListRequest struct {
	JobID int64 `form:"jobId" binding:"required,gte=1"`
}

type RunGetRequest struct {
	RunID string `form:"runId" binding:"required,uuid"`
}

type StatsDTO struct {
	TotalFiles     int64 `json:"totalFiles"`
	CopiedFiles    int64 `json:"copiedFiles"`
	UpdatedFiles   int64 `json:"updatedFiles"`
	SkippedFiles   int64 `json:"skippedFiles"`
	FailedFiles    int64 `json:"failedFiles"`
	BytesProcessed int64 `json:"bytesProcessed"`
}

type MappingResultDTO struct {
	Index           int      `json:"index"`
	Label           string   `json:"label,omitempty"`
	SourcePath      string   `json:"sourcePath"`
	DestinationPath string   `json:"destinationPath"`
	TargetPath      string   `json:"targetPath"`
	Mode            string   `json:"mode"`
	Status          string   `json:"status"`
	Stats           StatsDTO `json:"stats"`
	Warnings        []string `json:"warnings,omitempty"`
	Errors          []string `json:"errors,omitempty"`
}

type RetentionStatusDTO struct {
	Applied  bool     `json:"applied"`
	Reason   string   `json:"reason,omitempty"`
	Deleted  []string `json:"deleted,omitempty"`
	Failures []string `json:"failures,omitempty"`
}

// RunDTO is the run representation returned by the API.
type RunDTO struct {
	RunID          string             `json:"runId"`
	JobID          int64              `json:"jobId"`
	ClientHostname string             `json:"clientHostname"`
	Start          timex.Time         `json:"start"`
	End            *timex.Time        `json:"end,omitempty"`
	Status         string             `json:"status"`
	Mappings       []MappingResultDTO `json:"mappings,omitempty"`
	Stats          StatsDTO           `json:"stats"`
	Warnings       []string           `json:"warnings,omitempty"`
	Errors         []string           `json:"errors,omitempty"`
	Retention      RetentionStatusDTO `json:"retention"`
}

// RunToDTO converts a domain run into its API representation.
func RunToDTO(run *domain.Run) *RunDTO {
	d := &RunDTO{
		RunID:          run.RunID,
		JobID:          run.JobID,
		ClientHostname: run.ClientHostname,
		Start:          timex.Time(run.Start),
		Status:         run.Status,
		Stats:          statsToDTO(run.Stats),
		Warnings:       run.Warnings,
		Errors:         run.Errors,
		Retention: RetentionStatusDTO{
			Applied:  run.Retention.Applied,
			Reason:   run.Retention.Reason,
			Deleted:  run.Retention.Deleted,
			Failures: run.Retention.Failures,
		},
	}
	if !run.End.IsZero() {
		end := timex.Time(run.End)
		d.End = &end
	}
	for _, m := range run.Mappings {
		d.Mappings = append(d.Mappings, MappingResultDTO{
			Index:           m.Index,
			Label:           m.Label,
			SourcePath:      m.SourcePath,
			DestinationPath: m.DestinationPath,
			TargetPath:      m.TargetPath,
			Mode:            m.Mode,
			Status:          m.Status,
			Stats:           statsToDTO(m.Stats),
			Warnings:        m.Warnings,
			Errors:          m.Errors,
		})
	}
	return d
}

func statsToDTO(s domain.Stats) StatsDTO {
	return StatsDTO{
		TotalFiles:     s.TotalFiles,
		CopiedFiles:    s.CopiedFiles,
		UpdatedFiles:   s.UpdatedFiles,
		SkippedFiles:   s.SkippedFiles,
		FailedFiles:    s.FailedFiles,
		BytesProcessed: s.BytesProcessed,
	}
}
