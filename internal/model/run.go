package model

import (
	"github.com/baluardo/backup-control-service/pkg/timex"
)

// Run one execution attempt of a job. Mapping results, warnings, errors
// and retention status are JSON documents owned by the executor.
type Run struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID          string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"runId"`
	JobID          int64      `gorm:"index;not null" json:"jobId"`
	ClientHostname string     `gorm:"type:varchar(255)" json:"clientHostname"`
	StartTime      timex.Time `json:"startTime"`
	EndTime        timex.Time `json:"endTime"`
	Status         string     `gorm:"type:varchar(16);index" json:"status"`
	Mappings       string     `gorm:"type:text" json:"mappings"`
	TotalFiles     int64      `json:"totalFiles"`
	CopiedFiles    int64      `json:"copiedFiles"`
	UpdatedFiles   int64      `json:"updatedFiles"`
	SkippedFiles   int64      `json:"skippedFiles"`
	FailedFiles    int64      `json:"failedFiles"`
	BytesProcessed int64      `json:"bytesProcessed"`
	Warnings       string     `gorm:"type:text" json:"warnings"`
	Errors         string     `gorm:"type:text" json:"errors"`
	Retention      string     `gorm:"type:text" json:"retention"`
	CreatedAt      timex.Time `json:"createdAt"`
	UpdatedAt      timex.Time `json:"updatedAt"`
}

func (*Run) TableName() string {
	return "run"
}
