package model

import (
	"github.com/baluardo/backup-control-service/pkg/timex"
)

// Heartbeat last-seen liveness record for one agent host.
type Heartbeat struct {
	ID                  int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Hostname            string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"hostname"`
	Status              string     `gorm:"type:varchar(16)" json:"status"`
	Timestamp           timex.Time `json:"timestamp"`
	AgentIP             string     `gorm:"type:varchar(64)" json:"agentIp"`
	AgentPort           int64      `json:"agentPort"`
	BackupStatus        string     `gorm:"type:varchar(16)" json:"backupStatus"`
	BackupJobID         int64      `json:"backupJobId"`
	BackupStatusUpdated timex.Time `json:"backupStatusUpdated"`
	CreatedAt           timex.Time `json:"createdAt"`
	UpdatedAt           timex.Time `json:"updatedAt"`
}

func (*Heartbeat) TableName() string {
	return "heartbeat"
}
