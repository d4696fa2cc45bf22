package model

import (
	"github.com/baluardo/backup-control-service/pkg/timex"
)

// Alert active failure condition used for notification deduplication.
type Alert struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	AlertKey  string     `gorm:"type:varchar(128);uniqueIndex;not null" json:"alertKey"`
	JobID     int64      `gorm:"index" json:"jobId"`
	Status    string     `gorm:"type:varchar(16)" json:"status"`
	Message   string     `gorm:"type:text" json:"message"`
	IsActive  int64      `gorm:"default:0" json:"isActive"`
	FirstSeen timex.Time `json:"firstSeen"`
	LastSeen  timex.Time `json:"lastSeen"`
	CreatedAt timex.Time `json:"createdAt"`
	UpdatedAt timex.Time `json:"updatedAt"`
}

func (*Alert) TableName() string {
	return "alert"
}
