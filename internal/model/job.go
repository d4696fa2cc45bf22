package model

import (
	"github.com/baluardo/backup-control-service/pkg/timex"
)

// Job backup job definition. Schedule and Mappings are stored as JSON
// documents since they are replaced wholesale on every update.
type Job struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string     `gorm:"type:varchar(128);not null" json:"name"`
	ClientHostname string     `gorm:"type:varchar(255);index;not null" json:"clientHostname"`
	IsEnabled      int64      `gorm:"default:1" json:"isEnabled"`
	ModeDefault    string     `gorm:"type:varchar(16)" json:"modeDefault"`
	Schedule       string     `gorm:"type:text" json:"schedule"`
	Mappings       string     `gorm:"type:text" json:"mappings"`
	CreatedAt      timex.Time `json:"createdAt"`
	UpdatedAt      timex.Time `json:"updatedAt"`
}

func (*Job) TableName() string {
	return "job"
}
