package dto

import (
	"github.com/baluardo/backup-control-service/internal/domain"
	"github.com/baluardo/backup-control-service/pkg/timex"
)

// HeartbeatPostRequest is the inbound agent ping.
type HeartbeatPostRequest struct {
	Hostname  string `json:"hostname" binding:"required,hostname_rfc1123"`
	Status    string `json:"status" binding:"omitempty,oneof=online offline"`
	AgentIP   string `json:"agentIp" binding:"omitempty,ip"`
	AgentPort int    `json:"agentPort" binding:"omitempty,gte=1,lte=65535"`
}

// ToDomain converts the ping into a heartbeat record.
func (r *HeartbeatPostRequest) ToDomain() *domain.Heartbeat {
	return &domain.Heartbeat{
		Hostname:  r.Hostname,
		Status:    r.Status,
		AgentIP:   r.AgentIP,
		AgentPort: r.AgentPort,
	}
}

// HostDTO is the liveness view of one agent host.
type HostDTO struct {
	Hostname            string      `json:"hostname"`
	Online              bool        `json:"online"`
	Status              string      `json:"status"`
	LastSeen            timex.Time  `json:"lastSeen"`
	AgentIP             string      `json:"agentIp,omitempty"`
	AgentPort           int         `json:"agentPort,omitempty"`
	BackupStatus        string      `json:"backupStatus,omitempty"`
	BackupJobID         int64       `json:"backupJobId,omitempty"`
	BackupStatusUpdated *timex.Time `json:"backupStatusUpdated,omitempty"`
}

// HostToDTO converts a heartbeat into the API host view; online is the
// TTL decision made by the caller.
func HostToDTO(hb *domain.Heartbeat, online bool) *HostDTO {
	d := &HostDTO{
		Hostname:     hb.Hostname,
		Online:       online,
		Status:       hb.Status,
		LastSeen:     timex.Time(hb.Timestamp),
		AgentIP:      hb.AgentIP,
		AgentPort:    hb.AgentPort,
		BackupStatus: hb.BackupStatus,
		BackupJobID:  hb.BackupJobID,
	}
	if !hb.BackupStatusUpdated.IsZero() {
		t := timex.Time(hb.BackupStatusUpdated)
		d.BackupStatusUpdated = &t
	}
	return d
}
