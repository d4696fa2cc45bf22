package domain

import (
	"net"
	"strconv"
	"time"
)

// Heartbeat statuses reported by agents.
const (
	HeartbeatStatusOnline  = "online"
	HeartbeatStatusOffline = "offline"
)

// Backup progress states stamped on a heartbeat while a run executes.
const (
	BackupStatusInProgress = "in_progress"
	BackupStatusCompleted  = "completed"
	BackupStatusPartial    = "partial"
	BackupStatusFailed     = "failed"
)

// DefaultHeartbeatTTL is how long a heartbeat stays fresh after the last
// agent ping.
const DefaultHeartbeatTTL = 2 * time.Minute

// Heartbeat is the liveness record for one agent host. It is written by
// inbound agent pings and by the executor stamping backup progress;
// last-writer-wins is acceptable because writes are idempotent snapshots.
type Heartbeat struct {
	Hostname            string
	Status              string
	Timestamp           time.Time
	AgentIP             string
	AgentPort           int
	BackupStatus        string
	BackupJobID         int64
	BackupStatusUpdated time.Time
}

// OnlineAt reports whether the host counts as online at now: the agent
// did not report offline and the last ping is within ttl.
func (h *Heartbeat) OnlineAt(now time.Time, ttl time.Duration) bool {
	if h == nil {
		return false
	}
	if h.Status == HeartbeatStatusOffline {
		return false
	}
	return now.Sub(h.Timestamp) <= ttl
}

// Addr returns the agent endpoint address, or "" when the heartbeat does
// not carry one.
func (h *Heartbeat) Addr() string {
	if h == nil || h.AgentIP == "" || h.AgentPort <= 0 {
		return ""
	}
	return net.JoinHostPort(h.AgentIP, strconv.Itoa(h.AgentPort))
}
