package domain

import (
	"time"
)

// Mapping modes.
const (
	// ModeCopy produces a new versioned backup directory per run, subject
	// to retention rotation.
	ModeCopy = "copy"
	// ModeSync mirrors the source into a fixed destination directory.
	ModeSync = "sync"
)

// DefaultRetentionSlots is the number of backup versions kept for a
// copy-mode mapping when the job does not configure one.
const DefaultRetentionSlots = 5

// Credentials are the network share credentials passed to the agent for a
// mapping. They are never interpreted by the control plane.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Domain   string `json:"domain,omitempty"`
}

// Retention is the per-mapping version retention policy for copy mode.
type Retention struct {
	// MaxBackups number of backup versions to keep, > 0
	MaxBackups int `json:"maxBackups"`
}

// Mapping is one source to destination pair within a job, with its own
// mode and retention policy.
type Mapping struct {
	SourcePath      string       `json:"sourcePath"`
	DestinationPath string       `json:"destinationPath"`
	Mode            string       `json:"mode"`
	Retention       *Retention   `json:"retention,omitempty"`
	Credentials     *Credentials `json:"credentials,omitempty"`
	Label           string       `json:"label,omitempty"`
}

// Slots returns the number of retention slots for the mapping.
func (m *Mapping) Slots() int {
	if m.Retention != nil && m.Retention.MaxBackups > 0 {
		return m.Retention.MaxBackups
	}
	return DefaultRetentionSlots
}

// Job binds an ordered list of mappings to a client host and a schedule.
type Job struct {
	ID             int64
	Name           string
	ClientHostname string
	Enabled        bool
	ModeDefault    string
	Schedule       Schedule
	Mappings       []Mapping
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
