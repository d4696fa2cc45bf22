package domain

import (
	"time"
)

// Alert tracks an active failure condition for a job so repeated
// identical failures do not re-notify on every run.
type Alert struct {
	ID int64
	// Key identifies the condition, e.g. "job:3:failed".
	Key       string
	JobID     int64
	Status    string
	Message   string
	Active    bool
	FirstSeen time.Time
	LastSeen  time.Time
}
