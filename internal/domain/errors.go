package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures. The kind decides policy: whether
// a mapping fails outright, downgrades to partial, or aborts the whole
// run.
type ErrorKind string

const (
	// KindAgentUnreachable heartbeat stale or offline, or connection
	// refused; fails the whole run for that host.
	KindAgentUnreachable ErrorKind = "AGENT_UNREACHABLE"
	// KindAgentTimeout agent call exceeded its deadline.
	KindAgentTimeout ErrorKind = "AGENT_TIMEOUT"

	// KindUNCInvalidFormat malformed network path, rejected before any
	// agent call.
	KindUNCInvalidFormat ErrorKind = "UNC_INVALID_FORMAT"
	// KindSourceEqualsDestination source and destination are the same
	// path.
	KindSourceEqualsDestination ErrorKind = "SOURCE_EQUALS_DESTINATION"
	// KindPathOverlap one mapping path contains the other.
	KindPathOverlap ErrorKind = "PATH_OVERLAP"

	// Agent-reported destination access problems. Fatal for the mapping
	// unless data was already transferred.
	KindNetworkPathNotFound   ErrorKind = "NETWORK_PATH_NOT_FOUND"
	KindAccessDenied          ErrorKind = "ACCESS_DENIED"
	KindInvalidCredentials    ErrorKind = "INVALID_CREDENTIALS"
	KindDestinationWriteError ErrorKind = "DESTINATION_WRITE_ERROR"

	// Agent-reported source problems.
	KindSourceNotFound ErrorKind = "SOURCE_NOT_FOUND"
	KindPathTooLong    ErrorKind = "PATH_TOO_LONG"

	// KindUnknownAgentError unrecognized agent error code; the agent
	// message is passed through.
	KindUnknownAgentError ErrorKind = "UNKNOWN_AGENT_ERROR"

	// KindJobNotFound manual execution referenced a missing job.
	KindJobNotFound ErrorKind = "JOB_NOT_FOUND"
	// KindJobRunning a run for the job is already in flight.
	KindJobRunning ErrorKind = "JOB_RUNNING"
)

// Error is the typed engine error. Kind drives policy decisions; Path,
// when set, names the filesystem path the failure relates to so rollback
// can collect attempted targets.
type Error struct {
	Kind    ErrorKind
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a typed engine error.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError creates a typed engine error around a cause.
func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithPath returns a copy of the error carrying the related path.
func (e *Error) WithPath(path string) *Error {
	clone := *e
	clone.Path = path
	return &clone
}

// KindOf extracts the engine error kind from err, or "" if err is not an
// engine error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// PathOf extracts the related path from err, or "".
func PathOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Path
	}
	return ""
}

// FatalAccessKinds are the agent-reported destination problems that
// escalate to a hard mapping failure when nothing was transferred, and
// that also suppress retention rotation for the run.
var FatalAccessKinds = map[ErrorKind]bool{
	KindDestinationWriteError: true,
	KindAccessDenied:          true,
	KindInvalidCredentials:    true,
	KindNetworkPathNotFound:   true,
}
