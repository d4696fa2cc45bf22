package agent

import (
	"github.com/baluardo/backup-control-service/internal/domain"
)

// agentErrorCodes maps the error codes an agent reports in
// BackupResponse.ErrorCode to the engine taxonomy. Codes arrive in a few
// historical spellings.
var agentErrorCodes = map[string]domain.ErrorKind{
	"DESTINATION_WRITE_ERROR": domain.KindDestinationWriteError,
	"DEST_WRITE_ERROR":        domain.KindDestinationWriteError,
	"ACCESS_DENIED":           domain.KindAccessDenied,
	"INVALID_CREDENTIALS":     domain.KindInvalidCredentials,
	"BAD_CREDENTIALS":         domain.KindInvalidCredentials,
	"NETWORK_PATH_NOT_FOUND":  domain.KindNetworkPathNotFound,
	"PATH_NOT_FOUND":          domain.KindNetworkPathNotFound,
	"SOURCE_NOT_FOUND":        domain.KindSourceNotFound,
	"PATH_TOO_LONG":           domain.KindPathTooLong,
}

// userMessages are the user-facing messages shown for each kind.
var userMessages = map[domain.ErrorKind]string{
	domain.KindDestinationWriteError: "the agent could not write to the destination",
	domain.KindAccessDenied:          "access to the path was denied",
	domain.KindInvalidCredentials:    "the provided credentials were rejected",
	domain.KindNetworkPathNotFound:   "the network path was not found",
	domain.KindSourceNotFound:        "the source path does not exist",
	domain.KindPathTooLong:           "a file path exceeded the maximum length",
}

// KindForCode resolves an agent error code to an engine error kind.
// Unrecognized codes map to UNKNOWN_AGENT_ERROR.
func KindForCode(code string) domain.ErrorKind {
	if kind, ok := agentErrorCodes[code]; ok {
		return kind
	}
	return domain.KindUnknownAgentError
}

// MessageForKind returns the user-facing message for a kind; fallback is
// used for unknown kinds so the agent's own message survives.
func MessageForKind(kind domain.ErrorKind, fallback string) string {
	if msg, ok := userMessages[kind]; ok {
		return msg
	}
	if fallback != "" {
		return fallback
	}
	return "the agent reported an unrecognized error"
}
