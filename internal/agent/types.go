package agent

// BackupRequest is the body of POST /backup on the agent.
type BackupRequest struct {
	JobID       int64             `json:"jobId"`
	RunID       string            `json:"runId"`
	SourcePath  string            `json:"sourcePath"`
	Destination string            `json:"destination"`
	Mode        string            `json:"mode"`
	Credentials *CredentialsBody  `json:"credentials,omitempty"`
	Retention   *RetentionBody    `json:"retention,omitempty"`
	LogLevel    string            `json:"logLevel,omitempty"`
}

type CredentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Domain   string `json:"domain,omitempty"`
}

type RetentionBody struct {
	Slots int `json:"slots"`
	Index int `json:"index"`
}

// BackupResponse is the agent's reply to POST /backup. Stats keys are not
// assumed stable; they are normalized with NormalizeStats.
type BackupResponse struct {
	Success      bool                   `json:"success"`
	ErrorCode    string                 `json:"errorCode,omitempty"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`
	Stats        map[string]interface{} `json:"stats,omitempty"`
	Warnings     []string               `json:"warnings,omitempty"`
	Errors       []string               `json:"errors,omitempty"`
	BlockedFiles []string               `json:"blockedFiles,omitempty"`
	Log          string                 `json:"log,omitempty"`
}

// DeleteItem is one path to remove via POST /filesystem/delete.
type DeleteItem struct {
	Path        string           `json:"path"`
	Credentials *CredentialsBody `json:"credentials,omitempty"`
}

type DeleteRequest struct {
	Items []DeleteItem `json:"items"`
}

// DeleteResult is the per-path outcome of a delete request.
type DeleteResult struct {
	Path   string `json:"path"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type DeleteResponse struct {
	Results []DeleteResult `json:"results"`
}

// JobBackupsRequest asks the agent to list the physical backups present
// for a set of mappings.
type JobBackupsRequest struct {
	JobID    int64              `json:"jobId"`
	Mappings []JobBackupMapping `json:"mappings"`
}

type JobBackupMapping struct {
	Index       int              `json:"index"`
	Destination string           `json:"destination"`
	Credentials *CredentialsBody `json:"credentials,omitempty"`
}

// PhysicalBackup is one existing backup directory reported by the agent.
type PhysicalBackup struct {
	MappingIndex   int    `json:"mappingIndex"`
	Path           string `json:"path"`
	ModifiedAt     string `json:"modifiedAt"`
	SizeBytes      int64  `json:"sizeBytes"`
	RetentionIndex int    `json:"retentionIndex,omitempty"`
}

type JobBackupsResponse struct {
	Backups []PhysicalBackup `json:"backups"`
}
