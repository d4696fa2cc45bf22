package logger

// Shared log field name constants, to keep field naming consistent across
// the project for log querying and analysis.
const (
	// FieldJobID job identifier field
	FieldJobID = "jobId"

	// FieldRunID run identifier field
	FieldRunID = "runId"

	// FieldHost client hostname field
	FieldHost = "host"

	// FieldMapping mapping index field
	FieldMapping = "mapping"

	// FieldPath filesystem path field
	FieldPath = "path"

	// FieldStatus run or mapping status field
	FieldStatus = "status"

	// FieldDuration elapsed time field
	FieldDuration = "duration"

	// FieldGeneration scheduler generation counter field
	FieldGeneration = "generation"

	// FieldNextRun next scheduled run field
	FieldNextRun = "nextRun"

	// FieldError error message field
	FieldError = "error"
)
