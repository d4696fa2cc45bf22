package agent

import (
	"strconv"

	"github.com/baluardo/backup-control-service/internal/domain"
)

// Agents in the field disagree on stat key names, so each counter is
// resolved by probing an ordered list of candidate keys and taking the
// first one present. Keep the lists ordered from most to least common.
var statKeyCandidates = map[string][]string{
	"total":   {"totalFiles", "total_files", "total", "fileCount", "files"},
	"copied":  {"copiedFiles", "copied_files", "copied", "transferredFiles", "transferred"},
	"updated": {"updatedFiles", "updated_files", "updated"},
	"skipped": {"skippedFiles", "skipped_files", "skipped"},
	"failed":  {"failedFiles", "failed_files", "failed", "errorFiles"},
	"bytes":   {"bytesProcessed", "bytes_processed", "bytes", "totalBytes", "total_bytes", "size"},
}

// NormalizeStats converts a raw agent stats document into the fixed
// internal counters. Missing fields stay zero; unknown fields are
// ignored.
func NormalizeStats(raw map[string]interface{}) domain.Stats {
	var s domain.Stats
	if raw == nil {
		return s
	}
	s.TotalFiles = probeInt64(raw, statKeyCandidates["total"])
	s.CopiedFiles = probeInt64(raw, statKeyCandidates["copied"])
	s.UpdatedFiles = probeInt64(raw, statKeyCandidates["updated"])
	s.SkippedFiles = probeInt64(raw, statKeyCandidates["skipped"])
	s.FailedFiles = probeInt64(raw, statKeyCandidates["failed"])
	s.BytesProcessed = probeInt64(raw, statKeyCandidates["bytes"])
	return s
}

func probeInt64(raw map[string]interface{}, keys []string) int64 {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if n, ok := toInt64(v); ok {
				return n
			}
		}
	}
	return 0
}

func toInt64(v interface{}) (int64, bool) {
	switch value := v.(type) {
	case float64:
		return int64(value), true
	case int64:
		return value, true
	case int:
		return int64(value), true
	case string:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
