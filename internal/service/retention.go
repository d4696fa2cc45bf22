package service

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/baluardo/backup-control-service/internal/domain"
)

const (
	// completionMarkerName is written inside a backup directory after the
	// agent confirms a finished transfer. Directories without it are
	// treated as incomplete unless a legacy name pattern matches.
	completionMarkerName = ".backup-complete"
	// metadataSidecarName carries the run metadata for a backup directory.
	metadataSidecarName = ".backup-meta.json"
)

// backupDirLayout formats the versioned directory name for a run start.
const backupDirLayout = "2006-01-02_15-04-05"

// Older agent generations named backup directories differently. These
// patterns are accepted read-only so rotation counts pre-existing
// versions. The current scheme deliberately matches neither: a
// current-scheme directory counts only once its completion marker or
// sidecar exists, so a crashed transfer is invisible to rotation.
var legacyBackupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^backup_\d{8}_\d{6}$`),
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}$`),
}

// BackupMeta is the sidecar document written next to a completed backup.
type BackupMeta struct {
	JobID          int64     `json:"jobId"`
	RunID          string    `json:"runId"`
	RetentionIndex int       `json:"retentionIndex"`
	Slots          int       `json:"slots"`
	Timestamp      time.Time `json:"timestamp"`
}

// backupEntry is one existing backup version found under a destination.
type backupEntry struct {
	Path    string
	Name    string
	ModTime time.Time
}

// backupDirName returns the versioned directory name for a run started at
// start.
func backupDirName(start time.Time) string {
	return "backup-" + start.Format(backupDirLayout)
}

// isBackupDir decides whether a directory under a destination counts as a
// backup version: either it carries the completion marker or sidecar, or
// its name matches a legacy naming pattern.
func isBackupDir(path, name string) bool {
	if fileExists(filepath.Join(path, completionMarkerName)) ||
		fileExists(filepath.Join(path, metadataSidecarName)) {
		return true
	}
	for _, pat := range legacyBackupPatterns {
		if pat.MatchString(name) {
			return true
		}
	}
	return false
}

// snapshotBackups lists the existing backup versions under destination,
// oldest first by modification time. A missing destination yields an
// empty snapshot, not an error; the agent creates it on first transfer.
func snapshotBackups(destination string) ([]backupEntry, error) {
	entries, err := os.ReadDir(destination)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var backups []backupEntry
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(destination, e.Name())
		if !isBackupDir(path, e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backupEntry{
			Path:    path,
			Name:    e.Name(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].ModTime.Before(backups[j].ModTime)
	})
	return backups, nil
}

// rotationVictims selects the backups to delete so that, counting the run
// in flight, exactly slots versions remain. existing must be sorted
// oldest first.
func rotationVictims(existing []backupEntry, slots int) []backupEntry {
	if slots < 1 {
		slots = domain.DefaultRetentionSlots
	}
	excess := len(existing) + 1 - slots
	if excess <= 0 {
		return nil
	}
	if excess > len(existing) {
		excess = len(existing)
	}
	return existing[:excess]
}

// writeCompletionMarker stamps a backup directory as complete and drops
// the metadata sidecar. Failures are reported, not fatal; an unmarked
// directory is merely invisible to rotation until the next run.
func writeCompletionMarker(dir string, meta BackupMeta) error {
	if err := os.WriteFile(filepath.Join(dir, completionMarkerName), []byte(meta.Timestamp.Format(time.RFC3339)+"\n"), 0644); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, metadataSidecarName), payload, 0644)
}

// readBackupMeta loads the sidecar for a backup directory.
func readBackupMeta(dir string) (*BackupMeta, error) {
	payload, err := os.ReadFile(filepath.Join(dir, metadataSidecarName))
	if err != nil {
		return nil, err
	}
	var meta BackupMeta
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// reconstructFromDisk rebuilds transfer counters by walking the target
// directory after the agent connection was lost mid-transfer. found is
// false when the directory does not exist or holds nothing.
func reconstructFromDisk(target string) (stats domain.Stats, found bool) {
	err := filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if name == completionMarkerName || name == metadataSidecarName {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		stats.TotalFiles++
		stats.CopiedFiles++
		stats.BytesProcessed += info.Size()
		return nil
	})
	if err != nil {
		return domain.Stats{}, false
	}
	return stats, stats.TotalFiles > 0
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
