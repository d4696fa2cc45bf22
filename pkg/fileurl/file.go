// Package fileurl contains small filesystem path helpers.
package fileurl

import (
	"os"
	"path/filepath"
	"strings"
)

func IsDir(path string) bool {
	s, err := os.Stat(path)
	if err != nil {
		return false
	}
	return s.IsDir()
}

// IsExist reports whether the path exists.
func IsExist(dst string) bool {
	_, err := os.Stat(dst)
	return err == nil || os.IsExist(err)
}

// CreatePath creates the parent directory of dst if it does not exist.
func CreatePath(dst string, perm os.FileMode) error {
	dir := filepath.Dir(dst)
	if IsExist(dir) {
		return nil
	}
	return os.MkdirAll(dir, perm)
}

// GetExePath returns the directory of the running executable.
func GetExePath() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// PathSuffixCheckAdd appends suffix to path unless already present.
func PathSuffixCheckAdd(path string, suffix string) string {
	if strings.HasSuffix(path, suffix) {
		return path
	}
	return path + suffix
}
