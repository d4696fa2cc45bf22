package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/baluardo/backup-control-service/internal/domain"
)

// uncPattern matches well-formed UNC paths: \\server\share with optional
// further components.
var uncPattern = regexp.MustCompile(`^\\\\[^\\/:*?"<>|\s]+(\\[^\\/:*?"<>|]+)+\\?$`)

// validateMapping rejects a mapping before any agent contact: malformed
// UNC paths, inconsistent credentials, identical or overlapping source
// and destination.
func validateMapping(m *domain.Mapping) error {
	for _, p := range []string{m.SourcePath, m.DestinationPath} {
		if p == "" {
			return domain.NewError(domain.KindUNCInvalidFormat, "mapping path is empty")
		}
		if strings.HasPrefix(p, `\\`) && !uncPattern.MatchString(p) {
			return domain.NewError(domain.KindUNCInvalidFormat,
				fmt.Sprintf("malformed network path %q", p)).WithPath(p)
		}
	}

	if c := m.Credentials; c != nil {
		if c.Username == "" {
			return domain.NewError(domain.KindInvalidCredentials,
				"credentials present but username is empty")
		}
		// A domain may come embedded in the username or in the Domain
		// field, never both.
		if c.Domain != "" && strings.Contains(c.Username, `\`) {
			return domain.NewError(domain.KindInvalidCredentials,
				"domain specified both in username and in domain field")
		}
	}

	src := normalizePath(m.SourcePath)
	dst := normalizePath(m.DestinationPath)
	if src == dst {
		return domain.NewError(domain.KindSourceEqualsDestination,
			"source and destination are the same path").WithPath(m.SourcePath)
	}
	if pathContains(src, dst) || pathContains(dst, src) {
		return domain.NewError(domain.KindPathOverlap,
			fmt.Sprintf("paths %q and %q overlap", m.SourcePath, m.DestinationPath)).WithPath(m.DestinationPath)
	}
	return nil
}

// normalizePath canonicalizes a path for comparison only: forward
// slashes, no trailing separator, case-insensitive (agent hosts are
// Windows machines, so separators must be unified regardless of the
// platform this service runs on).
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.TrimRight(p, "/")
	return strings.ToLower(p)
}

// pathContains reports whether child lies inside parent.
func pathContains(parent, child string) bool {
	return strings.HasPrefix(child, parent+"/")
}
