package global

import (
	"github.com/baluardo/backup-control-service/pkg/fileurl"
)

var (
	// ROOT is the directory the binary runs from.
	ROOT string
)

func init() {
	ROOT = fileurl.GetExePath() + "/"
}
