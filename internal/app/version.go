// Package app provides the application container that wires
// configuration, storage, the agent client and the engine services.
package app

// Version information, injected at build time.
var (
	Version   string = "0.4.2"
	GitTag    string = "2000.01.01.release"
	BuildTime string = "2000-01-01T00:00:00+0000"
)

const (
	// Name application name
	Name = "Backup Control Service"
)
