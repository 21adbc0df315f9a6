// Package constants defines shared configuration constants.
package constants

var (
	ConfigFile = "config.yaml"

	DefaultDir = ".ifprobe"

	// CatalogFile is the default interface catalog inside DefaultDir.
	CatalogFile = "catalog.yaml"

	// HelperCommand is the hidden subcommand (mode flag) the isolation
	// channel passes as the first argument to the helper executable.
	HelperCommand = "_enum-helper"
)

// Exit codes of the helper process.
const (
	// ExitCodeOK means the enumeration completed and every record was written.
	ExitCodeOK = 0

	// ExitCodeFailure means a fatal enumeration error was reported on the pipe.
	ExitCodeFailure = 1

	// ExitCodeTimeout means the watchdog terminated the helper.
	ExitCodeTimeout = 2
)
