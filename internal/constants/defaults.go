package constants

import "time"

// Timeouts - Default timeout values.
const (
	// DefaultEnumerationTimeout bounds one in-process enumeration.
	DefaultEnumerationTimeout = 10 * time.Second

	// DefaultExitGracePeriod is how long the isolation channel waits for the
	// helper to exit after its output stream closes before killing it.
	DefaultExitGracePeriod = 5000 * time.Millisecond
)

// Scanning - Batch enumeration defaults.
const (
	// DefaultScanConcurrency is the number of helper processes run at once
	// by a catalog scan.
	DefaultScanConcurrency = 4
)
