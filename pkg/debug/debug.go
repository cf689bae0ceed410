// Package debug provides global debug logging flags
package debug

import "fmt"

// Enabled controls whether debug logging is active
var Enabled bool

// Detections controls whether verbose per-frame detection logs are shown.
// Enabled by the -debug-detections flag or the debug log level.
var Detections bool

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		fmt.Printf(format, args...)
	}
}

// DetLog prints a message only if detection debug mode is enabled
func DetLog(format string, args ...interface{}) {
	if Detections {
		fmt.Printf(format, args...)
	}
}
