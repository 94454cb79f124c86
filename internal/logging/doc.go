// Package logging provides structured logging for the deadman daemon.
//
// This package wraps zap with convenience functions for the logging patterns
// used throughout the daemon. Initialization picks the output encoding based
// on where stdout points: console output with colored levels on a terminal,
// JSON everywhere else so journald and log collectors get structured records.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (device control calls, timeout math)
//   - Info: Normal operations (watchdog armed, keepalives resumed)
//   - Warn: Degraded operation (watchdog unavailable, unsafe timeout)
//   - Error: Failures that do not stop the process
//   - Fatal: Safety violations that must terminate the process
//
// # Configuration
//
// Initialize logging at daemon startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// The DEADMAN_LOG_LEVEL environment variable is honored when no explicit
// level is passed.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
