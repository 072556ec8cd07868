// Package logging provides structured logging for relayctl.
//
// This package wraps zap with convenience functions for the logging
// patterns used throughout the tool. Logging is silent by default so
// command output stays clean for scripting; set RELAYCTL_LOG_LEVEL (or the
// --log-level flag) to enable it.
//
// # Log Levels
//
//   - Debug: USB transfer dumps, state byte changes
//   - Info: connect/disconnect, command outcomes
//   - Warn: best-effort teardown problems
//   - Error: fatal issues before exit
//
// # Structured Logging
//
// All log functions use structured fields:
//
//	logging.Info("relay board connected",
//	    zap.String("serial", "A7003000"),
//	    zap.String("state", "00000101"),
//	)
//
// Output goes to stderr in console format so it never mixes with command
// results on stdout.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
