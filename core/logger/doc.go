// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production) for a CLI-driven sync process.
//
// # Run Correlation
//
// Every reconciliation pass is tagged with a run ID. The WithRun helper
// attaches that ID to the log entry, ensuring that all logs related to a
// specific pass can be correlated, including across overlapping watch ticks.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Sync started")
//
//	// In a run:
//	l := logger.WithRun(log, runID)
//	l.Error("Apply failed", zap.Error(err))
package logger
