// Package logger provides a simple, thread-safe logging facility.
//
// The logger supports four levels: Debug, Info, Warn, and Error.
// Each entry is prefixed with a timestamp and, when given, the name of
// the load-test phase that produced it.
//
// # Basic Usage
//
//	logger.Info("bulk", "submitted %d registrations", n)
//	logger.Error("", "connection failed: %v", err)
//
// # Custom Logger
//
// A dedicated instance can be created for a different output or level:
//
//	log := logger.New(os.Stderr, logger.LevelDebug)
//	log.Debug("login-probe", "attempt %d", i)
package logger
