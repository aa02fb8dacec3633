// Package log provides the structured logger used across typedsigner.
//
// Logger is a small key-value logging interface. ZapLogger backs it with
// go.uber.org/zap and writes console, logfmt or JSON lines; NoopLogger
// discards everything and is what tests and library callers get by default.
//
//	logger := log.NewZapLogger(log.Config{Format: "logfmt", Level: log.LevelDebug})
//	logger = logger.WithName("sign").WithKV("requestID", id)
//	logger.Info("payload signed", "digest", digest.Hex())
//
// Loggers travel through a context with SetContextLogger and FromContext.
//
// The Config struct is read from the environment by cleanenv:
//
//   - LOG_FORMAT: console, logfmt or json
//   - LOG_LEVEL: debug, info, warn, error or fatal
//   - LOG_OUTPUT: stderr, stdout or a file path
package log
