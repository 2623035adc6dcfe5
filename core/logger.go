package core

// Logger abstracts structured leveled logging.
//
// The pipeline logs request lifecycle events at Info and header/decode
// details at Debug. Both [*slog.Logger] and hclog.Logger satisfy it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// DefaultLogger returns the logger used when none is configured.
// It discards everything: libraries stay silent unless asked.
func DefaultLogger() Logger {
	return discardLogger{}
}

type discardLogger struct{}

var _ Logger = discardLogger{}

// Debug implements [Logger].
func (discardLogger) Debug(string, ...any) {}

// Info implements [Logger].
func (discardLogger) Info(string, ...any) {}
