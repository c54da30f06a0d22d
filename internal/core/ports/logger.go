package ports

import "io"

// Logger defines the interface for logging.
//
//go:generate go run go.uber.org/mock/mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	Info(msg string)
	Warn(msg string)
	Error(err error)
	// SetOutput redirects log output, primarily for tests.
	SetOutput(w io.Writer)
	// SetJSON switches between human-readable and structured JSON output.
	SetJSON(enabled bool)
}
