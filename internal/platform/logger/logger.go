package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. JSON output so log shippers need no parser
// configuration.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
