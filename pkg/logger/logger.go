package logger

import (
	"log"
	"log/slog"
)

// NewStd returns a stdlib *log.Logger that forwards to the slog logger at error
// level, tagged with the component name. Used where an API still wants *log.Logger.
func NewStd(base *slog.Logger, component string) *log.Logger {
	if base == nil {
		base = slog.Default()
	}
	return slog.NewLogLogger(base.With("component", component).Handler(), slog.LevelError)
}
