package watermark

import (
	"log/slog"

	"github.com/gogpu/watermark/internal/wmlog"
)

// SetLogger configures the logger for watermark and all its sub-packages.
// By default nothing is logged. Pass nil to restore the silent default.
//
// SetLogger is safe for concurrent use.
//
// Log levels used:
//   - [slog.LevelDebug]: guard installation, detected tampering, fallbacks
//   - [slog.LevelWarn]: self-heal failures
//
// Example:
//
//	watermark.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	wmlog.Set(l)
}

// Logger returns the current logger. It is never nil.
func Logger() *slog.Logger {
	return wmlog.Get()
}
