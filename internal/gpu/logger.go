//go:build !nogpu

package gpu

import (
	"log/slog"
	"sync/atomic"
)

// logger receives the pipeline's records: "pipeline ready" with the device
// name at Info, completed reconfigures at Debug, and failed reconfigures
// or teardown with work still in flight at Warn.
// It discards everything until Backend.SetLogger installs the logger
// passed to life.SetLogger.
var logger atomic.Pointer[slog.Logger]

func init() {
	logger.Store(slog.New(slog.DiscardHandler))
}

func slogger() *slog.Logger { return logger.Load() }

// setLogger installs l, or the discarding logger when l is nil.
func setLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	logger.Store(l)
}
