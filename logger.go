package life

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/life/backend"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

// live holds the pipelines of open simulations so SetLogger can reach them.
var (
	liveMu sync.Mutex
	live   = make(map[backend.Pipeline]struct{})
)

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for life and its pipeline backends.
// By default, life produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by life:
//   - [slog.LevelDebug]: buffer sizes, dispatch dimensions, paint flushes
//   - [slog.LevelInfo]: lifecycle events (backend selected, surface configured)
//   - [slog.LevelWarn]: recoverable surface errors, config reload failures
//
// Example:
//
//	life.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	liveMu.Lock()
	defer liveMu.Unlock()
	for p := range live {
		backend.PropagateLogger(p, l)
	}
}

// Logger returns the current logger used by life.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// track registers p for logger propagation and hands it the current logger.
func track(p backend.Pipeline) {
	liveMu.Lock()
	live[p] = struct{}{}
	liveMu.Unlock()
	backend.PropagateLogger(p, Logger())
}

func untrack(p backend.Pipeline) {
	liveMu.Lock()
	delete(live, p)
	liveMu.Unlock()
}
