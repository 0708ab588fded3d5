package backend

import (
	"log/slog"
	"sort"

	"github.com/gogpu/gpucontext"
)

// Factory creates a new, uninitialized pipeline.
type Factory func() Pipeline

// Backend name constants.
const (
	// NameSoftware is the CPU reference backend.
	NameSoftware = "software"
	// NameWGPU is the Pure Go GPU backend (gogpu/wgpu HAL).
	NameWGPU = "wgpu"
)

// backends holds registered factories; Default walks the priority list
// first.
var backends = gpucontext.NewRegistry[Pipeline](
	gpucontext.WithPriority(NameWGPU, NameSoftware),
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it will be replaced.
func Register(name string, factory Factory) {
	backends.Register(name, factory)
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	backends.Unregister(name)
}

// Available returns the registered backend names, sorted.
func Available() []string {
	names := backends.Available()
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	return backends.Has(name)
}

// Get returns a backend instance by name.
// Returns nil if the backend is not registered.
func Get(name string) Pipeline {
	return backends.Get(name)
}

// Default returns the best available backend based on priority.
// Returns nil if no backends are registered.
func Default() Pipeline {
	return backends.Best()
}

// Open returns the named backend initialized with p. An empty name selects
// Default().
func Open(name string, p Params) (Pipeline, error) {
	var pl Pipeline
	if name == "" {
		pl = Default()
	} else {
		pl = Get(name)
	}
	if pl == nil {
		return nil, ErrBackendNotAvailable
	}
	if err := pl.Init(p); err != nil {
		return nil, err
	}
	return pl, nil
}

// loggerSetter is implemented by backends that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// PropagateLogger passes l to p if it accepts a logger.
func PropagateLogger(p Pipeline, l *slog.Logger) {
	if ls, ok := p.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
