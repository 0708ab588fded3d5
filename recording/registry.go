package recording

import (
	"fmt"
	"sort"
	"sync"
)

// EncoderFactory creates a new encoder instance.
type EncoderFactory func() Encoder

var (
	registryMu sync.RWMutex
	encoders   = make(map[string]EncoderFactory)
)

// Register registers an encoder factory under name. It panics if factory
// is nil or name is already registered.
func Register(name string, factory EncoderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("recording: Register factory is nil")
	}
	if _, dup := encoders[name]; dup {
		panic("recording: Register called twice for " + name)
	}
	encoders[name] = factory
}

// Unregister removes an encoder from the registry.
// This is primarily useful for testing to clean up between tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(encoders, name)
}

// NewEncoder creates a new encoder instance by name.
func NewEncoder(name string) (Encoder, error) {
	registryMu.RLock()
	factory, ok := encoders[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("recording: unknown encoder %q (forgotten import?)", name)
	}
	return factory(), nil
}

// Encoders returns the registered encoder names, sorted.
func Encoders() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(encoders))
	for name := range encoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if an encoder with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := encoders[name]
	return ok
}
