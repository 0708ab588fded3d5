package life

import (
	"math/rand/v2"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/life/backend"
)

// Option configures a Simulation during creation.
//
// Example:
//
//	// Best available backend, started immediately
//	sim, err := life.New(cfg)
//
//	// Software backend with a fixed seed
//	sim, err := life.New(cfg,
//	    life.WithBackend(backend.NameSoftware),
//	    life.WithRand(rand.New(rand.NewPCG(1, 2))))
type Option func(*options)

// options holds optional configuration for Simulation creation.
type options struct {
	backendName string
	pipeline    backend.Pipeline
	device      any
	format      gputypes.TextureFormat
	rng         *rand.Rand
	clock       func() time.Time
	controls    *Controls
	async       bool
}

// defaultOptions returns the default simulation options.
func defaultOptions() options {
	return options{
		clock: time.Now,
	}
}

// WithBackend selects a registered backend by name. An empty name picks
// the best available one.
func WithBackend(name string) Option {
	return func(o *options) {
		o.backendName = name
	}
}

// WithPipeline supplies an uninitialized pipeline instead of looking one
// up in the registry. It takes precedence over WithBackend.
func WithPipeline(p backend.Pipeline) Option {
	return func(o *options) {
		o.pipeline = p
	}
}

// WithDevice passes a host GPU device to the pipeline, such as the gogpu
// application's device provider.
func WithDevice(device any) Option {
	return func(o *options) {
		o.device = device
	}
}

// WithSurfaceFormat sets the colour format the render stage targets.
func WithSurfaceFormat(f gputypes.TextureFormat) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithRand sets the random source used by Randomise.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) {
		o.rng = rng
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

// WithControls shares an existing control surface.
func WithControls(c *Controls) Option {
	return func(o *options) {
		o.controls = c
	}
}

// WithAsyncInit initializes the pipeline on another goroutine. The
// simulation is not Ready until the result arrives through its controls
// and is applied by Tick.
func WithAsyncInit() Option {
	return func(o *options) {
		o.async = true
	}
}
