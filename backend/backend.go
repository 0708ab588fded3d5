package backend

import (
	"errors"
	"image/color"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/life/grid"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrSizeMismatch is returned when a state or paint slice does not have
	// one element per cell.
	ErrSizeMismatch = errors.New("backend: slice length does not match cell count")

	// ErrUnsupportedTarget is returned when Render receives a view type the
	// backend cannot draw into.
	ErrUnsupportedTarget = errors.New("backend: unsupported render target")

	// ErrPipelineLost is returned by Reconfigure when the new resources could
	// not be allocated and the previous ones could not be restored. The
	// pipeline is unusable and must be closed.
	ErrPipelineLost = errors.New("backend: pipeline lost")
)

// Surface errors reported while acquiring or presenting a frame.
var (
	// ErrSurfaceLost means the surface must be reconfigured before reuse.
	ErrSurfaceLost = errors.New("backend: surface lost")

	// ErrSurfaceOutdated means the surface no longer matches the window size.
	ErrSurfaceOutdated = errors.New("backend: surface outdated")

	// ErrSurfaceTimeout means no surface texture became available in time.
	ErrSurfaceTimeout = errors.New("backend: surface acquire timeout")
)

// Colors is the render palette.
type Colors struct {
	Background color.RGBA
	Alive      color.RGBA
	Cursor     color.RGBA
}

// Params describes everything a pipeline allocates for.
type Params struct {
	Grid     grid.Grid
	GapRatio float32
	Wrap     bool
	Colors   Colors

	// Device is an optional host-provided GPU device. The GPU backend accepts
	// any value exposing HalDevice() and HalQueue(); nil makes it open its own.
	Device any

	// Format is the presentation surface format. Undefined selects BGRA8Unorm.
	Format gputypes.TextureFormat
}

// Layout returns the NDC layout derived from the grid and gap ratio.
func (p Params) Layout() grid.Layout {
	return grid.NewLayout(p.Grid, p.GapRatio)
}

// Target is a render destination. View is backend specific: a
// hal.TextureView for the GPU backend, a draw.Image for the software backend.
type Target struct {
	View   any
	Width  uint32
	Height uint32
}

// Pipeline is the double-buffered simulation-and-render pipeline.
//
// Methods are called from a single goroutine, the owner of the event loop.
type Pipeline interface {
	// Name returns the backend identifier (e.g., "software", "wgpu").
	Name() string

	// Init allocates all grid-sized resources. Errors are fatal setup errors.
	Init(p Params) error

	// Reconfigure releases and reallocates every grid-sized resource. The
	// new state is all dead.
	Reconfigure(p Params) error

	// Close releases all resources. The pipeline must not be used afterwards.
	Close()

	// WriteState overwrites both state buffers.
	WriteState(cells []uint32) error

	// MergePaint ORs paint into both state buffers.
	MergePaint(paint []uint32) error

	// Step advances the automaton one generation and flips the buffer roles.
	Step() error

	// Render clears the target and draws the current state.
	Render(t Target) error

	// ReadState returns a copy of the current state buffer. This may block
	// on the GPU and is not meant for per-frame use.
	ReadState() ([]uint32, error)

	// ACurrent reports whether buffer A holds the current state.
	ACurrent() bool

	// SetHover highlights the cell at index, or none for grid.NoHover.
	SetHover(index uint32)

	// SetColors updates the render palette.
	SetColors(c Colors)
}

// ColorFloats converts an 8-bit colour to normalized components.
func ColorFloats(c color.RGBA) [4]float32 {
	return [4]float32{
		float32(c.R) / 255,
		float32(c.G) / 255,
		float32(c.B) / 255,
		float32(c.A) / 255,
	}
}
