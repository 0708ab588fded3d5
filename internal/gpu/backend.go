//go:build !nogpu

package gpu

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/life/backend"
)

// Backend is the GPU implementation of backend.Pipeline on gogpu/wgpu HAL.
//
// Every step, paint merge and frame is recorded into its own command
// buffer and submitted without waiting; only ReadState and Close block.
type Backend struct {
	mu sync.Mutex

	params  backend.Params
	dev     *deviceHandle
	sub     *submitter
	state   *stateBuffers
	compute *computeStage
	paint   *paintStage
	render  *renderStage

	initialized bool
}

var _ backend.Pipeline = (*Backend)(nil)

// NewBackend creates an uninitialized GPU backend.
func NewBackend() *Backend {
	return &Backend{}
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return backend.NameWGPU
}

// SetLogger sets the logger for the GPU backend.
func (b *Backend) SetLogger(l *slog.Logger) {
	setLogger(l)
}

// Init opens or adopts a device and allocates every grid-sized resource.
func (b *Backend) Init(p backend.Params) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}
	if err := p.Grid.Validate(); err != nil {
		return err
	}
	if err := checkShaders(); err != nil {
		return err
	}

	dev, err := openDevice(p.Device)
	if err != nil {
		return fmt.Errorf("gpu: %w", err)
	}
	sub, err := newSubmitter(dev)
	if err != nil {
		dev.destroy()
		return fmt.Errorf("gpu: %w", err)
	}
	b.dev, b.sub = dev, sub

	if err := b.allocate(p); err != nil {
		b.sub.destroy()
		b.dev.destroy()
		b.dev, b.sub = nil, nil
		return err
	}
	b.initialized = true
	slogger().Info("gpu: pipeline ready", "device", dev.name, "grid", p.Grid.String())
	return nil
}

func (b *Backend) allocate(p backend.Params) error {
	state, err := newStateBuffers(b.dev, p.Grid)
	if err != nil {
		return fmt.Errorf("gpu: state buffers: %w", err)
	}
	compute, err := newComputeStage(b.dev, state, p.Grid, p.Wrap)
	if err != nil {
		state.destroy()
		return fmt.Errorf("gpu: compute stage: %w", err)
	}
	paint, err := newPaintStage(b.dev, state, compute.uniform, p.Grid)
	if err != nil {
		compute.destroy()
		state.destroy()
		return fmt.Errorf("gpu: paint stage: %w", err)
	}
	render, err := newRenderStage(b.dev, state, p)
	if err != nil {
		paint.destroy()
		compute.destroy()
		state.destroy()
		return fmt.Errorf("gpu: render stage: %w", err)
	}
	b.params = p
	b.state, b.compute, b.paint, b.render = state, compute, paint, render
	return nil
}

// release destroys grid-sized resources, dependents first.
func (b *Backend) release() {
	if b.render != nil {
		b.render.destroy()
		b.render = nil
	}
	if b.paint != nil {
		b.paint.destroy()
		b.paint = nil
	}
	if b.compute != nil {
		b.compute.destroy()
		b.compute = nil
	}
	if b.state != nil {
		b.state.destroy()
		b.state = nil
	}
}

// Reconfigure waits for in-flight work, then rebuilds every grid-sized
// resource on the same device. The new state is all dead.
//
// If allocation fails the previous parameters are restored, also with a
// dead state, and the error is returned. If that fails too the device is
// released and the error wraps backend.ErrPipelineLost.
func (b *Backend) Reconfigure(p backend.Params) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return backend.ErrNotInitialized
	}
	if err := p.Grid.Validate(); err != nil {
		return err
	}
	if err := b.sub.wait(); err != nil {
		return fmt.Errorf("gpu: reconfigure: %w", err)
	}
	prev := b.params
	b.release()
	err := b.allocate(p)
	if err == nil {
		slogger().Debug("gpu: reconfigured", "grid", p.Grid.String(), "wrap", p.Wrap)
		return nil
	}

	slogger().Warn("gpu: reconfigure failed, restoring previous grid", "grid", p.Grid.String(), "err", err)
	if rerr := b.allocate(prev); rerr != nil {
		b.teardown()
		return fmt.Errorf("%w: %w (restore: %w)", backend.ErrPipelineLost, err, rerr)
	}
	return err
}

// Close releases all resources. A shared device is left to its owner.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.teardown()
}

// teardown releases the submitter, grid resources and device, whichever
// exist.
func (b *Backend) teardown() {
	if b.sub != nil {
		b.sub.destroy()
		b.sub = nil
	}
	b.release()
	if b.dev != nil {
		b.dev.destroy()
		b.dev = nil
	}
	b.initialized = false
}

// WriteState uploads cells into both state buffers.
func (b *Backend) WriteState(cells []uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.check(len(cells)); err != nil {
		return err
	}
	b.state.write(cells)
	return nil
}

// MergePaint uploads the overlay and dispatches the OR into both buffers.
func (b *Backend) MergePaint(paint []uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.check(len(paint)); err != nil {
		return err
	}
	b.paint.upload(paint)
	return b.sub.submit("life_paint", b.paint.record)
}

// Step dispatches one generation and flips the current flag.
func (b *Backend) Step() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return backend.ErrNotInitialized
	}
	aCurrent := b.state.pair.ACurrent()
	err := b.sub.submit("life_step", func(enc hal.CommandEncoder) {
		b.compute.record(enc, aCurrent)
	})
	if err != nil {
		return err
	}
	b.state.pair.Swap()
	return nil
}

// Render draws the current state into t.View, which must be a
// hal.TextureView.
func (b *Backend) Render(t backend.Target) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return backend.ErrNotInitialized
	}
	view, ok := t.View.(hal.TextureView)
	if !ok || view == nil {
		return fmt.Errorf("%w: %T", backend.ErrUnsupportedTarget, t.View)
	}
	aCurrent := b.state.pair.ACurrent()
	return b.sub.submit("life_frame", func(enc hal.CommandEncoder) {
		b.render.record(enc, view, aCurrent)
	})
}

// ReadState copies the current buffer back to the host. It blocks until
// all prior submissions have completed.
func (b *Backend) ReadState() ([]uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	if err := b.sub.submit("life_readback", b.state.recordReadback); err != nil {
		return nil, err
	}
	if err := b.sub.wait(); err != nil {
		return nil, err
	}
	return b.state.readStaging()
}

// ACurrent reports whether buffer A is current.
func (b *Backend) ACurrent() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == nil {
		return true
	}
	return b.state.pair.ACurrent()
}

// SetHover highlights a cell.
func (b *Backend) SetHover(index uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.render != nil {
		b.render.setHover(index)
	}
}

// SetColors updates the palette.
func (b *Backend) SetColors(c backend.Colors) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.params.Colors = c
	if b.render != nil {
		b.render.setColors(c)
	}
}

func (b *Backend) check(n int) error {
	if !b.initialized {
		return backend.ErrNotInitialized
	}
	if want := b.params.Grid.Cells(); n != want {
		return fmt.Errorf("%w: got %d, want %d", backend.ErrSizeMismatch, n, want)
	}
	return nil
}
