// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package gogpuhost

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/life"
	"github.com/gogpu/life/backend"
	"github.com/gogpu/life/config"
)

// ErrHostClosed is returned when a closed host is drawn.
var ErrHostClosed = errors.New("gogpuhost: host is closed")

// DrawFrame is what the window hands the host once per frame.
type DrawFrame struct {
	// Width and Height are the window size in pixels. Zero means minimized.
	Width, Height int

	// View is the surface texture view, passed to the pipeline as the
	// render target. SurfaceWidth and SurfaceHeight are its size.
	View          any
	SurfaceWidth  uint32
	SurfaceHeight uint32

	// Device shares the window's GPU device with the pipeline. Format is
	// the surface colour format.
	Device any
	Format gputypes.TextureFormat

	Now time.Time
}

// frameSurface adapts the window surface of the current frame to
// life.Surface. gogpu configures and presents the surface itself, so
// Configure does nothing and frames carry no Present.
type frameSurface struct {
	view          any
	width, height uint32
}

func (s *frameSurface) Configure(int, int) error { return nil }

func (s *frameSurface) Acquire() (life.Frame, error) {
	if s.view == nil || s.width == 0 || s.height == 0 {
		return life.Frame{}, backend.ErrSurfaceOutdated
	}
	return life.Frame{View: s.view, Width: s.width, Height: s.height}, nil
}

// Host connects window events to a simulation. The simulation is created
// on the first drawn frame, when the window's device exists.
//
// Host is not safe for concurrent use; gogpu delivers every callback on
// the window goroutine. Other goroutines use Controls.
type Host struct {
	cfg      *config.Config
	opts     []life.Option
	controls *life.Controls
	sim      *life.Simulation
	surface  frameSurface
	width    int
	height   int
	quit     func()
	closed   bool
}

// NewHost returns a host for cfg. The options are passed to life.New.
func NewHost(cfg *config.Config, opts ...life.Option) *Host {
	if cfg == nil {
		cfg = config.Default()
	}
	controls := life.NewControls(life.DefaultControlQueue)
	return &Host{
		cfg:      cfg,
		controls: controls,
		opts:     append([]life.Option{life.WithControls(controls)}, opts...),
		quit:     func() {},
	}
}

// Controls returns the control surface of the hosted simulation. It is
// valid before the first frame.
func (h *Host) Controls() *life.Controls { return h.controls }

// Simulation returns the hosted simulation, or nil before the first frame.
func (h *Host) Simulation() *life.Simulation { return h.sim }

// OnQuit sets the function called when the user asks to exit.
func (h *Host) OnQuit(fn func()) {
	if fn != nil {
		h.quit = fn
	}
}

// Draw runs one frame: it creates the simulation if needed, tracks the
// window size, ticks and redraws. It reports whether a frame was presented.
func (h *Host) Draw(f DrawFrame) (bool, error) {
	if h.closed {
		return false, ErrHostClosed
	}
	if h.sim == nil {
		if f.Width <= 0 || f.Height <= 0 {
			return false, nil
		}
		opts := append([]life.Option{
			life.WithDevice(f.Device),
			life.WithSurfaceFormat(f.Format),
		}, h.opts...)
		sim, err := life.New(h.cfg, opts...)
		if err != nil {
			return false, fmt.Errorf("gogpuhost: %w", err)
		}
		h.sim = sim
	}

	if f.Width != h.width || f.Height != h.height {
		h.Resize(f.Width, f.Height)
	}
	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}
	if _, err := h.sim.Tick(now); err != nil {
		return false, err
	}
	h.surface = frameSurface{view: f.View, width: f.SurfaceWidth, height: f.SurfaceHeight}
	return h.sim.Redraw(&h.surface), nil
}

// Resize records a window resize. Zero sizes stop rendering until the
// window is restored.
func (h *Host) Resize(width, height int) {
	h.width, h.height = width, height
	if h.sim != nil {
		h.sim.Resize(width, height)
	}
}

// KeyPress handles a key press. Escape calls the quit function.
func (h *Host) KeyPress(k gpucontext.Key, _ gpucontext.Modifiers) {
	lk := MapKey(k)
	if lk == life.KeyEscape {
		h.quit()
		return
	}
	if h.sim != nil {
		h.sim.Key(lk, true)
	}
}

// MouseMove tracks the pointer.
func (h *Host) MouseMove(x, y float64) {
	if h.sim != nil {
		h.sim.PointerMoved(x, y)
	}
}

// MousePress starts painting with the left button.
func (h *Host) MousePress(b gpucontext.MouseButton, x, y float64) {
	if h.sim == nil || b != gpucontext.MouseButtonLeft {
		return
	}
	h.sim.PointerMoved(x, y)
	h.sim.PointerButton(true)
}

// MouseRelease stops painting.
func (h *Host) MouseRelease(b gpucontext.MouseButton, _, _ float64) {
	if h.sim != nil && b == gpucontext.MouseButtonLeft {
		h.sim.PointerButton(false)
	}
}

// Focus treats losing focus as the pointer leaving the window.
func (h *Host) Focus(focused bool) {
	if h.sim != nil && !focused {
		h.sim.PointerEntered(false)
	}
}

// Close releases the simulation. Close is idempotent.
func (h *Host) Close() {
	if h.closed {
		return
	}
	h.closed = true
	if h.sim != nil {
		h.sim.Close()
		h.sim = nil
	}
}
