package life

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/life/backend"
	"github.com/gogpu/life/config"
	"github.com/gogpu/life/grid"
)

// Common simulation errors.
var (
	// ErrNoBackend is returned when no pipeline backend could be selected.
	ErrNoBackend = errors.New("life: no pipeline backend available")

	// ErrNotReady is returned by operations that need the pipeline before
	// asynchronous initialization has completed.
	ErrNotReady = errors.New("life: pipeline not ready")
)

// Simulation owns the pipeline, the paint overlay and the scheduler. All
// methods must be called from the goroutine running the event loop; other
// goroutines talk to it through Controls.
type Simulation struct {
	cfg      *config.Config
	pipeline backend.Pipeline
	device   any
	format   gputypes.TextureFormat
	ready    bool
	setup    *asyncInit

	overlay  *PaintOverlay
	sched    *Scheduler
	controls *Controls
	rng      *rand.Rand
	now      func() time.Time

	paused     bool
	generation uint64

	width, height     int
	surfaceConfigured bool
	surfaceStale      bool

	pointerInside  bool
	pointerPressed bool
	pointerX       float64
	pointerY       float64
	hover          uint32
}

// New creates a simulation for cfg. Unless WithAsyncInit is given the
// pipeline is initialized before New returns, and any setup error is
// returned. The initial state is all dead.
func New(cfg *config.Config, opts ...Option) (*Simulation, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Derive()

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	p := o.pipeline
	if p == nil {
		name := o.backendName
		if name == "" {
			name = cfg.Backend
		}
		if name == "" {
			p = backend.Default()
		} else {
			p = backend.Get(name)
		}
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoBackend, o.backendName)
	}

	rng := o.rng
	if rng == nil {
		seed := uint64(o.clock().UnixNano()) //nolint:gosec // seed only
		rng = rand.New(rand.NewPCG(seed, seed>>32|1))
	}
	controls := o.controls
	if controls == nil {
		controls = NewControls(DefaultControlQueue)
	}

	now := o.clock()
	s := &Simulation{
		cfg:      cfg,
		pipeline: p,
		overlay:  NewPaintOverlay(cfg.Derived.Grid),
		sched:    NewScheduler(now, cfg.Derived.FrameInterval, cfg.Derived.PaintInterval),
		controls: controls,
		rng:      rng,
		now:      o.clock,
		hover:    grid.NoHover,
	}

	s.device, s.format = o.device, o.format
	params := s.paramsFor(cfg)
	track(p)
	if o.async {
		s.setup = &asyncInit{}
		go s.setup.run(p, params, controls)
		return s, nil
	}
	if err := p.Init(params); err != nil {
		untrack(p)
		return nil, fmt.Errorf("life: init %s backend: %w", p.Name(), err)
	}
	s.ready = true
	Logger().Info("life: simulation ready", "backend", p.Name(), "grid", cfg.Derived.Grid.String())
	return s, nil
}

func (s *Simulation) paramsFor(cfg *config.Config) backend.Params {
	return backend.Params{
		Grid:     cfg.Derived.Grid,
		GapRatio: cfg.GapRatio,
		Wrap:     cfg.Wrap,
		Colors:   colorsOf(cfg),
		Device:   s.device,
		Format:   s.format,
	}
}

func colorsOf(cfg *config.Config) backend.Colors {
	return backend.Colors{
		Background: cfg.BackgroundColor.Color(),
		Alive:      cfg.AliveColor.Color(),
		Cursor:     cfg.CursorColor.Color(),
	}
}

// asyncInit hands an asynchronous Init result to the simulation, or
// closes the pipeline itself when the simulation was closed first.
type asyncInit struct {
	mu        sync.Mutex
	closed    bool
	delivered bool
}

func (a *asyncInit) run(p backend.Pipeline, params backend.Params, controls *Controls) {
	err := p.Init(params)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		if err == nil {
			p.Close()
		}
		Logger().Debug("life: pipeline ready after close, released", "backend", p.Name())
		return
	}
	a.delivered = true
	a.mu.Unlock()
	controls.DeviceReady(p, err)
}

// abandon marks the simulation closed and reports whether the result was
// already committed to the controls queue.
func (a *asyncInit) abandon() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return a.delivered
}

// Close releases the pipeline. If asynchronous setup is still running the
// pipeline is released once it finishes.
func (s *Simulation) Close() {
	untrack(s.pipeline)
	if a := s.setup; a != nil {
		s.setup = nil
		if a.abandon() {
			s.awaitDeviceReady()
		}
	}
	if s.ready {
		s.pipeline.Close()
		s.ready = false
	}
}

// awaitDeviceReady discards queued commands up to the pending setup result
// and closes the pipeline if setup succeeded.
func (s *Simulation) awaitDeviceReady() {
	for cmd := range s.controls.ch {
		if cmd.Kind != CmdDeviceReady || cmd.Pipeline != s.pipeline {
			continue
		}
		if cmd.Err == nil {
			s.pipeline.Close()
		}
		return
	}
}

// Controls returns the control surface feeding this simulation.
func (s *Simulation) Controls() *Controls { return s.controls }

// Ready reports whether the pipeline is initialized.
func (s *Simulation) Ready() bool { return s.ready }

// Paused reports whether automatic stepping is stopped.
func (s *Simulation) Paused() bool { return s.paused }

// FPS returns the current step rate.
func (s *Simulation) FPS() int { return s.cfg.FPS }

// Generation returns the number of steps taken since the last reset or
// randomise.
func (s *Simulation) Generation() uint64 { return s.generation }

// Grid returns the grid dimensions.
func (s *Simulation) Grid() grid.Grid { return s.cfg.Derived.Grid }

// Config returns the active configuration.
func (s *Simulation) Config() *config.Config { return s.cfg }

// Pipeline returns the backend pipeline.
func (s *Simulation) Pipeline() backend.Pipeline { return s.pipeline }

// SurfaceConfigured reports whether the surface has a non-zero size.
func (s *Simulation) SurfaceConfigured() bool { return s.surfaceConfigured }

// Overlay returns the paint overlay.
func (s *Simulation) Overlay() *PaintOverlay { return s.overlay }

// NextWake returns when the next tick has work to do.
func (s *Simulation) NextWake() time.Time { return s.sched.NextWake(s.paused) }

// Tick drains queued commands and runs the scheduler. It reports whether
// a redraw is needed. Errors are fatal: a failed asynchronous pipeline
// setup, or a pipeline lost in a failed reconfigure.
func (s *Simulation) Tick(now time.Time) (bool, error) {
	var redraw bool
	var fatal error
	s.controls.drain(func(cmd Command) {
		r, err := s.apply(cmd)
		redraw = redraw || r
		if err != nil && fatal == nil {
			fatal = err
		}
	})
	if fatal != nil || !s.ready {
		return false, fatal
	}

	d := s.sched.Due(now, s.paused)
	if d.Paint && s.overlay.Pending() {
		if err := s.overlay.Flush(s.pipeline.MergePaint); err != nil {
			Logger().Warn("life: paint flush failed", "err", err)
		} else {
			redraw = true
		}
	}
	if d.Step {
		s.step()
	}
	return redraw || d.Redraw, nil
}

// apply executes one queued command.
func (s *Simulation) apply(cmd Command) (redraw bool, err error) {
	if cmd.Kind == CmdDeviceReady {
		return s.deviceReady(cmd)
	}
	if !s.ready {
		Logger().Debug("life: command before pipeline ready", "command", cmd.Kind.String())
		return false, nil
	}
	switch cmd.Kind {
	case CmdPlayPause:
		s.PlayPause()
	case CmdStepForward:
		return s.StepForward(), nil
	case CmdRandomise:
		s.Randomise()
		return true, nil
	case CmdUpdateFPS:
		s.UpdateFPS(cmd.FPS)
	case CmdReset:
		s.Reset()
		return true, nil
	case CmdApplyConfig:
		if err := s.ApplyConfig(cmd.Config); err != nil {
			if errors.Is(err, backend.ErrPipelineLost) {
				return false, err
			}
			Logger().Warn("life: apply config failed", "err", err)
			return true, nil
		}
		return true, nil
	}
	return false, nil
}

func (s *Simulation) deviceReady(cmd Command) (bool, error) {
	if s.ready || cmd.Pipeline != s.pipeline {
		return false, nil
	}
	s.setup = nil
	if cmd.Err != nil {
		untrack(s.pipeline)
		return false, fmt.Errorf("life: init %s backend: %w", s.pipeline.Name(), cmd.Err)
	}
	s.ready = true
	s.pipeline.SetHover(s.hover)
	s.sched.Resume(s.now())
	Logger().Info("life: simulation ready", "backend", s.pipeline.Name(), "grid", s.Grid().String())
	return true, nil
}

// step advances one generation. The pipeline flips its buffer roles once
// the step is submitted.
func (s *Simulation) step() bool {
	if err := s.pipeline.Step(); err != nil {
		Logger().Warn("life: step failed", "err", err)
		return false
	}
	s.generation++
	return true
}

// PlayPause toggles automatic stepping.
func (s *Simulation) PlayPause() {
	s.paused = !s.paused
	if !s.paused {
		s.sched.Resume(s.now())
	}
	Logger().Debug("life: play/pause", "paused", s.paused)
}

// StepForward runs exactly one step while paused and reports whether it
// did. Scheduler deadlines are not touched. It does nothing while running.
func (s *Simulation) StepForward() bool {
	if !s.paused || !s.ready {
		return false
	}
	return s.step()
}

// Randomise writes a random state to both buffers. Each cell is alive
// with probability init_rand_threshold.
func (s *Simulation) Randomise() {
	if !s.ready {
		return
	}
	cells := grid.Random(s.rng, s.Grid().Cells(), s.cfg.InitRandThreshold)
	if err := s.pipeline.WriteState(cells); err != nil {
		Logger().Warn("life: randomise failed", "err", err)
		return
	}
	s.generation = 0
}

// Reset clears both buffers.
func (s *Simulation) Reset() {
	if !s.ready {
		return
	}
	if err := s.pipeline.WriteState(make([]uint32, s.Grid().Cells())); err != nil {
		Logger().Warn("life: reset failed", "err", err)
		return
	}
	s.generation = 0
}

// UpdateFPS sets the step rate, clamped to [config.MinFPS, config.MaxFPS],
// and returns the applied value. The next step falls one new interval
// from now.
func (s *Simulation) UpdateFPS(n int) int {
	n = config.ClampFPS(n)
	s.cfg.FPS = n
	s.cfg.Derived.FrameInterval = config.Interval(n)
	s.sched.SetSimInterval(s.now(), s.cfg.Derived.FrameInterval)
	Logger().Debug("life: fps updated", "fps", n)
	return n
}

// ApplyConfig switches to cfg. Changes to the grid, gap or wrap rebuild
// the pipeline resources and clear the state; other fields are applied in
// place.
func (s *Simulation) ApplyConfig(cfg *config.Config) error {
	if cfg == nil {
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.Derive()

	if s.cfg.NeedsReconfigure(cfg) {
		if s.ready {
			if err := s.pipeline.Reconfigure(s.paramsFor(cfg)); err != nil {
				// The pipeline kept the old grid with a dead state, or is lost.
				s.generation = 0
				if errors.Is(err, backend.ErrPipelineLost) {
					s.ready = false
				}
				return fmt.Errorf("life: reconfigure: %w", err)
			}
		}
		s.overlay.Configure(cfg.Derived.Grid, s.width, s.height)
		s.generation = 0
		s.hover = grid.NoHover
		Logger().Info("life: reconfigured", "grid", cfg.Derived.Grid.String(), "wrap", cfg.Wrap)
	} else if s.ready {
		s.pipeline.SetColors(colorsOf(cfg))
	}

	now := s.now()
	if cfg.FPS != s.cfg.FPS {
		s.sched.SetSimInterval(now, cfg.Derived.FrameInterval)
	}
	if cfg.PaintFPS != s.cfg.PaintFPS {
		s.sched.SetPaintInterval(now, cfg.Derived.PaintInterval)
	}
	s.cfg = cfg
	return nil
}

// Snapshot reads the current state back from the pipeline.
func (s *Simulation) Snapshot() ([]uint32, error) {
	if !s.ready {
		return nil, ErrNotReady
	}
	return s.pipeline.ReadState()
}

// Resize records the new surface size. A zero dimension marks the surface
// unconfigured and disables rendering until a positive resize arrives.
func (s *Simulation) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		s.surfaceConfigured = false
		Logger().Debug("life: surface minimized")
		return
	}
	s.width, s.height = width, height
	s.overlay.SetWindow(width, height)
	s.surfaceConfigured = true
	s.surfaceStale = true
}

// PointerMoved tracks the pointer, moves the cursor highlight and paints
// while the button is held.
func (s *Simulation) PointerMoved(x, y float64) {
	s.pointerX, s.pointerY = x, y
	s.pointerInside = true
	s.updateHover()
	if s.pointerPressed {
		s.overlay.RecordPoint(x, y)
	}
}

// PointerButton records a press or release. A press paints the cell under
// the pointer.
func (s *Simulation) PointerButton(pressed bool) {
	s.pointerPressed = pressed
	if pressed && s.pointerInside {
		s.overlay.RecordPoint(s.pointerX, s.pointerY)
	}
}

// PointerEntered records the pointer entering or leaving the window.
// Leaving removes the cursor highlight.
func (s *Simulation) PointerEntered(inside bool) {
	s.pointerInside = inside
	if !inside {
		s.pointerPressed = false
	}
	s.updateHover()
}

func (s *Simulation) updateHover() {
	hover := uint32(grid.NoHover)
	if s.pointerInside {
		if row, col, ok := s.overlay.CellAt(s.pointerX, s.pointerY); ok {
			hover = s.Grid().Index(uint32(row), uint32(col)) //nolint:gosec // CellAt bounds row and col
		}
	}
	if hover == s.hover {
		return
	}
	s.hover = hover
	if s.ready {
		s.pipeline.SetHover(hover)
	}
}

// Redraw renders the current state to surf and presents it. It reports
// whether a frame was presented.
//
// Nothing is drawn before the pipeline is ready or while the surface is
// unconfigured. A lost or outdated surface is reconfigured at the current
// size and the frame retried on the next redraw; other surface errors skip
// the frame. Errors are logged, never returned.
func (s *Simulation) Redraw(surf Surface) bool {
	if !s.ready || !s.surfaceConfigured {
		return false
	}
	if s.surfaceStale {
		if err := surf.Configure(s.width, s.height); err != nil {
			Logger().Warn("life: surface configure failed", "err", err)
			return false
		}
		s.surfaceStale = false
		Logger().Info("life: surface configured", "width", s.width, "height", s.height)
	}

	frame, err := surf.Acquire()
	if err != nil {
		s.surfaceError(surf, err)
		return false
	}
	target := backend.Target{View: frame.View, Width: frame.Width, Height: frame.Height}
	if err := s.pipeline.Render(target); err != nil {
		Logger().Warn("life: render failed", "err", err)
		return false
	}
	if frame.Present != nil {
		if err := frame.Present(); err != nil {
			s.surfaceError(surf, err)
			return false
		}
	}
	return true
}

func (s *Simulation) surfaceError(surf Surface, err error) {
	if errors.Is(err, backend.ErrSurfaceLost) || errors.Is(err, backend.ErrSurfaceOutdated) {
		Logger().Warn("life: surface needs reconfigure", "err", err)
		if cerr := surf.Configure(s.width, s.height); cerr != nil {
			Logger().Warn("life: surface reconfigure failed", "err", cerr)
			s.surfaceStale = true
		}
		return
	}
	Logger().Warn("life: frame skipped", "err", err)
}
