package life

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/life/backend"
	"github.com/gogpu/life/config"
	"github.com/gogpu/life/grid"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.t = c.t.Add(d)
	return c.t
}

func testConfig(rows, cols uint32) *config.Config {
	cfg := config.Default()
	cfg.Rows, cfg.Cols = rows, cols
	cfg.FPS = 10
	cfg.PaintFPS = 50
	return cfg
}

func newTestSim(t *testing.T, cfg *config.Config, opts ...Option) (*Simulation, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: epoch}
	base := []Option{
		WithBackend(backend.NameSoftware),
		WithClock(clk.Now),
		WithRand(rand.New(rand.NewPCG(1, 2))),
	}
	s, err := New(cfg, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s, clk
}

func snapshot(t *testing.T, s *Simulation) []uint32 {
	t.Helper()
	cells, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	return cells
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(testConfig(4, 4), WithBackend("nope"))
	if !errors.Is(err, ErrNoBackend) {
		t.Errorf("New() error = %v, want ErrNoBackend", err)
	}
}

func TestNewRejectsEmptyGrid(t *testing.T) {
	_, err := New(testConfig(0, 4), WithBackend(backend.NameSoftware))
	if !errors.Is(err, config.ErrInvalid) {
		t.Errorf("New() error = %v, want config.ErrInvalid", err)
	}
}

func TestNewStartsDead(t *testing.T) {
	s, _ := newTestSim(t, testConfig(8, 8))
	if !s.Ready() || s.Paused() || s.Generation() != 0 {
		t.Fatalf("ready=%v paused=%v gen=%d", s.Ready(), s.Paused(), s.Generation())
	}
	if n := grid.Population(snapshot(t, s)); n != 0 {
		t.Errorf("initial population = %d, want 0", n)
	}
}

func TestSimulationGlider(t *testing.T) {
	s, _ := newTestSim(t, testConfig(12, 12))
	g := s.Grid()
	cells := make([]uint32, g.Cells())
	grid.Place(cells, g, grid.Glider, 2, 3)
	if err := s.Pipeline().WriteState(cells); err != nil {
		t.Fatal(err)
	}

	s.PlayPause()
	for range 4 {
		if !s.StepForward() {
			t.Fatal("StepForward() = false while paused")
		}
	}

	want := make([]uint32, g.Cells())
	grid.Place(want, g, grid.Glider.Translate(1, 1), 2, 3)
	got := snapshot(t, s)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cell %d = %d, want %d", i, got[i], want[i])
		}
	}
	if s.Generation() != 4 {
		t.Errorf("Generation() = %d, want 4", s.Generation())
	}
}

func TestTickStepsAtFrameInterval(t *testing.T) {
	s, _ := newTestSim(t, testConfig(4, 4))

	redraw, err := s.Tick(epoch.Add(50 * time.Millisecond))
	if err != nil || redraw || s.Generation() != 0 {
		t.Fatalf("Tick(50ms) = %v, %v; gen %d", redraw, err, s.Generation())
	}
	redraw, err = s.Tick(epoch.Add(100 * time.Millisecond))
	if err != nil || !redraw || s.Generation() != 1 {
		t.Fatalf("Tick(100ms) = %v, %v; gen %d", redraw, err, s.Generation())
	}
}

func TestTickPausedDoesNotStep(t *testing.T) {
	s, _ := newTestSim(t, testConfig(4, 4))
	s.PlayPause()
	if _, err := s.Tick(epoch.Add(time.Second)); err != nil {
		t.Fatal(err)
	}
	if s.Generation() != 0 {
		t.Errorf("Generation() = %d while paused", s.Generation())
	}
}

func TestStepForwardLeavesTimers(t *testing.T) {
	s, _ := newTestSim(t, testConfig(4, 4))
	if s.StepForward() {
		t.Error("StepForward() stepped while running")
	}

	s.PlayPause()
	nextSim, nextPaint := s.sched.nextSim, s.sched.nextPaint
	s.StepForward()
	if !s.sched.nextSim.Equal(nextSim) || !s.sched.nextPaint.Equal(nextPaint) {
		t.Error("StepForward() moved scheduler deadlines")
	}
	if s.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", s.Generation())
	}
}

func TestUpdateFPSClamps(t *testing.T) {
	s, _ := newTestSim(t, testConfig(4, 4))
	tests := []struct{ in, want int }{
		{0, 1}, {-3, 1}, {1, 1}, {30, 30}, {60, 60}, {61, 60}, {1000, 60},
	}
	for _, tt := range tests {
		if got := s.UpdateFPS(tt.in); got != tt.want || s.FPS() != tt.want {
			t.Errorf("UpdateFPS(%d) = %d (FPS %d), want %d", tt.in, got, s.FPS(), tt.want)
		}
	}
}

func TestUpdateFPSRecomputesDeadline(t *testing.T) {
	s, clk := newTestSim(t, testConfig(4, 4))
	now := clk.Advance(30 * time.Millisecond)
	s.UpdateFPS(50)

	if s.sched.SimInterval() != 20*time.Millisecond {
		t.Fatalf("SimInterval() = %v", s.sched.SimInterval())
	}
	s.Tick(now.Add(19 * time.Millisecond))
	if s.Generation() != 0 {
		t.Error("stepped before new interval")
	}
	s.Tick(now.Add(20 * time.Millisecond))
	if s.Generation() != 1 {
		t.Error("no step after new interval")
	}
}

func TestRandomiseAndReset(t *testing.T) {
	cfg := testConfig(6, 6)
	cfg.InitRandThreshold = 1
	s, _ := newTestSim(t, cfg)
	s.PlayPause()
	s.StepForward()

	s.Randomise()
	if n := grid.Population(snapshot(t, s)); n != 36 {
		t.Errorf("population after Randomise = %d, want 36", n)
	}
	if s.Generation() != 0 {
		t.Errorf("Randomise kept generation %d", s.Generation())
	}

	s.Reset()
	if n := grid.Population(snapshot(t, s)); n != 0 {
		t.Errorf("population after Reset = %d, want 0", n)
	}
}

func TestPaintRoundTrip(t *testing.T) {
	s, _ := newTestSim(t, testConfig(10, 10))
	s.PlayPause()
	s.Resize(100, 100)

	s.PointerMoved(15, 5)
	s.PointerButton(true)
	s.PointerMoved(150, 5) // outside, ignored
	s.PointerButton(false)

	if got := snapshot(t, s); got[91] != 0 {
		t.Fatal("paint merged before the paint interval")
	}
	redraw, err := s.Tick(epoch.Add(20 * time.Millisecond))
	if err != nil || !redraw {
		t.Fatalf("Tick() = %v, %v", redraw, err)
	}

	got := snapshot(t, s)
	if got[91] != 1 || grid.Population(got) != 1 {
		t.Errorf("after paint population=%d cell91=%d, want only cell 91", grid.Population(got), got[91])
	}
	if s.Overlay().Pending() {
		t.Error("overlay still pending after flush")
	}

	// Merged into both buffers, so the step sees it and it dies alone.
	s.StepForward()
	if grid.Population(snapshot(t, s)) != 0 {
		t.Error("lone painted cell should die after one step")
	}
}

func TestPaintOutOfBoundsIsNoop(t *testing.T) {
	s, _ := newTestSim(t, testConfig(10, 10))
	s.Resize(100, 100)
	s.PointerMoved(100, 100)
	s.PointerButton(true)
	if s.Overlay().Pending() {
		t.Error("point outside the grid was recorded")
	}
	if s.hover != grid.NoHover {
		t.Errorf("hover = %d outside the grid", s.hover)
	}
}

func TestHoverFollowsPointer(t *testing.T) {
	s, _ := newTestSim(t, testConfig(10, 10))
	s.Resize(100, 100)
	s.PointerMoved(15, 5)
	if s.hover != 91 {
		t.Errorf("hover = %d, want 91", s.hover)
	}
	s.PointerEntered(false)
	if s.hover != grid.NoHover {
		t.Errorf("hover = %d after leaving", s.hover)
	}
}

// flakySurface fails Acquire with the queued errors before delegating.
type flakySurface struct {
	*ImageSurface
	errs       []error
	configures int
	acquires   int
}

func (f *flakySurface) Configure(w, h int) error {
	f.configures++
	return f.ImageSurface.Configure(w, h)
}

func (f *flakySurface) Acquire() (Frame, error) {
	f.acquires++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return Frame{}, err
	}
	return f.ImageSurface.Acquire()
}

func TestRedrawZeroSizeDisablesRendering(t *testing.T) {
	s, _ := newTestSim(t, testConfig(4, 4))
	surf := &flakySurface{ImageSurface: NewImageSurface()}

	if s.Redraw(surf) {
		t.Error("Redraw() before any resize")
	}
	s.Resize(40, 40)
	s.Resize(0, 0)
	if s.SurfaceConfigured() || s.Redraw(surf) {
		t.Error("Redraw() after zero-size resize")
	}
	if surf.acquires != 0 {
		t.Errorf("Acquire called %d times while unconfigured", surf.acquires)
	}

	s.Resize(40, 40)
	if !s.Redraw(surf) {
		t.Error("Redraw() failed after positive resize")
	}
	if surf.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", surf.Frames())
	}
}

func TestRedrawSurfaceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		configures int
	}{
		{"lost reconfigures", backend.ErrSurfaceLost, 2},
		{"outdated reconfigures", backend.ErrSurfaceOutdated, 2},
		{"timeout skips", backend.ErrSurfaceTimeout, 1},
		{"other skips", errors.New("device hiccup"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestSim(t, testConfig(4, 4))
			s.Resize(40, 40)
			surf := &flakySurface{ImageSurface: NewImageSurface(), errs: []error{tt.err}}

			if s.Redraw(surf) {
				t.Fatal("Redraw() succeeded on failing acquire")
			}
			if surf.configures != tt.configures {
				t.Errorf("configures = %d, want %d", surf.configures, tt.configures)
			}
			if !s.Redraw(surf) {
				t.Error("next Redraw() did not recover")
			}
		})
	}
}

func TestRedrawRendersCells(t *testing.T) {
	s, _ := newTestSim(t, testConfig(4, 4))
	g := s.Grid()
	cells := make([]uint32, g.Cells())
	cells[g.Index(0, 0)] = 1
	if err := s.Pipeline().WriteState(cells); err != nil {
		t.Fatal(err)
	}
	s.Resize(40, 40)
	surf := NewImageSurface()
	if !s.Redraw(surf) {
		t.Fatal("Redraw() = false")
	}

	alive := s.Config().AliveColor.Color()
	bg := s.Config().BackgroundColor.Color()
	if got := surf.Image().RGBAAt(5, 35); got != alive {
		t.Errorf("bottom-left pixel = %v, want alive %v", got, alive)
	}
	if got := surf.Image().RGBAAt(35, 5); got != bg {
		t.Errorf("top-right pixel = %v, want background %v", got, bg)
	}
}

func TestApplyConfig(t *testing.T) {
	s, _ := newTestSim(t, testConfig(4, 4))
	s.Resize(40, 40)
	s.Randomise()
	s.PlayPause()
	s.StepForward()

	recolor := testConfig(4, 4)
	recolor.AliveColor = config.RGBA{1, 2, 3, 255}
	before := snapshot(t, s)
	if err := s.ApplyConfig(recolor); err != nil {
		t.Fatal(err)
	}
	if s.Generation() != 1 || !equalCells(before, snapshot(t, s)) {
		t.Error("colour change disturbed the state")
	}

	bigger := testConfig(8, 5)
	bigger.FPS = 30
	if err := s.ApplyConfig(bigger); err != nil {
		t.Fatal(err)
	}
	if got := snapshot(t, s); len(got) != 40 || grid.Population(got) != 0 {
		t.Errorf("after resize len=%d population=%d", len(got), grid.Population(got))
	}
	if s.Generation() != 0 || s.FPS() != 30 {
		t.Errorf("gen=%d fps=%d", s.Generation(), s.FPS())
	}
	if x, y := s.Overlay().Divisors(); x != 8 || y != 5 {
		t.Errorf("overlay divisors = %d, %d, want 8, 5", x, y)
	}

	if err := s.ApplyConfig(testConfig(0, 3)); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("ApplyConfig(empty) = %v", err)
	}
}

func equalCells(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestControlsAppliedOnTick(t *testing.T) {
	cfg := testConfig(4, 4)
	cfg.InitRandThreshold = 1
	s, _ := newTestSim(t, cfg)
	c := s.Controls()

	c.PlayPause()
	c.Randomise()
	c.UpdateFPS(99)
	redraw, err := s.Tick(epoch)
	if err != nil || !redraw {
		t.Fatalf("Tick() = %v, %v", redraw, err)
	}
	if !s.Paused() || s.FPS() != 60 || grid.Population(snapshot(t, s)) != 16 {
		t.Errorf("paused=%v fps=%d", s.Paused(), s.FPS())
	}

	c.StepForward()
	c.Reset()
	s.Tick(epoch)
	if s.Generation() != 0 || grid.Population(snapshot(t, s)) != 0 {
		t.Errorf("after step+reset gen=%d", s.Generation())
	}
}

func TestKeyBindings(t *testing.T) {
	s, _ := newTestSim(t, testConfig(4, 4))

	if s.Key(KeyEscape, true) != ActionExit {
		t.Error("Escape should exit")
	}
	if s.Key(KeySpace, false) != ActionNone || s.Paused() {
		t.Error("key release acted")
	}
	s.Key(KeySpace, true)
	if !s.Paused() {
		t.Error("Space did not pause")
	}
	if s.Key(KeyRight, true) != ActionRedraw || s.Generation() != 1 {
		t.Error("Right did not step")
	}
	if s.Key(KeyN, true) != ActionRedraw || s.Generation() != 2 {
		t.Error("N did not step")
	}
	s.Key(KeyUp, true)
	if s.FPS() != 15 {
		t.Errorf("FPS after Up = %d, want 15", s.FPS())
	}
	for range 5 {
		s.Key(KeyDown, true)
	}
	if s.FPS() != 1 {
		t.Errorf("FPS after Down = %d, want 1", s.FPS())
	}
	if s.Key(KeyC, true) != ActionRedraw || s.Generation() != 0 {
		t.Error("C did not reset")
	}
}

type failingPipeline struct {
	*backend.SoftwareBackend
	err error
}

func (p *failingPipeline) Init(backend.Params) error { return p.err }

// brokenReconfigure fails every Reconfigure. With lose set it also drops
// its resources, like a GPU pipeline that could not restore the old grid.
type brokenReconfigure struct {
	*backend.SoftwareBackend
	lose bool
}

var errNoMemory = errors.New("out of memory")

func (p *brokenReconfigure) Reconfigure(backend.Params) error {
	if p.lose {
		p.SoftwareBackend.Close()
		return fmt.Errorf("%w: %w", backend.ErrPipelineLost, errNoMemory)
	}
	return errNoMemory
}

func TestApplyConfigReconfigureFailureKeepsRunning(t *testing.T) {
	p := &brokenReconfigure{SoftwareBackend: backend.NewSoftwareBackend()}
	s, clock := newTestSim(t, testConfig(4, 4), WithPipeline(p))

	if !s.Controls().ApplyConfig(testConfig(8, 8)) {
		t.Fatal("ApplyConfig not queued")
	}
	if _, err := s.Tick(clock.Now()); err != nil {
		t.Fatalf("Tick() error = %v, want nil", err)
	}
	if !s.Ready() || s.Grid() != (grid.Grid{Rows: 4, Cols: 4}) {
		t.Errorf("ready=%v grid=%v, want ready on the old 4x4 grid", s.Ready(), s.Grid())
	}
	clock.Advance(100 * time.Millisecond)
	if _, err := s.Tick(clock.Now()); err != nil || s.Generation() != 1 {
		t.Errorf("Tick() after failed reconfigure: err=%v generation=%d", err, s.Generation())
	}
}

func TestApplyConfigLostPipelineIsFatal(t *testing.T) {
	p := &brokenReconfigure{SoftwareBackend: backend.NewSoftwareBackend(), lose: true}
	s, clock := newTestSim(t, testConfig(4, 4), WithPipeline(p))

	s.Controls().ApplyConfig(testConfig(8, 8))
	_, err := s.Tick(clock.Now())
	if !errors.Is(err, backend.ErrPipelineLost) || !errors.Is(err, errNoMemory) {
		t.Fatalf("Tick() error = %v, want ErrPipelineLost", err)
	}
	if s.Ready() {
		t.Error("simulation still ready with a lost pipeline")
	}
	if _, err := s.Snapshot(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Snapshot() error = %v, want ErrNotReady", err)
	}
}

// gatedPipeline blocks Init until gate is closed and records Close.
type gatedPipeline struct {
	*backend.SoftwareBackend
	gate   chan struct{}
	closed atomic.Bool
}

func newGatedPipeline() *gatedPipeline {
	return &gatedPipeline{SoftwareBackend: backend.NewSoftwareBackend(), gate: make(chan struct{})}
}

func (p *gatedPipeline) Init(params backend.Params) error {
	<-p.gate
	return p.SoftwareBackend.Init(params)
}

func (p *gatedPipeline) Close() {
	p.closed.Store(true)
	p.SoftwareBackend.Close()
}

func waitClosed(t *testing.T, p *gatedPipeline) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !p.closed.Load() {
		if time.Now().After(deadline) {
			t.Fatal("pipeline never closed")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestCloseDuringAsyncInit(t *testing.T) {
	p := newGatedPipeline()
	s, err := New(testConfig(4, 4), WithPipeline(p), WithAsyncInit())
	if err != nil {
		t.Fatal(err)
	}
	s.Close()
	if p.closed.Load() {
		t.Fatal("pipeline closed before Init returned")
	}

	close(p.gate)
	waitClosed(t, p)
}

func TestCloseWithQueuedDeviceReady(t *testing.T) {
	p := newGatedPipeline()
	s, err := New(testConfig(4, 4), WithPipeline(p), WithAsyncInit())
	if err != nil {
		t.Fatal(err)
	}
	close(p.gate)

	deadline := time.Now().Add(5 * time.Second)
	for len(s.controls.ch) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("setup result never queued")
		}
		time.Sleep(time.Millisecond)
	}
	s.Close()
	if !p.closed.Load() {
		t.Error("queued pipeline not closed by Close")
	}
}

func TestAsyncInit(t *testing.T) {
	s, _ := newTestSim(t, testConfig(4, 4), WithAsyncInit(), WithPipeline(backend.NewSoftwareBackend()))
	if _, err := s.Snapshot(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Snapshot() before ready = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !s.Ready() {
		if time.Now().After(deadline) {
			t.Fatal("pipeline never became ready")
		}
		if _, err := s.Tick(epoch); err != nil {
			t.Fatal(err)
		}
		time.Sleep(time.Millisecond)
	}
	if n := grid.Population(snapshot(t, s)); n != 0 {
		t.Errorf("population = %d", n)
	}
}

func TestAsyncInitFailure(t *testing.T) {
	boom := errors.New("no adapter")
	p := &failingPipeline{SoftwareBackend: backend.NewSoftwareBackend(), err: boom}
	s, err := New(testConfig(4, 4), WithPipeline(p), WithAsyncInit())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	deadline := time.Now().Add(5 * time.Second)
	for {
		_, err := s.Tick(time.Now())
		if errors.Is(err, boom) {
			break
		}
		if err != nil {
			t.Fatalf("Tick() error = %v, want %v", err, boom)
		}
		if time.Now().After(deadline) {
			t.Fatal("init failure never surfaced")
		}
		time.Sleep(time.Millisecond)
	}
	if s.Ready() {
		t.Error("Ready() after failed init")
	}
}

func TestSyncInitFailure(t *testing.T) {
	boom := errors.New("no adapter")
	p := &failingPipeline{SoftwareBackend: backend.NewSoftwareBackend(), err: boom}
	if _, err := New(testConfig(4, 4), WithPipeline(p)); !errors.Is(err, boom) {
		t.Errorf("New() error = %v, want %v", err, boom)
	}
}
