//go:build !nogpu

package gpu

import (
	"errors"
	"image/color"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/life/backend"
	"github.com/gogpu/life/grid"
)

// createNoopDevice opens a device on the noop HAL backend.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

var testColors = backend.Colors{
	Background: color.RGBA{A: 255},
	Alive:      color.RGBA{R: 255, G: 255, B: 255, A: 255},
	Cursor:     color.RGBA{R: 255, A: 255},
}

func newNoopBackend(t *testing.T, g grid.Grid) *Backend {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	return initBackend(t, device, queue, g)
}

func initBackend(t *testing.T, device hal.Device, queue hal.Queue, g grid.Grid) *Backend {
	t.Helper()
	b := NewBackend()
	err := b.Init(backend.Params{
		Grid:     g,
		GapRatio: 0.1,
		Device:   &SharedDevice{Device: device, Queue: queue},
		Colors:   testColors,
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(b.Close)
	return b
}

var errBufferTooLarge = errors.New("buffer too large")

// limitedDevice fails buffer creation above maxBuffer bytes.
type limitedDevice struct {
	hal.Device
	maxBuffer uint64
}

func (d *limitedDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	if desc.Size > d.maxBuffer {
		return nil, errBufferTooLarge
	}
	return d.Device.CreateBuffer(desc)
}

func TestBackendName(t *testing.T) {
	if got := NewBackend().Name(); got != backend.NameWGPU {
		t.Errorf("Name() = %q, want %q", got, backend.NameWGPU)
	}
}

func TestBackendInitAllocatesStages(t *testing.T) {
	b := newNoopBackend(t, grid.Grid{Rows: 20, Cols: 30})

	if b.state == nil || b.compute == nil || b.paint == nil || b.render == nil {
		t.Fatal("expected every stage to be allocated")
	}
	if b.state.size != 20*30*4 {
		t.Errorf("state size = %d, want %d", b.state.size, 20*30*4)
	}
	if b.compute.dims != [2]uint32{2, 2} {
		t.Errorf("dispatch dims = %v, want [2 2]", b.compute.dims)
	}
	if b.paint.groups != 10 {
		t.Errorf("paint workgroups = %d, want 10", b.paint.groups)
	}
	if b.compute.fromA == nil || b.compute.fromB == nil {
		t.Error("expected both compute bind groups")
	}
	if b.render.groupA == nil || b.render.groupB == nil {
		t.Error("expected both render bind groups")
	}
	if !b.ACurrent() {
		t.Error("A should be current after Init")
	}
}

func TestBackendInitRejectsEmptyGrid(t *testing.T) {
	b := NewBackend()
	if err := b.Init(backend.Params{}); !errors.Is(err, grid.ErrEmptyGrid) {
		t.Errorf("Init(empty) error = %v, want ErrEmptyGrid", err)
	}
}

func TestBackendInitRejectsBadProvider(t *testing.T) {
	b := NewBackend()
	err := b.Init(backend.Params{Grid: grid.Grid{Rows: 2, Cols: 2}, Device: "no device"})
	if !errors.Is(err, ErrBadProvider) {
		t.Errorf("Init error = %v, want ErrBadProvider", err)
	}
}

func TestBackendStepFlipsFlag(t *testing.T) {
	b := newNoopBackend(t, grid.Grid{Rows: 8, Cols: 8})

	for i := range 4 {
		before := b.ACurrent()
		if err := b.Step(); err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
		if b.ACurrent() == before {
			t.Errorf("step %d did not flip the current flag", i)
		}
	}
	if !b.ACurrent() {
		t.Error("four steps should return to A")
	}
}

func TestBackendStepDoesNotRebuildBindGroups(t *testing.T) {
	b := newNoopBackend(t, grid.Grid{Rows: 8, Cols: 8})
	fromA, fromB := b.compute.fromA, b.compute.fromB

	_ = b.Step()
	_ = b.Step()
	if b.compute.fromA != fromA || b.compute.fromB != fromB {
		t.Error("Step recreated compute bind groups")
	}
}

func TestBackendSizeMismatch(t *testing.T) {
	b := newNoopBackend(t, grid.Grid{Rows: 4, Cols: 4})

	if err := b.WriteState(make([]uint32, 15)); !errors.Is(err, backend.ErrSizeMismatch) {
		t.Errorf("WriteState error = %v, want ErrSizeMismatch", err)
	}
	if err := b.MergePaint(make([]uint32, 17)); !errors.Is(err, backend.ErrSizeMismatch) {
		t.Errorf("MergePaint error = %v, want ErrSizeMismatch", err)
	}
}

func TestBackendWriteAndMerge(t *testing.T) {
	g := grid.Grid{Rows: 4, Cols: 4}
	b := newNoopBackend(t, g)

	cells := make([]uint32, g.Cells())
	cells[5] = 1
	if err := b.WriteState(cells); err != nil {
		t.Fatalf("WriteState failed: %v", err)
	}
	if err := b.MergePaint(cells); err != nil {
		t.Fatalf("MergePaint failed: %v", err)
	}
	if !b.ACurrent() {
		t.Error("MergePaint must not change the current flag")
	}
}

func TestBackendRender(t *testing.T) {
	b := newNoopBackend(t, grid.Grid{Rows: 4, Cols: 4})
	device := b.dev.device

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "test_target",
		Size:          hal.Extent3D{Width: 64, Height: 64, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}
	defer device.DestroyTexture(tex)
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: "test_target_view"})
	if err != nil {
		t.Fatalf("CreateTextureView failed: %v", err)
	}
	defer device.DestroyTextureView(view)

	if err := b.Render(backend.Target{View: view, Width: 64, Height: 64}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if err := b.Render(backend.Target{View: 42}); !errors.Is(err, backend.ErrUnsupportedTarget) {
		t.Errorf("Render(int) error = %v, want ErrUnsupportedTarget", err)
	}
}

func TestBackendHoverAndColors(t *testing.T) {
	b := newNoopBackend(t, grid.Grid{Rows: 4, Cols: 4})

	b.SetHover(7)
	if b.render.block.Hover != 7 {
		t.Errorf("hover = %d, want 7", b.render.block.Hover)
	}
	b.SetHover(grid.NoHover)
	if b.render.block.Hover != grid.NoHover {
		t.Errorf("hover = %d, want NoHover", b.render.block.Hover)
	}

	b.SetColors(backend.Colors{Alive: color.RGBA{G: 255, A: 255}, Background: color.RGBA{B: 255, A: 255}})
	if b.render.block.AliveColor != [4]float32{0, 1, 0, 1} {
		t.Errorf("alive colour = %v", b.render.block.AliveColor)
	}
	if b.render.clear.B != 1 {
		t.Errorf("clear colour = %+v, want blue", b.render.clear)
	}
}

func TestBackendReconfigure(t *testing.T) {
	b := newNoopBackend(t, grid.Grid{Rows: 4, Cols: 4})
	_ = b.Step()

	if err := b.Reconfigure(backend.Params{Grid: grid.Grid{Rows: 40, Cols: 50}, Wrap: true}); err != nil {
		t.Fatalf("Reconfigure failed: %v", err)
	}
	if b.state.size != 40*50*4 {
		t.Errorf("state size = %d, want %d", b.state.size, 40*50*4)
	}
	if !b.ACurrent() {
		t.Error("A should be current after Reconfigure")
	}
	if err := b.WriteState(make([]uint32, 2000)); err != nil {
		t.Errorf("WriteState after Reconfigure failed: %v", err)
	}
}

func TestBackendReconfigureFailureRestoresGrid(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	limited := &limitedDevice{Device: device, maxBuffer: 1024}
	old := grid.Grid{Rows: 4, Cols: 4}
	b := initBackend(t, limited, queue, old)

	err := b.Reconfigure(backend.Params{Grid: grid.Grid{Rows: 40, Cols: 50}, Colors: testColors})
	if !errors.Is(err, errBufferTooLarge) {
		t.Fatalf("Reconfigure error = %v, want errBufferTooLarge", err)
	}
	if errors.Is(err, backend.ErrPipelineLost) {
		t.Fatal("pipeline reported lost although the old grid fits")
	}
	if b.params.Grid != old || b.state.size != 4*4*4 {
		t.Errorf("grid = %v, state size = %d, want %v and %d", b.params.Grid, b.state.size, old, 4*4*4)
	}
	if err := b.Step(); err != nil {
		t.Errorf("Step after restore failed: %v", err)
	}
	if err := b.WriteState(make([]uint32, old.Cells())); err != nil {
		t.Errorf("WriteState after restore failed: %v", err)
	}
}

func TestBackendReconfigureLostReleasesDevice(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	limited := &limitedDevice{Device: device, maxBuffer: 1024}
	b := initBackend(t, limited, queue, grid.Grid{Rows: 4, Cols: 4})

	limited.maxBuffer = 0
	err := b.Reconfigure(backend.Params{Grid: grid.Grid{Rows: 40, Cols: 50}, Colors: testColors})
	if !errors.Is(err, backend.ErrPipelineLost) {
		t.Fatalf("Reconfigure error = %v, want ErrPipelineLost", err)
	}
	if b.initialized || b.sub != nil || b.dev != nil || b.state != nil {
		t.Error("lost pipeline kept resources")
	}
	if err := b.Step(); !errors.Is(err, backend.ErrNotInitialized) {
		t.Errorf("Step after loss = %v, want ErrNotInitialized", err)
	}
	b.Close()
}

func TestBackendReadState(t *testing.T) {
	g := grid.Grid{Rows: 4, Cols: 4}
	b := newNoopBackend(t, g)
	_ = b.Step()

	cells, err := b.ReadState()
	if err != nil {
		t.Skipf("noop device does not support readback: %v", err)
	}
	if len(cells) != g.Cells() {
		t.Errorf("ReadState len = %d, want %d", len(cells), g.Cells())
	}
}

func TestBackendNotInitialized(t *testing.T) {
	b := NewBackend()
	if err := b.Step(); !errors.Is(err, backend.ErrNotInitialized) {
		t.Errorf("Step error = %v, want ErrNotInitialized", err)
	}
	if err := b.Reconfigure(backend.Params{Grid: grid.Grid{Rows: 1, Cols: 1}}); !errors.Is(err, backend.ErrNotInitialized) {
		t.Errorf("Reconfigure error = %v, want ErrNotInitialized", err)
	}
	b.Close() // must be safe
}

func TestCloseLeavesSharedDevice(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	b := NewBackend()
	if err := b.Init(backend.Params{Grid: grid.Grid{Rows: 2, Cols: 2}, Device: &SharedDevice{Device: device, Queue: queue}}); err != nil {
		t.Fatal(err)
	}
	b.Close()

	// The shared device must still be usable.
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{Label: "after_close", Size: 16, Usage: gputypes.BufferUsageStorage})
	if err != nil {
		t.Fatalf("device unusable after Close: %v", err)
	}
	device.DestroyBuffer(buf)
}

func TestValidateShaders(t *testing.T) {
	if err := validateShaders(map[string]string{"life": ""}); !errors.Is(err, ErrEmptyShader) {
		t.Errorf("empty source error = %v, want ErrEmptyShader", err)
	}

	err := validateShaders(map[string]string{"broken": "fn main( {"})
	if err == nil {
		t.Fatal("malformed WGSL accepted")
	}
	if !strings.Contains(err.Error(), "compile broken shader") {
		t.Errorf("error = %q, want it to name the broken shader", err)
	}
}

func TestCellVertexLayout(t *testing.T) {
	layout := cellVertexLayout()
	if len(layout) != 2 {
		t.Fatalf("expected 2 vertex streams, got %d", len(layout))
	}
	if layout[0].StepMode != gputypes.VertexStepModeVertex || layout[1].StepMode != gputypes.VertexStepModeInstance {
		t.Error("stream 0 must step per vertex and stream 1 per instance")
	}
	if layout[1].Attributes[0].ShaderLocation != 1 {
		t.Errorf("instance location = %d, want 1", layout[1].Attributes[0].ShaderLocation)
	}
}

func TestShaderCompilation(t *testing.T) {
	for name, src := range ShaderSources() {
		t.Run(name, func(t *testing.T) {
			if src == "" {
				t.Fatal("shader source is empty")
			}
			spirv, err := naga.Compile(src)
			if err != nil {
				if strings.Contains(err.Error(), "not yet implemented") || strings.Contains(err.Error(), "not supported") {
					t.Skipf("Skipping: naga feature not yet implemented: %v", err)
				}
				t.Fatalf("failed to compile %s shader: %v", name, err)
			}
			if len(spirv) < 4 {
				t.Fatal("SPIR-V too short")
			}
			magic := uint32(spirv[0]) | uint32(spirv[1])<<8 | uint32(spirv[2])<<16 | uint32(spirv[3])<<24
			if magic != 0x07230203 {
				t.Errorf("SPIR-V magic = %#x, want 0x07230203", magic)
			}
		})
	}
}

func TestLifeShaderWorkgroupMatchesGrid(t *testing.T) {
	want := "@workgroup_size(16, 16)"
	if grid.WorkgroupSize != 16 || !strings.Contains(lifeShaderSource, want) {
		t.Errorf("life shader must declare %s to match grid.WorkgroupSize", want)
	}
}

func TestSubmitterReclaims(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	dev := &deviceHandle{device: device, queue: queue, external: true}
	s, err := newSubmitter(dev)
	if err != nil {
		t.Fatal(err)
	}
	defer s.destroy()

	for range 3 {
		if err := s.submit("test", func(hal.CommandEncoder) {}); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}
	if err := s.wait(); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d after wait, want 0", s.Pending())
	}
}
