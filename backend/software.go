package backend

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/gogpu/life/grid"
	"github.com/gogpu/life/internal/parallel"
)

// ParallelThreshold is the cell count from which Step splits the grid into
// row bands on a worker pool.
const ParallelThreshold = 128 * 128

// SoftwareBackend runs the automaton and rasterises the cell instances on
// the CPU. It shares the geometry table, rule and buffer protocol with the
// GPU backend and renders into any draw.Image.
type SoftwareBackend struct {
	params    Params
	layout    grid.Layout
	instances []grid.Instance
	state     *DoubleBuffer[[]uint32]
	hover     uint32
	colors    Colors
	pool      *parallel.WorkerPool
	bands     []parallel.Band
}

// init registers the software backend on package import.
func init() {
	Register(NameSoftware, func() Pipeline {
		return NewSoftwareBackend()
	})
}

// NewSoftwareBackend creates a new software backend.
func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{hover: grid.NoHover}
}

// Name returns the backend identifier.
func (b *SoftwareBackend) Name() string {
	return NameSoftware
}

// Init allocates both state buffers and the instance table.
func (b *SoftwareBackend) Init(p Params) error {
	if err := p.Grid.Validate(); err != nil {
		return err
	}
	n := p.Grid.Cells()
	b.params = p
	b.layout = p.Layout()
	b.instances = grid.Instances(p.Grid, b.layout)
	b.state = NewDoubleBuffer(make([]uint32, n), make([]uint32, n))
	b.colors = p.Colors
	b.hover = grid.NoHover
	if n >= ParallelThreshold {
		b.pool = parallel.NewWorkerPool(0)
		b.bands = parallel.Bands(int(p.Grid.Rows), b.pool.Workers()*2)
	}
	return nil
}

// Reconfigure reallocates for new parameters. Invalid parameters leave
// the current state in place.
func (b *SoftwareBackend) Reconfigure(p Params) error {
	if err := p.Grid.Validate(); err != nil {
		return err
	}
	b.Close()
	return b.Init(p)
}

// Close releases the buffers.
func (b *SoftwareBackend) Close() {
	b.state = nil
	b.instances = nil
	if b.pool != nil {
		b.pool.Close()
		b.pool = nil
		b.bands = nil
	}
}

// WriteState copies cells into both buffers.
func (b *SoftwareBackend) WriteState(cells []uint32) error {
	if err := b.check(len(cells)); err != nil {
		return err
	}
	for _, buf := range b.state.Both() {
		copy(buf, cells)
	}
	return nil
}

// MergePaint ORs paint into both buffers.
func (b *SoftwareBackend) MergePaint(paint []uint32) error {
	if err := b.check(len(paint)); err != nil {
		return err
	}
	for _, buf := range b.state.Both() {
		for i, p := range paint {
			buf[i] |= p
		}
	}
	return nil
}

// Step computes the next generation into the next buffer and swaps roles.
func (b *SoftwareBackend) Step() error {
	if !b.state.Allocated() {
		return ErrNotInitialized
	}
	cur, next := b.state.Current(), b.state.Next()
	g, wrap := b.params.Grid, b.params.Wrap
	if b.pool == nil {
		grid.Step(cur, next, g, wrap)
	} else {
		work := make([]func(), len(b.bands))
		for i, band := range b.bands {
			work[i] = func() { grid.StepRows(cur, next, g, wrap, band.From, band.To) }
		}
		b.pool.ExecuteAll(work)
	}
	b.state.Swap()
	return nil
}

// Render clears t to the background colour and fills every live cell quad.
func (b *SoftwareBackend) Render(t Target) error {
	if !b.state.Allocated() {
		return ErrNotInitialized
	}
	img, ok := t.View.(draw.Image)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedTarget, t.View)
	}
	bounds := img.Bounds()
	draw.Draw(img, bounds, image.NewUniform(b.colors.Background), image.Point{}, draw.Src)

	alive := image.NewUniform(b.colors.Alive)
	cursor := image.NewUniform(b.colors.Cursor)
	cur := b.state.Current()
	for i, in := range b.instances {
		src := alive
		switch {
		case uint32(i) == b.hover:
			src = cursor
		case cur[i] == 0:
			continue
		}
		r := quadRect(in, b.layout.CellSize, bounds)
		draw.Draw(img, r, src, image.Point{}, draw.Src)
	}
	return nil
}

// quadRect maps a cell quad from NDC to pixel space, flipping y.
func quadRect(in grid.Instance, size float32, bounds image.Rectangle) image.Rectangle {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	half := float64(size) / 2
	cx, cy := float64(in.Position[0]), float64(in.Position[1])
	x0 := int(math.Round((cx - half + 1) / 2 * w))
	x1 := int(math.Round((cx + half + 1) / 2 * w))
	y0 := int(math.Round((1 - (cy + half)) / 2 * h))
	y1 := int(math.Round((1 - (cy - half)) / 2 * h))
	return image.Rect(x0, y0, x1, y1).Add(bounds.Min).Intersect(bounds)
}

// ReadState returns a copy of the current buffer.
func (b *SoftwareBackend) ReadState() ([]uint32, error) {
	if !b.state.Allocated() {
		return nil, ErrNotInitialized
	}
	return append([]uint32(nil), b.state.Current()...), nil
}

// ACurrent reports whether buffer A is current.
func (b *SoftwareBackend) ACurrent() bool {
	return b.state.ACurrent()
}

// SetHover sets the highlighted cell.
func (b *SoftwareBackend) SetHover(index uint32) {
	b.hover = index
}

// SetColors updates the palette.
func (b *SoftwareBackend) SetColors(c Colors) {
	b.colors = c
}

func (b *SoftwareBackend) check(n int) error {
	if !b.state.Allocated() {
		return ErrNotInitialized
	}
	if n != b.params.Grid.Cells() {
		return fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, n, b.params.Grid.Cells())
	}
	return nil
}
