package life

import (
	"math"

	"github.com/gogpu/life/grid"
)

// PaintOverlay collects cells painted with the pointer between flushes.
//
// Window pixels map to cells by integer division with divisors derived
// from the window and grid sizes. Pixel row 0 is the top of the window and
// grid row 0 is the bottom, so rows are flipped.
type PaintOverlay struct {
	grid    grid.Grid
	cells   []uint32
	divX    int
	divY    int
	pending int
}

// NewPaintOverlay returns an overlay sized for g with no window yet.
func NewPaintOverlay(g grid.Grid) *PaintOverlay {
	o := &PaintOverlay{}
	o.Configure(g, 0, 0)
	return o
}

// Configure resizes the overlay for g and a width x height window. Any
// pending points are dropped.
func (o *PaintOverlay) Configure(g grid.Grid, width, height int) {
	o.grid = g
	o.cells = make([]uint32, g.Cells())
	o.pending = 0
	o.SetWindow(width, height)
}

// SetWindow recomputes the pixel divisors after a window resize. A window
// smaller than the grid yields a zero divisor and disables painting.
func (o *PaintOverlay) SetWindow(width, height int) {
	o.divX, o.divY = 0, 0
	if width > 0 && o.grid.Cols > 0 {
		o.divX = width / int(o.grid.Cols)
	}
	if height > 0 && o.grid.Rows > 0 {
		o.divY = height / int(o.grid.Rows)
	}
}

// CellAt maps a window position to a grid cell. Positions outside the
// painted area, including non-finite ones, are rejected.
func (o *PaintOverlay) CellAt(x, y float64) (row, col int, ok bool) {
	if o.divX <= 0 || o.divY <= 0 {
		return 0, 0, false
	}
	x, y = math.Round(x), math.Round(y)
	// Bounds are checked in float space so the int conversion cannot wrap.
	w := float64(o.divX) * float64(o.grid.Cols)
	h := float64(o.divY) * float64(o.grid.Rows)
	if !(x >= 0 && x < w && y >= 0 && y < h) {
		return 0, 0, false
	}
	col = int(x) / o.divX
	fromTop := int(y) / o.divY
	rows := int(o.grid.Rows)
	if col < 0 || fromTop < 0 || col >= int(o.grid.Cols) || fromTop >= rows {
		return 0, 0, false
	}
	return rows - 1 - fromTop, col, true
}

// RecordPoint marks the cell under (x, y) alive in the overlay. It reports
// false, and changes nothing, when the point is outside the grid.
func (o *PaintOverlay) RecordPoint(x, y float64) bool {
	row, col, ok := o.CellAt(x, y)
	if !ok {
		return false
	}
	o.cells[row*int(o.grid.Cols)+col] = 1
	o.pending++
	return true
}

// Pending reports whether points were recorded since the last flush.
func (o *PaintOverlay) Pending() bool {
	return o.pending > 0
}

// Flush hands the overlay to merge and clears it. It is a no-op when
// nothing is pending. On a merge error the points are kept for the next
// flush.
func (o *PaintOverlay) Flush(merge func([]uint32) error) error {
	if o.pending == 0 {
		return nil
	}
	if err := merge(o.cells); err != nil {
		return err
	}
	clear(o.cells)
	o.pending = 0
	return nil
}

// Cells returns the overlay contents. The slice is owned by the overlay.
func (o *PaintOverlay) Cells() []uint32 {
	return o.cells
}

// Divisors returns the pixel-per-cell divisors.
func (o *PaintOverlay) Divisors() (x, y int) {
	return o.divX, o.divY
}
