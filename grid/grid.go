// Package grid holds the CPU-side description of the cell grid: dimensions,
// compute dispatch sizing, the per-cell geometry table, the fixed-layout
// uniform blocks shared by the compute and render stages, and a reference
// implementation of the life rule.
//
// Cells are stored row-major. Row 0 is the bottom row in normalized device
// coordinates, so a window's top-left pixel maps to row Rows-1.
package grid

import (
	"errors"
	"fmt"
)

// WorkgroupSize is the edge length of the square compute workgroup tile.
// It must match @workgroup_size in the life compute shader.
const WorkgroupSize = 16

// Size limits. A dimension may need at most 65535 workgroups, the minimum
// per-dimension dispatch limit, and one state buffer must fit the default
// 128 MiB storage binding.
const (
	MaxDimension = 65535 * WorkgroupSize
	MaxCells     = 128 << 20 / 4
)

var (
	// ErrEmptyGrid is returned when a grid has zero rows or columns.
	ErrEmptyGrid = errors.New("grid: rows and cols must be at least 1")

	// ErrGridTooLarge is returned when a grid exceeds MaxDimension or
	// MaxCells.
	ErrGridTooLarge = errors.New("grid: too large")
)

// Grid is the immutable size of the automaton for one configuration.
type Grid struct {
	Rows uint32
	Cols uint32
}

// New returns a validated grid.
func New(rows, cols uint32) (Grid, error) {
	g := Grid{Rows: rows, Cols: cols}
	if err := g.Validate(); err != nil {
		return Grid{}, err
	}
	return g, nil
}

// Validate reports whether the grid has at least one cell and fits the
// size limits.
func (g Grid) Validate() error {
	if g.Rows == 0 || g.Cols == 0 {
		return fmt.Errorf("%w: got %dx%d", ErrEmptyGrid, g.Rows, g.Cols)
	}
	if g.Rows > MaxDimension || g.Cols > MaxDimension {
		return fmt.Errorf("%w: %dx%d exceeds %d per side", ErrGridTooLarge, g.Rows, g.Cols, MaxDimension)
	}
	if uint64(g.Rows)*uint64(g.Cols) > MaxCells {
		return fmt.Errorf("%w: %dx%d exceeds %d cells", ErrGridTooLarge, g.Rows, g.Cols, MaxCells)
	}
	return nil
}

// Cells returns the total number of cells.
func (g Grid) Cells() int {
	return int(g.Rows) * int(g.Cols)
}

// Contains reports whether (row, col) lies inside the grid.
func (g Grid) Contains(row, col int) bool {
	return row >= 0 && col >= 0 && row < int(g.Rows) && col < int(g.Cols)
}

// Index returns the linear buffer index of (row, col).
// The caller must ensure the cell is inside the grid.
func (g Grid) Index(row, col uint32) uint32 {
	return row*g.Cols + col
}

// Coords is the inverse of Index.
func (g Grid) Coords(index uint32) (row, col uint32) {
	return index / g.Cols, index % g.Cols
}

// DispatchDims returns the number of workgroups needed along x (columns) and
// y (rows) so that every cell is covered by exactly one invocation.
func (g Grid) DispatchDims() [2]uint32 {
	return [2]uint32{
		ceilDiv(g.Cols, WorkgroupSize),
		ceilDiv(g.Rows, WorkgroupSize),
	}
}

// StateBytes is the size in bytes of one cell-state buffer.
func (g Grid) StateBytes() uint64 {
	return uint64(g.Cells()) * 4
}

// String implements fmt.Stringer.
func (g Grid) String() string {
	return fmt.Sprintf("%dx%d", g.Rows, g.Cols)
}

func ceilDiv(n, d uint32) uint32 {
	q := n / d
	if n%d != 0 {
		q++
	}
	return q
}
