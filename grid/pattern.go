package grid

import "math/rand/v2"

// Cell addresses one grid position.
type Cell struct {
	Row, Col int
}

// Pattern is a set of live cells relative to an origin.
type Pattern []Cell

// Glider travels one cell towards +row and +col every four generations.
var Glider = Pattern{
	{Row: 0, Col: 1},
	{Row: 1, Col: 2},
	{Row: 2, Col: 0},
	{Row: 2, Col: 1},
	{Row: 2, Col: 2},
}

// Translate returns p shifted by (dr, dc).
func (p Pattern) Translate(dr, dc int) Pattern {
	out := make(Pattern, len(p))
	for i, c := range p {
		out[i] = Cell{Row: c.Row + dr, Col: c.Col + dc}
	}
	return out
}

// Place marks the pattern alive at (row, col). Cells falling outside the
// grid are skipped.
func Place(cells []uint32, g Grid, p Pattern, row, col int) {
	for _, c := range p {
		r, cc := row+c.Row, col+c.Col
		if !g.Contains(r, cc) {
			continue
		}
		cells[r*int(g.Cols)+cc] = 1
	}
}

// Random returns n cells, each alive with probability threshold.
func Random(rng *rand.Rand, n int, threshold float64) []uint32 {
	cells := make([]uint32, n)
	for i := range cells {
		if rng.Float64() < threshold {
			cells[i] = 1
		}
	}
	return cells
}
