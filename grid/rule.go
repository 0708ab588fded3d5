package grid

// LiveNeighbors counts live cells among the eight neighbours of (row, col).
// Without wrap, cells outside the grid count as dead.
func LiveNeighbors(cells []uint32, g Grid, row, col int, wrap bool) int {
	rows, cols := int(g.Rows), int(g.Cols)
	n := 0
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r, c := row+dr, col+dc
			if wrap {
				r = (r + rows) % rows
				c = (c + cols) % cols
			} else if r < 0 || c < 0 || r >= rows || c >= cols {
				continue
			}
			if cells[r*cols+c] != 0 {
				n++
			}
		}
	}
	return n
}

// Next applies B3/S23 to a single cell.
func Next(alive bool, neighbors int) uint32 {
	if neighbors == 3 || (alive && neighbors == 2) {
		return 1
	}
	return 0
}

// Step writes the successor of cur into next. It reads only cur and writes
// every element of next exactly once. The slices must not alias.
func Step(cur, next []uint32, g Grid, wrap bool) {
	StepRows(cur, next, g, wrap, 0, int(g.Rows))
}

// StepRows is Step restricted to rows [from, to). Disjoint row ranges may
// run concurrently on the same buffers.
func StepRows(cur, next []uint32, g Grid, wrap bool, from, to int) {
	cols := int(g.Cols)
	for row := from; row < to; row++ {
		for col := 0; col < cols; col++ {
			i := row*cols + col
			next[i] = Next(cur[i] != 0, LiveNeighbors(cur, g, row, col, wrap))
		}
	}
}

// Population counts live cells.
func Population(cells []uint32) int {
	n := 0
	for _, c := range cells {
		if c != 0 {
			n++
		}
	}
	return n
}
