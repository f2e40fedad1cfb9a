// Package grid provides a generic row-major 2D grid and a 2x2
// neighborhood traversal used by the error-diffusion code.
package grid

import "fmt"

// BadSizeError reports grid dimensions below the minimum a caller
// requires.
type BadSizeError struct {
	Width  int
	Height int
}

func (e *BadSizeError) Error() string {
	return fmt.Sprintf("grid: invalid size %dx%d", e.Width, e.Height)
}

// Grid is a dense row-major 2D array of T.
type Grid[T any] struct {
	width  int
	height int
	cells  []T
}

// New allocates a zero-valued grid. Both dimensions must be at least 1.
func New[T any](width, height int) (*Grid[T], error) {
	if width < 1 || height < 1 {
		return nil, &BadSizeError{Width: width, Height: height}
	}
	return &Grid[T]{
		width:  width,
		height: height,
		cells:  make([]T, width*height),
	}, nil
}

// NewFromFunc allocates a grid and fills every cell from fill(x, y).
func NewFromFunc[T any](width, height int, fill func(x, y int) T) (*Grid[T], error) {
	g, err := New[T](width, height)
	if err != nil {
		return nil, err
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g.cells[y*width+x] = fill(x, y)
		}
	}
	return g, nil
}

// Width returns the number of columns.
func (g *Grid[T]) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid[T]) Height() int { return g.height }

// At returns the value at column x, row y. Coordinates are 0-based with
// the origin at the top-left.
func (g *Grid[T]) At(x, y int) T { return g.cells[y*g.width+x] }

// Set stores v at column x, row y.
func (g *Grid[T]) Set(x, y int, v T) { g.cells[y*g.width+x] = v }

// Row returns the backing slice for row y. The slice is live: writes
// through it mutate the grid.
func (g *Grid[T]) Row(y int) []T {
	start := y * g.width
	return g.cells[start : start+g.width]
}

// Kernel2x2 exposes four logically adjacent cells: the current cell (TL)
// and its right, below and diagonal neighbors. On the last column or row
// the out-of-range slots point at scratch cells, so writing through them
// is always safe and never corrupts a border cell.
//
// The four pointers never alias the same grid cell: they are derived from
// four distinct (x, y) index pairs, with boundary slots redirected to
// per-traversal scratch storage.
type Kernel2x2[T any] struct {
	TL *T // current cell
	TR *T // right neighbor, or scratch on the last column
	BL *T // below neighbor, or scratch on the last row
	BR *T // diagonal neighbor, or scratch on the last column or row
}

// ForEachKernel visits every cell exactly once as the top-left corner of
// a 2x2 window, in row-major order (top-to-bottom, left-to-right).
//
// The traversal is strictly sequential and the order is load-bearing:
// step functions may write to the TR/BL/BR slots, and those same cells
// are revisited as TL of later steps. Do not parallelize.
//
// Grids smaller than 2x2 are rejected with *BadSizeError rather than
// silently visiting nothing.
func (g *Grid[T]) ForEachKernel(fn func(x, y int, k Kernel2x2[T])) error {
	if g.width < 2 || g.height < 2 {
		return &BadSizeError{Width: g.width, Height: g.height}
	}

	// Writes to these land nowhere, matching the edge policy: the error
	// pushed past the border is discarded, not wrapped.
	var scratchTR, scratchBL, scratchBR T

	for y := 0; y < g.height; y++ {
		lastRow := y == g.height-1
		rowBase := y * g.width

		for x := 0; x < g.width; x++ {
			lastCol := x == g.width-1

			k := Kernel2x2[T]{TL: &g.cells[rowBase+x]}

			if lastCol {
				k.TR = &scratchTR
			} else {
				k.TR = &g.cells[rowBase+x+1]
			}
			if lastRow {
				k.BL = &scratchBL
			} else {
				k.BL = &g.cells[rowBase+g.width+x]
			}
			if lastRow || lastCol {
				k.BR = &scratchBR
			} else {
				k.BR = &g.cells[rowBase+g.width+x+1]
			}

			fn(x, y, k)
		}
	}
	return nil
}
