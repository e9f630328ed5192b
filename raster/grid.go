package raster

// Grid is a row-major boolean image of a block: row 0 is the earliest step.
//
// Grids returned by a Rasterizer may be shared through its cache and must
// not be modified.
type Grid struct {
	Width  int
	Height int
	Cells  []bool
}

func newGrid(w, h int) *Grid {
	return &Grid{Width: w, Height: h, Cells: make([]bool, w*h)}
}

// At returns the cell in column x of row y.
func (g *Grid) At(x, y int) bool {
	return g.Cells[y*g.Width+x]
}

// Row returns row y. The slice aliases the grid.
func (g *Grid) Row(y int) []bool {
	return g.Cells[y*g.Width : (y+1)*g.Width]
}

func (g *Grid) blit(src *Grid, x0, y0 int) {
	for y := 0; y < src.Height; y++ {
		copy(g.Cells[(y0+y)*g.Width+x0:], src.Row(y))
	}
}
