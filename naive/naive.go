// Package naive simulates an elementary cellular automaton cell by cell.
//
// It costs O(t * (width + t)) per query and exists as a reference for the
// memoized space-time algebra, not as a production path.
package naive

import "github.com/jonwraymond/ecaspace/slice"

// InitialFunc returns the t = 0 state of cell x.
type InitialFunc func(x int64) bool

// Step advances cells by one step. The two edge cells lack a full
// neighborhood, so the result is two cells narrower.
func Step(rule slice.Rule, cells []bool) []bool {
	if len(cells) < 3 {
		return nil
	}
	out := make([]bool, len(cells)-2)
	for i := range out {
		out[i] = rule.Apply(cells[i], cells[i+1], cells[i+2])
	}
	return out
}

// Window returns cells [x, x+width) at time t. It reads the light cone
// [x-t, x+width+t) of the initial row and steps it t times.
func Window(rule slice.Rule, initial InitialFunc, x, t int64, width int) []bool {
	if width <= 0 || t < 0 {
		return []bool{}
	}
	cells := make([]bool, int64(width)+2*t)
	for i := range cells {
		cells[i] = initial(x - t + int64(i))
	}
	for step := int64(0); step < t; step++ {
		cells = Step(rule, cells)
	}
	return cells
}

// Region returns rows t0..t0+height-1 of cells [x, x+width).
func Region(rule slice.Rule, initial InitialFunc, x, t0 int64, width, height int) [][]bool {
	rows := make([][]bool, height)
	for y := range rows {
		rows[y] = Window(rule, initial, x, t0+int64(y), width)
	}
	return rows
}
