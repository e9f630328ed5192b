package naive

import (
	"testing"

	"github.com/jonwraymond/ecaspace/slice"
)

func single(x int64) bool { return x == 0 }

func TestStep_Rule90(t *testing.T) {
	got := Step(slice.Rule(90), []bool{false, false, true, false, false})
	want := []bool{true, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Step = %v, want %v", got, want)
		}
	}
}

func TestStep_TooNarrow(t *testing.T) {
	if got := Step(slice.Rule(90), []bool{true, true}); got != nil {
		t.Errorf("Step on 2 cells = %v, want nil", got)
	}
}

func TestWindow_Rule90Sierpinski(t *testing.T) {
	// Rule 90 from a single cell: row t has cells at x = -t, -t+2, ..., t
	// given by Pascal's triangle mod 2.
	rule := slice.Rule(90)
	tests := []struct {
		t    int64
		want string
	}{
		{0, "....#...."},
		{1, "...#.#..."},
		{2, "..#...#.."},
		{3, ".#.#.#.#."},
		{4, "#.......#"},
	}
	for _, tc := range tests {
		row := Window(rule, single, -4, tc.t, 9)
		got := make([]byte, len(row))
		for i, c := range row {
			got[i] = '.'
			if c {
				got[i] = '#'
			}
		}
		if string(got) != tc.want {
			t.Errorf("t=%d: got %s, want %s", tc.t, got, tc.want)
		}
	}
}

func TestWindow_Empty(t *testing.T) {
	if got := Window(slice.Rule(30), single, 0, 3, 0); len(got) != 0 {
		t.Errorf("zero width window = %v", got)
	}
}

func TestRegion_Shape(t *testing.T) {
	rows := Region(slice.Rule(30), single, -3, 0, 7, 4)
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	for i, row := range rows {
		if len(row) != 7 {
			t.Errorf("row %d has %d cells, want 7", i, len(row))
		}
	}
	if !rows[0][3] {
		t.Error("initial center cell should be set")
	}
}
