package cli

import "strings"

const (
	liveGlyph = '#'
	deadGlyph = '.'
)

func renderCells(cells []bool) string {
	var b strings.Builder
	b.Grow(len(cells))
	for _, c := range cells {
		if c {
			b.WriteByte(liveGlyph)
		} else {
			b.WriteByte(deadGlyph)
		}
	}
	return b.String()
}

func renderRows(rows [][]bool) string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = renderCells(row)
	}
	return strings.Join(lines, "\n")
}
