package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// canvas is the frame area below the status bar: a fixed grid of cells
// that the surface, the floating panel and the help box are painted onto
// in turn. Every row always spans exactly width cells.
type canvas struct {
	width int
	rows  []string
}

func newCanvas(width, height int) *canvas {
	c := &canvas{width: max(width, 0), rows: make([]string, max(height, 0))}
	blank := strings.Repeat(" ", c.width)
	for i := range c.rows {
		c.rows[i] = blank
	}
	return c
}

// paint draws block with its top-left cell at (x, y). The block is opaque
// over its bounding box and is clipped on every side, so a panel dragged
// partly off the frame shows only its visible part.
func (c *canvas) paint(block string, x, y int) {
	lines := splitLines(block)
	bw := maxLineWidth(lines)
	if x >= c.width || x+bw <= 0 {
		return
	}
	for i, line := range lines {
		r := y + i
		if r < 0 {
			continue
		}
		if r >= len(c.rows) {
			break
		}
		c.rows[r] = c.spliceRow(c.rows[r], padRight(line, bw), x)
	}
}

// spliceRow replaces the cells of row starting at x with seg.
func (c *canvas) spliceRow(row, seg string, x int) string {
	if x < 0 {
		seg = ansi.TruncateLeft(seg, -x, "")
		x = 0
	}
	seg = ansi.Truncate(seg, c.width-x, "")
	end := x + ansi.StringWidth(seg)
	left := padRight(ansi.Truncate(row, x, ""), x)
	right := ansi.TruncateLeft(row, end, "")
	return ansi.Truncate(padRight(left+seg+right, c.width), c.width, "")
}

func (c *canvas) String() string { return strings.Join(c.rows, "\n") }

// splitLines splits a string on newlines, returning at least one element.
func splitLines(s string) []string {
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, "\n")
}

func maxLineWidth(lines []string) int {
	m := 0
	for _, line := range lines {
		m = max(m, ansi.StringWidth(line))
	}
	return m
}

// padRight pads s with spaces so its visual width equals width.
func padRight(s string, width int) string {
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// truncate shortens s to width cells, appending an ellipsis if truncated.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}
