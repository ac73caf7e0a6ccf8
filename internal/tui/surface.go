package tui

import (
	"image"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"

	"github.com/jask/droidview/internal/config"
	"github.com/jask/droidview/internal/frame"
	"github.com/jask/droidview/internal/pointer"
)

// halfBlock draws two vertically stacked pixels in one cell: the foreground
// colour is the top pixel and the background the bottom one.
const halfBlock = "▀"

// Surface renders frames into the terminal. One cell is one surface pixel
// wide and two tall, so a surface of W x H pixels occupies W columns and
// H/2 rows.
type Surface struct {
	fit string

	// viewport in cells
	cols, rows int

	aspect float64
	width  int // pixels
	height int // pixels

	frameW, frameH int
	lines          []string
	painted        bool
}

// NewSurface returns an empty surface. fit is config.FitWidth or
// config.FitContain.
func NewSurface(fit string) *Surface {
	return &Surface{fit: fit, aspect: 1}
}

// SetViewport sets the cell area available to the surface and re-derives its
// size from the current aspect ratio.
func (s *Surface) SetViewport(cols, rows int) {
	s.cols, s.rows = max(cols, 0), max(rows, 0)
	s.Resize(s.aspect)
}

// Resize fixes the width to the viewport and derives the height from aspect.
// In contain mode the surface shrinks until it also fits the viewport height.
// The surface is cleared.
func (s *Surface) Resize(aspect float64) {
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		aspect = 1
	}
	s.aspect = aspect
	s.width = s.cols
	s.height = int(math.Round(float64(s.width) / aspect))
	if s.fit == config.FitContain && s.height > s.rows*2 {
		s.height = s.rows * 2
		s.width = int(math.Round(float64(s.height) * aspect))
	}
	s.lines = nil
	s.painted = false
}

// Paint scales img onto the surface and renders it to cells. Nothing of img
// is retained.
func (s *Surface) Paint(img *frame.Image) {
	if img == nil || img.Pixels() == nil || s.width <= 0 || s.height <= 0 {
		return
	}
	s.frameW, s.frameH = img.Width, img.Height

	dst := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	src := img.Pixels()
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	visible := min((s.height+1)/2, s.rows)
	lines := make([]string, 0, visible)
	for row := 0; row < visible; row++ {
		lines = append(lines, renderRow(dst, row*2))
	}
	s.lines = lines
	s.painted = true
}

// renderRow renders the pixel rows y and y+1 as one line of half blocks,
// merging runs of identical cells into one styled span.
func renderRow(img *image.RGBA, y int) string {
	var b strings.Builder
	w := img.Bounds().Dx()
	var run strings.Builder
	prevTop, prevBottom := "", ""
	flush := func() {
		if run.Len() == 0 {
			return
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(prevTop)).Background(lipgloss.Color(prevBottom))
		b.WriteString(style.Render(run.String()))
		run.Reset()
	}
	for x := 0; x < w; x++ {
		top := hexAt(img, x, y)
		bottom := top
		if y+1 < img.Bounds().Dy() {
			bottom = hexAt(img, x, y+1)
		}
		if top != prevTop || bottom != prevBottom {
			flush()
			prevTop, prevBottom = top, bottom
		}
		run.WriteString(halfBlock)
	}
	flush()
	return b.String()
}

func hexAt(img *image.RGBA, x, y int) string {
	c, ok := colorful.MakeColor(img.RGBAAt(x, y))
	if !ok {
		return string(colorBase)
	}
	return c.Hex()
}

// View returns the rendered surface, or a placeholder before the first frame.
func (s *Surface) View() string {
	if !s.painted {
		return s.placeholder()
	}
	return strings.Join(s.lines, "\n")
}

func (s *Surface) placeholder() string {
	rows := min(max((s.height+1)/2, 1), max(s.rows, 1))
	width := max(s.width, 1)
	line := strings.Repeat(" ", width)
	lines := make([]string, rows)
	for i := range lines {
		lines[i] = placeholderStyle.Render(line)
	}
	if rows > 0 && width > 12 {
		msg := truncate("waiting for frame", width)
		lines[rows/2] = placeholderStyle.Render(padRight(strings.Repeat(" ", max((width-lipgloss.Width(msg))/2, 0))+msg, width))
	}
	return strings.Join(lines, "\n")
}

// Size is the surface size in pixels.
func (s *Surface) Size() pointer.Size {
	return pointer.Size{W: float64(s.width), H: float64(s.height)}
}

// Cells is the area the surface occupies, clipped to the viewport.
func (s *Surface) Cells() (cols, rows int) {
	return s.width, min((s.height+1)/2, s.rows)
}

// FrameSize is the native size of the last painted frame.
func (s *Surface) FrameSize() pointer.Size {
	return pointer.Size{W: float64(s.frameW), H: float64(s.frameH)}
}

// Painted reports whether a frame is on screen.
func (s *Surface) Painted() bool { return s.painted }

// Aspect is the ratio the surface was last sized for.
func (s *Surface) Aspect() float64 { return s.aspect }

// PointAt maps a cell relative to the surface's top-left corner to the
// surface pixel at the centre of that cell's half block pair. ok is false
// outside the visible surface.
func (s *Surface) PointAt(col, row int) (p pointer.Point, ok bool) {
	cols, rows := s.Cells()
	if col < 0 || row < 0 || col >= cols || row >= rows {
		return pointer.Point{}, false
	}
	return pointer.Point{X: float64(col) + 0.5, Y: float64(row)*2 + 1}, true
}
