package tui

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/droidview/internal/config"
	"github.com/jask/droidview/internal/frame"
	"github.com/jask/droidview/internal/pointer"
)

func solidImage(w, h int, c color.Color) *frame.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return frame.NewImage(img, "png")
}

func TestSurfaceWidthFit(t *testing.T) {
	s := NewSurface(config.FitWidth)
	s.SetViewport(80, 20)
	s.Resize(0.5) // portrait, 1:2

	require.Equal(t, pointer.Size{W: 80, H: 160}, s.Size())
	cols, rows := s.Cells()
	require.Equal(t, 80, cols)
	require.Equal(t, 20, rows, "rows are clipped to the viewport")
}

func TestSurfaceContainFit(t *testing.T) {
	s := NewSurface(config.FitContain)
	s.SetViewport(80, 20)
	s.Resize(0.5)

	require.Equal(t, pointer.Size{W: 20, H: 40}, s.Size())
	cols, rows := s.Cells()
	require.Equal(t, 20, cols)
	require.Equal(t, 20, rows)
}

func TestSurfaceRejectsBadAspect(t *testing.T) {
	s := NewSurface(config.FitWidth)
	s.SetViewport(40, 40)
	s.Resize(0)
	require.Equal(t, 1.0, s.Aspect())
	require.Equal(t, pointer.Size{W: 40, H: 40}, s.Size())
}

func TestSurfacePaint(t *testing.T) {
	s := NewSurface(config.FitWidth)
	s.SetViewport(40, 30)
	require.False(t, s.Painted())
	require.Contains(t, s.View(), "waiting for frame")

	img := solidImage(160, 120, color.RGBA{R: 255, A: 255})
	s.Resize(img.Aspect())
	s.Paint(img)

	require.True(t, s.Painted())
	require.Equal(t, pointer.Size{W: 160, H: 120}, s.FrameSize())
	lines := strings.Split(s.View(), "\n")
	require.Len(t, lines, 15)
	require.Contains(t, lines[0], halfBlock)

	s.Resize(2)
	require.False(t, s.Painted(), "resize clears the surface")
}

func TestSurfacePaintWithoutViewport(t *testing.T) {
	s := NewSurface(config.FitWidth)
	s.Paint(solidImage(4, 4, color.White))
	require.False(t, s.Painted())
}

func TestSurfacePointAt(t *testing.T) {
	s := NewSurface(config.FitWidth)
	s.SetViewport(40, 30)
	s.Resize(4.0 / 3.0) // 40 x 30 px, 15 rows

	p, ok := s.PointAt(0, 0)
	require.True(t, ok)
	require.Equal(t, pointer.Point{X: 0.5, Y: 1}, p)

	p, ok = s.PointAt(10, 4)
	require.True(t, ok)
	require.Equal(t, pointer.Point{X: 10.5, Y: 9}, p)

	for _, c := range [][2]int{{-1, 0}, {0, -1}, {40, 0}, {0, 15}} {
		_, ok := s.PointAt(c[0], c[1])
		require.False(t, ok, "cell %v", c)
	}
}
