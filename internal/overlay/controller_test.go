package overlay

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/droidview/internal/pointer"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newPanel(t *testing.T, opts ...Option) (*Controller, *pointer.Document) {
	t.Helper()
	doc := pointer.NewDocument()
	base := []Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), WithPadding(2)}
	c := New(doc, append(base, opts...)...)
	c.SetViewport(pointer.Size{W: 100, H: 40})
	c.SetPanelSize(pointer.Size{W: 30, H: 10})
	return c, doc
}

func ev(kind pointer.Kind, at time.Duration, x, y float64) *pointer.Event {
	return &pointer.Event{Kind: kind, Device: pointer.Mouse, Pos: pointer.Point{X: x, Y: y}, At: t0.Add(at)}
}

func TestQuickReleaseTogglesOnce(t *testing.T) {
	c, doc := newPanel(t)
	require.False(t, c.Open())
	require.True(t, c.PanelClasses().Has(ClassClosed))

	p := ev(pointer.Press, 0, 3, 3)
	c.Press(p)
	require.True(t, p.Stopped())
	require.True(t, c.Dragging())
	require.Equal(t, 2, doc.Len())

	doc.Dispatch(ev(pointer.Release, 249*time.Millisecond, 3, 3))
	require.True(t, c.Open())
	require.False(t, c.PanelClasses().Has(ClassClosed))
	require.True(t, c.OpenIconClasses().Has(ClassHidden))
	require.False(t, c.CloseIconClasses().Has(ClassHidden))
	require.False(t, c.Dragging())
	require.Equal(t, 0, doc.Len())

	c.Press(ev(pointer.Press, time.Second, 3, 3))
	doc.Dispatch(ev(pointer.Release, time.Second+10*time.Millisecond, 3, 3))
	require.False(t, c.Open())
	require.Equal(t, "closed panel", c.PanelClasses().String())
}

func TestLongStationaryPressDoesNotToggle(t *testing.T) {
	c, doc := newPanel(t)
	start := c.Position()

	c.Press(ev(pointer.Press, 0, 3, 3))
	doc.Dispatch(ev(pointer.Release, 250*time.Millisecond, 3, 3))
	require.False(t, c.Open())
	require.Equal(t, start, c.Position())
	require.Equal(t, 0, doc.Len())
}

func TestDragMovesByAnchorOffset(t *testing.T) {
	c, doc := newPanel(t)
	c.MoveTo(pointer.Point{X: 10, Y: 5})

	c.Press(ev(pointer.Press, 0, 14, 6))
	doc.Dispatch(ev(pointer.Move, 100*time.Millisecond, 34, 16))
	require.Equal(t, pointer.Point{X: 30, Y: 15}, c.Position())

	doc.Dispatch(ev(pointer.Release, time.Second, 34, 16))
	require.Equal(t, pointer.Point{X: 30, Y: 15}, c.Position())
	require.False(t, c.Open())

	// listeners are gone: further moves do nothing
	doc.Dispatch(ev(pointer.Move, 2*time.Second, 80, 30))
	require.Equal(t, pointer.Point{X: 30, Y: 15}, c.Position())
}

func TestClampHoldsAtEveryMove(t *testing.T) {
	c, doc := newPanel(t)
	c.Press(ev(pointer.Press, 0, 2, 2))

	moves := []pointer.Point{{X: -50, Y: -50}, {X: 500, Y: 3}, {X: 50, Y: 500}, {X: 71, Y: 29}, {X: 0, Y: 0}}
	for i, m := range moves {
		doc.Dispatch(ev(pointer.Move, time.Duration(i)*time.Millisecond, m.X, m.Y))
		p := c.Position()
		require.GreaterOrEqual(t, p.X, 2.0)
		require.LessOrEqual(t, p.X, 100.0-30-2)
		require.GreaterOrEqual(t, p.Y, 2.0)
		require.LessOrEqual(t, p.Y, 40.0-10-2)
	}
	doc.Dispatch(ev(pointer.Release, time.Second, 0, 0))
	require.Equal(t, pointer.Point{X: 2, Y: 2}, c.Position())
}

func TestPanelLargerThanViewportPinsToPadding(t *testing.T) {
	c, _ := newPanel(t)
	c.SetPanelSize(pointer.Size{W: 200, H: 80})
	c.MoveTo(pointer.Point{X: 40, Y: 40})
	require.Equal(t, pointer.Point{X: 2, Y: 2}, c.Position())
}

func TestViewportShrinkReclamps(t *testing.T) {
	c, _ := newPanel(t)
	c.MoveTo(pointer.Point{X: 68, Y: 28})
	c.SetViewport(pointer.Size{W: 50, H: 20})
	require.Equal(t, pointer.Point{X: 18, Y: 8}, c.Position())
}

func TestRepeatedDragsDoNotLeakListeners(t *testing.T) {
	c, doc := newPanel(t)
	for i := 0; i < 5; i++ {
		at := time.Duration(i) * time.Second
		c.Press(ev(pointer.Press, at, 3, 3))
		require.Equal(t, 2, doc.Len())
		doc.Dispatch(ev(pointer.Move, at+10*time.Millisecond, 4, 4))
		doc.Dispatch(ev(pointer.Release, at+500*time.Millisecond, 4, 4))
		require.Equal(t, 0, doc.Len())
	}
	require.False(t, c.Open())
}

func TestPressDuringDragReplacesListeners(t *testing.T) {
	c, doc := newPanel(t)
	c.Press(ev(pointer.Press, 0, 3, 3))
	c.Press(ev(pointer.Press, time.Millisecond, 3, 3))
	require.Equal(t, 2, doc.Len())
	c.Close()
	require.Equal(t, 0, doc.Len())
	require.False(t, c.Dragging())
}

func TestContains(t *testing.T) {
	c, _ := newPanel(t)
	c.MoveTo(pointer.Point{X: 10, Y: 10})
	require.True(t, c.Contains(pointer.Point{X: 10, Y: 10}))
	require.True(t, c.Contains(pointer.Point{X: 39.5, Y: 19.5}))
	require.False(t, c.Contains(pointer.Point{X: 40, Y: 10}))
	require.False(t, c.Contains(pointer.Point{X: 9, Y: 12}))
}

func TestToggleIsPure(t *testing.T) {
	orig := Classes("panel", ClassClosed)
	next := Toggle(orig, ClassOpen)
	require.True(t, next.Has(ClassOpen))
	require.False(t, orig.Has(ClassOpen))

	back := Toggle(next, ClassOpen)
	require.Equal(t, orig, back)

	require.Equal(t, Classes("panel"), With(orig, ClassClosed, false))
	require.True(t, orig.Has(ClassClosed))
}
