// Package overlay holds the state of the floating control panel: where it
// sits, whether it is open, and the drag in progress.
package overlay

import (
	"log/slog"
	"time"

	"github.com/jask/droidview/internal/pointer"
)

// DefaultClickThreshold is the longest press on the handle that still
// counts as a click.
const DefaultClickThreshold = 250 * time.Millisecond

// Class names used on the panel and its two icons.
const (
	ClassOpen   = "open"
	ClassClosed = "closed"
	ClassHidden = "hidden"
)

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option { return func(c *Controller) { c.log = l } }

func WithClickThreshold(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.clickThreshold = d
		}
	}
}

// WithPadding sets the minimum gap between the panel and the viewport edge.
func WithPadding(p float64) Option {
	return func(c *Controller) {
		if p >= 0 {
			c.padding = p
		}
	}
}

func WithClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

// Controller owns the panel state. It is driven by pointer events on the
// panel's handle; move and release are received through the document
// registry while a drag is active, so a drag keeps working once the pointer
// leaves the handle.
type Controller struct {
	doc *pointer.Document
	log *slog.Logger
	now func() time.Time

	clickThreshold time.Duration
	padding        float64

	viewport pointer.Size
	size     pointer.Size
	pos      pointer.Point

	panel     ClassSet
	openIcon  ClassSet // shown while closed
	closeIcon ClassSet // shown while open

	dragging  bool
	anchor    pointer.Point
	pressedAt time.Time
	moveID    pointer.ListenerID
	releaseID pointer.ListenerID
}

// New returns a closed panel at the top-left padding corner.
func New(doc *pointer.Document, opts ...Option) *Controller {
	c := &Controller{
		doc:            doc,
		log:            slog.Default(),
		now:            time.Now,
		clickThreshold: DefaultClickThreshold,
		padding:        1,
		panel:          Classes("panel", ClassClosed),
		openIcon:       Classes("icon", "icon-open"),
		closeIcon:      Classes("icon", "icon-close", ClassHidden),
	}
	for _, o := range opts {
		o(c)
	}
	c.pos = pointer.Point{X: c.padding, Y: c.padding}
	return c
}

func (c *Controller) Position() pointer.Point    { return c.pos }
func (c *Controller) Size() pointer.Size         { return c.size }
func (c *Controller) Viewport() pointer.Size     { return c.viewport }
func (c *Controller) Dragging() bool             { return c.dragging }
func (c *Controller) Open() bool                 { return c.panel.Has(ClassOpen) }
func (c *Controller) PanelClasses() ClassSet     { return c.panel }
func (c *Controller) OpenIconClasses() ClassSet  { return c.openIcon }
func (c *Controller) CloseIconClasses() ClassSet { return c.closeIcon }

// SetViewport records the viewport extent and re-clamps the panel.
func (c *Controller) SetViewport(s pointer.Size) {
	c.viewport = s
	c.pos = c.clamp(c.pos)
}

// SetPanelSize records the panel extent and re-clamps the panel. The size
// changes when the panel opens or closes.
func (c *Controller) SetPanelSize(s pointer.Size) {
	c.size = s
	c.pos = c.clamp(c.pos)
}

// MoveTo places the panel at p, clamped.
func (c *Controller) MoveTo(p pointer.Point) { c.pos = c.clamp(p) }

// Contains reports whether p lies on the panel.
func (c *Controller) Contains(p pointer.Point) bool {
	return p.X >= c.pos.X && p.X < c.pos.X+c.size.W &&
		p.Y >= c.pos.Y && p.Y < c.pos.Y+c.size.H
}

// Toggle flips the panel between open and closed along with its icons.
func (c *Controller) Toggle() {
	c.panel = Toggle(Toggle(c.panel, ClassOpen), ClassClosed)
	c.openIcon = Toggle(c.openIcon, ClassHidden)
	c.closeIcon = Toggle(c.closeIcon, ClassHidden)
	c.log.Debug("panel toggled", "open", c.Open())
}

// Press handles a press on the handle. It consumes the event, records the
// anchor and starts a drag.
func (c *Controller) Press(ev *pointer.Event) {
	ev.StopPropagation()
	if c.dragging {
		c.endDrag()
	}
	c.pressedAt = c.stamp(ev)
	c.anchor = ev.Pos.Sub(c.pos)
	c.dragging = true
	c.moveID = c.doc.Attach(pointer.Move, c.onMove)
	c.releaseID = c.doc.Attach(pointer.Release, c.onRelease)
}

func (c *Controller) onMove(ev *pointer.Event) {
	if !c.dragging {
		return
	}
	c.pos = c.clamp(ev.Pos.Sub(c.anchor))
}

func (c *Controller) onRelease(ev *pointer.Event) {
	if c.stamp(ev).Sub(c.pressedAt) < c.clickThreshold {
		c.Toggle()
	}
	if c.dragging {
		c.endDrag()
	}
	ev.StopPropagation()
}

func (c *Controller) endDrag() {
	c.dragging = false
	c.doc.Detach(c.moveID)
	c.doc.Detach(c.releaseID)
	c.moveID, c.releaseID = 0, 0
}

// Close ends any drag and detaches its listeners.
func (c *Controller) Close() {
	if c.dragging {
		c.endDrag()
	}
}

func (c *Controller) clamp(p pointer.Point) pointer.Point {
	return pointer.Point{
		X: clampAxis(p.X, c.padding, c.viewport.W-c.size.W-c.padding),
		Y: clampAxis(p.Y, c.padding, c.viewport.H-c.size.H-c.padding),
	}
}

// clampAxis limits v to [lo, hi]. When the panel does not fit, hi < lo and
// lo wins.
func clampAxis(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

func (c *Controller) stamp(ev *pointer.Event) time.Time {
	if ev.At.IsZero() {
		return c.now()
	}
	return ev.At
}
