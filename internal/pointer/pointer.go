// Package pointer carries pointer events between the terminal front end and
// the state machines that consume them.
package pointer

import "time"

// Kind is the phase of a pointer event.
type Kind int

const (
	Press Kind = iota
	Move
	Release
	Leave
)

func (k Kind) String() string {
	switch k {
	case Press:
		return "press"
	case Move:
		return "move"
	case Release:
		return "release"
	case Leave:
		return "leave"
	default:
		return "unknown"
	}
}

// DeviceID identifies one pointer device. Terminals report a single mouse.
type DeviceID string

// Mouse is the device id used for terminal mouse reports.
const Mouse DeviceID = "mouse"

// Point is a position in some pixel space. The owner of the value decides
// which one.
type Point struct {
	X, Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Size is a width/height pair.
type Size struct {
	W, H float64
}

// Empty reports whether either side is zero or negative.
func (s Size) Empty() bool { return s.W <= 0 || s.H <= 0 }

// Event is one pointer report.
type Event struct {
	Kind   Kind
	Device DeviceID
	Pos    Point
	At     time.Time

	stopped bool
}

// StopPropagation marks the event as consumed so later handlers skip it.
func (e *Event) StopPropagation() { e.stopped = true }

// Stopped reports whether a handler consumed the event.
func (e *Event) Stopped() bool { return e.stopped }
