// Package gesture turns press/release pairs on the frame surface into tap
// and long-tap actions for the device.
package gesture

import (
	"context"
	"log/slog"
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/droidview/internal/pointer"
	"github.com/jask/droidview/internal/transport"
)

// DefaultLongPress separates a tap from a long tap.
const DefaultLongPress = 300 * time.Millisecond

// Submitter posts one action to the device.
type Submitter interface {
	Submit(ctx context.Context, a transport.Action) ([]byte, error)
}

// State is the phase of one device's gesture session.
type State int

const (
	Idle State = iota
	Pressed
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pressed:
		return "pressed"
	case Submitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// Settled reports the end of a submission, successful or not.
type Settled struct {
	Device  pointer.DeviceID
	Action  transport.Action
	Reply   []byte
	Err     error
	Latency time.Duration
}

type settledMsg struct {
	c *Classifier
	Settled
}

type session struct {
	pressed   bool
	pressedAt time.Time
	inFlight  bool
}

// Option configures a Classifier.
type Option func(*Classifier)

func WithLogger(l *slog.Logger) Option { return func(c *Classifier) { c.log = l } }

// WithLongPress overrides DefaultLongPress. Non-positive values are ignored.
func WithLongPress(d time.Duration) Option {
	return func(c *Classifier) {
		if d > 0 {
			c.longPress = d
		}
	}
}

func WithClock(now func() time.Time) Option { return func(c *Classifier) { c.now = now } }

// Classifier keeps one gesture session per pointer device. Like the rest of
// the UI state it is only touched from the bubbletea Update goroutine.
type Classifier struct {
	submit    Submitter
	log       *slog.Logger
	longPress time.Duration
	now       func() time.Time
	sessions  map[pointer.DeviceID]*session
	ctx       context.Context
}

func New(ctx context.Context, submit Submitter, opts ...Option) *Classifier {
	c := &Classifier{
		submit:    submit,
		log:       slog.Default(),
		longPress: DefaultLongPress,
		now:       time.Now,
		sessions:  map[pointer.DeviceID]*session{},
		ctx:       ctx,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// LongPress is the active threshold.
func (c *Classifier) LongPress() time.Duration { return c.longPress }

func (c *Classifier) session(dev pointer.DeviceID) *session {
	s, ok := c.sessions[dev]
	if !ok {
		s = &session{}
		c.sessions[dev] = s
	}
	return s
}

// State reports where dev's session is. A press made while a submission is
// still settling reports Pressed.
func (c *Classifier) State(dev pointer.DeviceID) State {
	s, ok := c.sessions[dev]
	switch {
	case !ok:
		return Idle
	case s.pressed:
		return Pressed
	case s.inFlight:
		return Submitting
	default:
		return Idle
	}
}

// InFlight reports whether dev has a submission that has not settled.
func (c *Classifier) InFlight(dev pointer.DeviceID) bool {
	s, ok := c.sessions[dev]
	return ok && s.inFlight
}

// Press records the press time. Nothing is submitted yet.
func (c *Classifier) Press(ev pointer.Event) {
	s := c.session(ev.Device)
	s.pressed = true
	s.pressedAt = c.stamp(ev)
}

// Leave aborts a pending press without submitting.
func (c *Classifier) Leave(dev pointer.DeviceID) {
	if s, ok := c.sessions[dev]; ok && s.pressed {
		s.pressed = false
		c.log.Debug("gesture cancelled", "device", dev)
	}
}

// Release classifies the gesture and returns the submission command, or nil
// when there is nothing to submit: no matching press, a submission for the
// device is still in flight, or the sizes needed to map the point are
// unknown. surface is the size of the area ev.Pos is measured in and frame
// is the device's native frame size.
func (c *Classifier) Release(ev pointer.Event, surface, frame pointer.Size) tea.Cmd {
	s, ok := c.sessions[ev.Device]
	if !ok || !s.pressed {
		return nil
	}
	s.pressed = false
	if s.inFlight {
		c.log.Debug("release dropped, submission in flight", "device", ev.Device)
		return nil
	}
	if surface.Empty() || frame.Empty() {
		c.log.Warn("release dropped, no frame to map onto", "device", ev.Device)
		return nil
	}

	x, y := MapPoint(ev.Pos, surface, frame)
	held := c.stamp(ev).Sub(s.pressedAt)
	var a transport.Action
	if held < c.longPress {
		a = transport.Tap(x, y)
	} else {
		a = transport.LongTap(x, y, held)
	}
	s.inFlight = true
	return c.submitCmd(ev.Device, a)
}

// Update clears the in-flight flag of the device a settlement belongs to and
// returns the settlement. Messages that are not this classifier's
// settlements return nil.
func (c *Classifier) Update(msg tea.Msg) *Settled {
	m, ok := msg.(settledMsg)
	if !ok || m.c != c {
		return nil
	}
	if s, ok := c.sessions[m.Device]; ok {
		s.inFlight = false
	}
	if m.Err != nil {
		c.log.Warn("input submission failed", "device", m.Device, "action", m.Action.String(), "kind", transport.KindOf(m.Err).String(), "error", m.Err)
	} else {
		c.log.Debug("input submitted", "device", m.Device, "action", m.Action.String(), "latency", m.Latency)
	}
	out := m.Settled
	return &out
}

func (c *Classifier) submitCmd(dev pointer.DeviceID, a transport.Action) tea.Cmd {
	submit, ctx, now := c.submit, c.ctx, c.now
	return func() tea.Msg {
		start := now()
		reply, err := submit.Submit(ctx, a)
		return settledMsg{c: c, Settled: Settled{
			Device:  dev,
			Action:  a,
			Reply:   reply,
			Err:     err,
			Latency: now().Sub(start),
		}}
	}
}

func (c *Classifier) stamp(ev pointer.Event) time.Time {
	if ev.At.IsZero() {
		return c.now()
	}
	return ev.At
}

// MapPoint scales p from surface space into frame space and rounds to the
// nearest pixel. The result is not clamped to the frame.
func MapPoint(p pointer.Point, surface, frame pointer.Size) (int, int) {
	x := math.Round(p.X * frame.W / surface.W)
	y := math.Round(p.Y * frame.H / surface.H)
	return int(x), int(y)
}
