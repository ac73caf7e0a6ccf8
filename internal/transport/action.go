package transport

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ActionKind is the value of the "action" field posted to /input.
type ActionKind string

const (
	ActionTap      ActionKind = "tap"
	ActionLongTap  ActionKind = "long_tap"
	ActionSwipe    ActionKind = "swipe"
	ActionText     ActionKind = "text"
	ActionKeyEvent ActionKind = "keyevent"
)

// Action is one input event for the remote device. Build it with the
// constructors; only the fields of its kind are sent.
type Action struct {
	Kind      ActionKind
	X, Y      int
	X2, Y2    int
	Duration  time.Duration
	Text      string
	Keycode   string
	LongPress bool
}

func Tap(x, y int) Action { return Action{Kind: ActionTap, X: x, Y: y} }

func LongTap(x, y int, d time.Duration) Action {
	return Action{Kind: ActionLongTap, X: x, Y: y, Duration: d}
}

func Swipe(x1, y1, x2, y2 int, d time.Duration) Action {
	return Action{Kind: ActionSwipe, X: x1, Y: y1, X2: x2, Y2: y2, Duration: d}
}

// Text builds a text action. Non 7-bit characters are dropped.
func Text(s string) Action { return Action{Kind: ActionText, Text: ASCII(s)} }

func KeyEvent(keycode string, long bool) Action {
	return Action{Kind: ActionKeyEvent, Keycode: keycode, LongPress: long}
}

// ASCII removes every rune outside the 7-bit range.
func ASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0x7f {
			return -1
		}
		return r
	}, s)
}

func (a Action) String() string {
	switch a.Kind {
	case ActionTap:
		return fmt.Sprintf("tap(%d,%d)", a.X, a.Y)
	case ActionLongTap:
		return fmt.Sprintf("long_tap(%d,%d,%dms)", a.X, a.Y, a.Duration.Milliseconds())
	case ActionSwipe:
		return fmt.Sprintf("swipe(%d,%d->%d,%d,%dms)", a.X, a.Y, a.X2, a.Y2, a.Duration.Milliseconds())
	case ActionText:
		return fmt.Sprintf("text(%q)", a.Text)
	case ActionKeyEvent:
		if a.LongPress {
			return fmt.Sprintf("keyevent(%s,long)", a.Keycode)
		}
		return fmt.Sprintf("keyevent(%s)", a.Keycode)
	default:
		return string(a.Kind)
	}
}

type tapPayload struct {
	Action ActionKind `json:"action"`
	X      int        `json:"x"`
	Y      int        `json:"y"`
}

type longTapPayload struct {
	Action   ActionKind `json:"action"`
	X        int        `json:"x"`
	Y        int        `json:"y"`
	Duration int64      `json:"duration"`
}

type swipePayload struct {
	Action   ActionKind `json:"action"`
	X1       int        `json:"x1"`
	Y1       int        `json:"y1"`
	X2       int        `json:"x2"`
	Y2       int        `json:"y2"`
	Duration int64      `json:"duration"`
}

type textPayload struct {
	Action ActionKind `json:"action"`
	Text   string     `json:"text"`
}

type keyEventPayload struct {
	Action    ActionKind `json:"action"`
	Keycode   string     `json:"keycode"`
	LongPress bool       `json:"longpress"`
}

// MarshalJSON encodes the wire shape for the action's kind. Durations are
// whole milliseconds.
func (a Action) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case ActionTap:
		return json.Marshal(tapPayload{Action: a.Kind, X: a.X, Y: a.Y})
	case ActionLongTap:
		return json.Marshal(longTapPayload{Action: a.Kind, X: a.X, Y: a.Y, Duration: a.Duration.Milliseconds()})
	case ActionSwipe:
		return json.Marshal(swipePayload{Action: a.Kind, X1: a.X, Y1: a.Y, X2: a.X2, Y2: a.Y2, Duration: a.Duration.Milliseconds()})
	case ActionText:
		return json.Marshal(textPayload{Action: a.Kind, Text: ASCII(a.Text)})
	case ActionKeyEvent:
		return json.Marshal(keyEventPayload{Action: a.Kind, Keycode: a.Keycode, LongPress: a.LongPress})
	default:
		return nil, fmt.Errorf("transport: unknown action %q", a.Kind)
	}
}
