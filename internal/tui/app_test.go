package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jask/droidview/internal/config"
	"github.com/jask/droidview/internal/journal"
	"github.com/jask/droidview/internal/overlay"
	"github.com/jask/droidview/internal/pointer"
	"github.com/jask/droidview/internal/transport"
)

type fakeService struct {
	mu        sync.Mutex
	frame     []byte
	frameErr  error
	submitted []transport.Action
	submitErr error
	queues    []string
	runs      []string
	debug     bool
}

func (f *fakeService) Frame(context.Context) ([]byte, error) { return f.frame, f.frameErr }

func (f *fakeService) Submit(_ context.Context, a transport.Action) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, a)
	return []byte(`{"status":"ok"}`), f.submitErr
}

func (f *fakeService) Status(context.Context) (transport.Status, error) {
	return transport.Status{Status: "ok"}, nil
}

func (f *fakeService) Queues(context.Context) ([]string, error) { return f.queues, nil }

func (f *fakeService) RunQueue(_ context.Context, q string, n int) (json.RawMessage, error) {
	f.runs = append(f.runs, q)
	return json.RawMessage(`{}`), nil
}

func (f *fakeService) Debug() bool       { return f.debug }
func (f *fakeService) SetDebug(on bool) { f.debug = on }

type fakeRecorder struct {
	entries []journal.Entry
}

func (r *fakeRecorder) Record(_ context.Context, e journal.Entry) (journal.Entry, error) {
	r.entries = append(r.entries, e)
	return e, nil
}

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type testApp struct {
	*App
	svc     *fakeService
	rec     *fakeRecorder
	clock   *testClock
	delayed []tea.Msg
}

func framePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{G: 180, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testConfig() config.Config {
	return config.Config{
		Frame: config.FrameConfig{Interval: 500 * time.Millisecond},
		Input: config.InputConfig{LongPress: 300 * time.Millisecond},
		UI: config.UIConfig{
			ClickThreshold: 250 * time.Millisecond,
			EdgePadding:    1,
			Fit:            config.FitWidth,
			ButtonCooldown: time.Millisecond,
			KeyCooldown:    time.Millisecond,
		},
	}
}

// newTestApp builds an app on a 80x42 terminal with one 160x120 frame
// painted. Delayed messages are collected rather than delivered.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ta := &testApp{
		svc:   &fakeService{frame: framePNG(t, 160, 120), queues: []string{"daily"}},
		rec:   &fakeRecorder{},
		clock: &testClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	ta.App = New(context.Background(), Options{
		Config:  testConfig(),
		Service: ta.svc,
		Journal: ta.rec,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Scheduler: func(_ time.Duration, msg tea.Msg) tea.Cmd {
			ta.delayed = append(ta.delayed, msg)
			return nil
		},
		Now: ta.clock.now,
	})
	ta.send(tea.WindowSizeMsg{Width: 80, Height: 42})
	ta.run(ta.Init())
	return ta
}

// drain executes cmd and flattens batches into their messages.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// run delivers everything cmd produces, and everything that produces, until
// the queue is empty.
func (ta *testApp) run(cmd tea.Cmd) {
	queue := drain(cmd)
	for i := 0; len(queue) > 0; i++ {
		if i > 100 {
			panic("message loop did not settle")
		}
		msg := queue[0]
		queue = queue[1:]
		if _, ok := msg.(tea.QuitMsg); ok {
			continue
		}
		_, next := ta.Update(msg)
		queue = append(queue, drain(next)...)
	}
}

func (ta *testApp) send(msg tea.Msg) {
	_, cmd := ta.Update(msg)
	ta.run(cmd)
}

func (ta *testApp) mouse(action tea.MouseAction, x, y int) {
	ta.send(tea.MouseMsg{X: x, Y: y, Action: action, Button: tea.MouseButtonLeft})
}

func (ta *testApp) click(x, y int, held time.Duration) {
	ta.mouse(tea.MouseActionPress, x, y)
	ta.clock.advance(held)
	ta.mouse(tea.MouseActionRelease, x, y)
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestAppPaintsFirstFrame(t *testing.T) {
	ta := newTestApp(t)

	require.True(t, ta.surface.Painted())
	require.Equal(t, pointer.Size{W: 80, H: 60}, ta.surface.Size())
	require.Equal(t, pointer.Size{W: 160, H: 120}, ta.surface.FrameSize())
	require.Equal(t, 1, ta.sync.Stats().Cycles)

	view := ta.View()
	require.Len(t, strings.Split(view, "\n"), 42)
	require.Contains(t, view, "running")
	require.Contains(t, view, "500ms")
	require.Contains(t, view, "160x120")
}

func TestAppTapMapsIntoFramePixels(t *testing.T) {
	ta := newTestApp(t)

	// cell (10, 5) is surface pixel (10.5, 11), frame pixel (21, 22)
	ta.click(10, 5, 50*time.Millisecond)

	require.Equal(t, []transport.Action{transport.Tap(21, 22)}, ta.svc.submitted)
	require.Len(t, ta.rec.entries, 1)
	require.Equal(t, sourcePointer, ta.rec.entries[0].Source)
	require.Equal(t, "tap", ta.rec.entries[0].Kind)
	require.Contains(t, ta.View(), "tap(21,22) sent")
}

func TestAppLongPressSubmitsLongTap(t *testing.T) {
	ta := newTestApp(t)

	ta.click(10, 5, 400*time.Millisecond)

	require.Len(t, ta.svc.submitted, 1)
	got := ta.svc.submitted[0]
	require.Equal(t, transport.ActionLongTap, got.Kind)
	require.Equal(t, 400*time.Millisecond, got.Duration)
}

func TestAppFailedSubmissionShowsError(t *testing.T) {
	ta := newTestApp(t)
	ta.svc.submitErr = errors.New("boom")

	ta.click(10, 5, 10*time.Millisecond)

	require.Len(t, ta.rec.entries, 1)
	require.Equal(t, "boom", ta.rec.entries[0].Err)
	require.True(t, ta.statusErr)
}

func TestAppPointerLeavingSurfaceCancelsGesture(t *testing.T) {
	ta := newTestApp(t)

	ta.mouse(tea.MouseActionPress, 10, 5)
	ta.mouse(tea.MouseActionMotion, 10, 35) // below the 30 rows of frame
	ta.mouse(tea.MouseActionRelease, 10, 35)

	require.Empty(t, ta.svc.submitted)
}

func TestAppQuickClickOnHandleTogglesPanel(t *testing.T) {
	ta := newTestApp(t)
	require.False(t, ta.panel.Open())

	ta.click(2, 1, 100*time.Millisecond)

	require.True(t, ta.panel.Open())
	require.Empty(t, ta.svc.submitted, "handle clicks never reach the device")
	require.Zero(t, ta.doc.Len())
}

func TestAppDragMovesPanel(t *testing.T) {
	ta := newTestApp(t)

	ta.mouse(tea.MouseActionPress, 2, 1)
	require.True(t, ta.panel.Dragging())
	ta.clock.advance(400 * time.Millisecond)
	ta.mouse(tea.MouseActionMotion, 20, 10)
	ta.mouse(tea.MouseActionRelease, 20, 10)

	require.Equal(t, pointer.Point{X: 19, Y: 10}, ta.panel.Position())
	require.False(t, ta.panel.Open())
	require.False(t, ta.panel.Dragging())
	require.Zero(t, ta.doc.Len())
	require.Empty(t, ta.svc.submitted)
}

func TestAppDragIsClampedToViewport(t *testing.T) {
	ta := newTestApp(t)

	ta.mouse(tea.MouseActionPress, 2, 1)
	ta.clock.advance(time.Second)
	ta.mouse(tea.MouseActionMotion, 500, 500)
	ta.mouse(tea.MouseActionRelease, 500, 500)

	size := ta.panel.Size()
	require.Equal(t, pointer.Point{X: 80 - size.W - 1, Y: 40 - size.H - 1}, ta.panel.Position())
}

func TestAppSpaceStopsAndStarts(t *testing.T) {
	ta := newTestApp(t)
	require.True(t, ta.sync.Running())

	ta.send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.False(t, ta.sync.Running())
	require.Zero(t, ta.sync.PendingTimers())
	require.Contains(t, ta.View(), "stopped")

	ta.send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.True(t, ta.sync.Running())
	require.Equal(t, 2, ta.sync.Stats().Cycles)
}

func TestAppIntervalKeysClamp(t *testing.T) {
	ta := newTestApp(t)

	ta.send(runes("+"))
	require.Equal(t, 600*time.Millisecond, ta.sync.Interval())

	for i := 0; i < 10; i++ {
		ta.send(runes("-"))
	}
	require.Equal(t, 100*time.Millisecond, ta.sync.Interval())
}

func TestAppPanelFocusDrivesControls(t *testing.T) {
	ta := newTestApp(t)

	ta.send(tea.KeyMsg{Type: tea.KeyTab})
	require.True(t, ta.panelFocused)
	require.True(t, ta.panel.Open(), "focusing opens the panel")
	require.Equal(t, "options", ta.controlName())

	// space goes to the focused control, not the refresh loop
	ta.send(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	require.True(t, ta.svc.debug)
	require.True(t, ta.sync.Running())

	ta.send(tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, ta.panelFocused)
}

func TestAppSelectControlWraps(t *testing.T) {
	ta := newTestApp(t)
	ta.send(tea.KeyMsg{Type: tea.KeyTab})

	ta.send(tea.KeyMsg{Type: tea.KeyCtrlP})
	require.Equal(t, "actions", ta.controlName())
	require.Contains(t, ta.View(), "daily", "actions loads the queue list when built")

	ta.send(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, []string{"daily"}, ta.svc.runs)
	require.Contains(t, ta.View(), "queued daily x1")

	ta.send(tea.KeyMsg{Type: tea.KeyCtrlN})
	require.Equal(t, "options", ta.controlName())
}

func TestAppStatusPollReschedules(t *testing.T) {
	ta := newTestApp(t)

	require.Equal(t, "ok", ta.server.Status)
	found := false
	for _, m := range ta.delayed {
		if _, ok := m.(statusTickMsg); ok {
			found = true
		}
	}
	require.True(t, found)
}

func TestAppQuitDisposesSession(t *testing.T) {
	ta := newTestApp(t)
	img := ta.sync.State().Image
	require.NotNil(t, img)

	ta.mouse(tea.MouseActionPress, 2, 1)
	_, cmd := ta.Update(runes("q"))

	require.Contains(t, drain(cmd), tea.Msg(tea.QuitMsg{}))
	require.False(t, ta.sync.Running())
	require.True(t, img.Released())
	require.Zero(t, ta.doc.Len(), "an unfinished drag is torn down")
	require.Empty(t, ta.View())
}

func TestAppClosedPanelIconState(t *testing.T) {
	ta := newTestApp(t)
	require.False(t, ta.panel.OpenIconClasses().Has(overlay.ClassHidden))
	require.True(t, ta.panel.CloseIconClasses().Has(overlay.ClassHidden))

	ta.send(runes("o"))
	require.True(t, ta.panel.Open())
	require.True(t, ta.panel.OpenIconClasses().Has(overlay.ClassHidden))
	require.False(t, ta.panel.CloseIconClasses().Has(overlay.ClassHidden))
}
