package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/droidview/internal/config"
	"github.com/jask/droidview/internal/frame"
	"github.com/jask/droidview/internal/gesture"
	"github.com/jask/droidview/internal/journal"
	"github.com/jask/droidview/internal/overlay"
	"github.com/jask/droidview/internal/pointer"
	"github.com/jask/droidview/internal/transport"
)

const (
	appName        = "droidview"
	statusEvery    = 5 * time.Second
	panelWidth     = 36
	handleRows     = 2 // top border and title line
	chromeRows     = 2 // status bar and help line
	sourcePointer  = "pointer"
	sourcePanel    = "panel"
	maxStatusError = 80
)

// Service is the device service as the viewer uses it. *transport.Client
// implements it.
type Service interface {
	Frame(ctx context.Context) ([]byte, error)
	Submit(ctx context.Context, a transport.Action) ([]byte, error)
	Status(ctx context.Context) (transport.Status, error)
	Queues(ctx context.Context) ([]string, error)
	RunQueue(ctx context.Context, queue string, iterations int) (json.RawMessage, error)
	Debug() bool
	SetDebug(on bool)
}

// Recorder stores submitted actions. *journal.Journal implements it.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) (journal.Entry, error)
}

// Options wires an App.
type Options struct {
	Config   config.Config
	Service  Service
	Journal  Recorder
	Logger   *slog.Logger
	Controls *ControlSet
	// Scheduler delivers delayed messages; nil uses tea.Tick.
	Scheduler frame.Scheduler
	Now       func() time.Time
}

// App is the viewer: the frame surface, the floating panel and the status
// bar.
type App struct {
	ctx     context.Context
	cfg     config.Config
	svc     Service
	journal Recorder
	log     *slog.Logger
	now     func() time.Time
	after   frame.Scheduler

	surface  *Surface
	sync     *frame.Synchronizer
	gestures *gesture.Classifier
	doc      *pointer.Document
	panel    *overlay.Controller

	controls     *ControlSet
	built        map[string]Control
	selected     int
	panelFocused bool

	keys keyMap
	help help.Model

	width, height int
	surfaceX      int
	pressed       bool // left button went down on the surface

	status    string
	statusErr bool
	server    transport.Status
	serverErr error
	quitting  bool
}

type statusMsg struct {
	st  transport.Status
	err error
}

type statusTickMsg struct{}

type submittedMsg struct {
	source  string
	action  transport.Action
	err     error
	latency time.Duration
}

type queueRunMsg struct {
	queue      string
	iterations int
	reply      json.RawMessage
	err        error
}

type journalMsg struct{ err error }

func New(ctx context.Context, opts Options) *App {
	a := &App{
		ctx:      ctx,
		cfg:      opts.Config,
		svc:      opts.Service,
		journal:  opts.Journal,
		log:      opts.Logger,
		now:      opts.Now,
		after:    opts.Scheduler,
		controls: opts.Controls,
		built:    map[string]Control{},
		keys:     newKeyMap(),
		help:     help.New(),
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.after == nil {
		a.after = frame.TickScheduler
	}
	if a.controls == nil {
		a.controls = DefaultControls()
	}

	a.surface = NewSurface(a.cfg.UI.Fit)
	a.sync = frame.NewSynchronizer(a.svc, a.surface,
		frame.WithLogger(a.log.With("component", "frame")),
		frame.WithInterval(a.cfg.Frame.Interval),
		frame.WithScheduler(a.after),
		frame.WithClock(a.now),
	)
	a.gestures = gesture.New(ctx, a.svc,
		gesture.WithLogger(a.log.With("component", "gesture")),
		gesture.WithLongPress(a.cfg.Input.LongPress),
		gesture.WithClock(a.now),
	)
	a.doc = pointer.NewDocument()
	a.panel = overlay.New(a.doc,
		overlay.WithLogger(a.log.With("component", "panel")),
		overlay.WithClickThreshold(a.cfg.UI.ClickThreshold),
		overlay.WithPadding(float64(a.cfg.UI.EdgePadding)),
		overlay.WithClock(a.now),
	)
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.sync.Start(), a.fetchStatus())
}

// ---------------------------------------------------------------------------
// Host
// ---------------------------------------------------------------------------

func (a *App) Submit(source string, act transport.Action) tea.Cmd {
	svc, ctx, now := a.svc, a.ctx, a.now
	return func() tea.Msg {
		start := now()
		_, err := svc.Submit(ctx, act)
		return submittedMsg{source: source, action: act, err: err, latency: now().Sub(start)}
	}
}

func (a *App) Interval() time.Duration { return a.sync.Interval() }

func (a *App) SetInterval(d time.Duration) (time.Duration, tea.Cmd) {
	got, cmd := a.sync.SetInterval(d)
	a.setStatus(fmt.Sprintf("refresh interval %dms", got.Milliseconds()), false)
	return got, cmd
}

func (a *App) Debug() bool { return a.svc.Debug() }

func (a *App) SetDebug(on bool) {
	a.svc.SetDebug(on)
	a.log.Info("debug logging changed", "debug", on)
}

func (a *App) LoadQueues() tea.Cmd {
	svc, ctx := a.svc, a.ctx
	return func() tea.Msg {
		qs, err := svc.Queues(ctx)
		return queuesLoadedMsg{queues: qs, err: err}
	}
}

func (a *App) RunQueue(queue string, iterations int) tea.Cmd {
	svc, ctx := a.svc, a.ctx
	return func() tea.Msg {
		reply, err := svc.RunQueue(ctx, queue, iterations)
		return queueRunMsg{queue: queue, iterations: iterations, reply: reply, err: err}
	}
}

func (a *App) Cooldowns() (button, key time.Duration) {
	return a.cfg.UI.ButtonCooldown, a.cfg.UI.KeyCooldown
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(m.Width, m.Height)
	case tea.KeyMsg:
		cmds = append(cmds, a.handleKey(m))
	case tea.MouseMsg:
		cmds = append(cmds, a.handleMouse(m))
	case statusMsg:
		a.server, a.serverErr = m.st, m.err
		if m.err != nil {
			a.log.Warn("status poll failed", "error", m.err)
		}
		cmds = append(cmds, a.after(statusEvery, statusTickMsg{}))
	case statusTickMsg:
		if !a.quitting {
			cmds = append(cmds, a.fetchStatus())
		}
	case submittedMsg:
		a.reportSubmission(m.action, m.err)
		cmds = append(cmds, a.record(m.source, m.action, m.err, m.latency))
	case queueRunMsg:
		if m.err != nil {
			a.log.Warn("queue run failed", "queue", m.queue, "error", m.err)
			a.setStatus(fmt.Sprintf("run %s: %v", m.queue, m.err), true)
		} else {
			a.setStatus(fmt.Sprintf("queued %s x%d", m.queue, m.iterations), false)
		}
	case journalMsg:
		if m.err != nil {
			a.log.Error("journal write failed", "error", m.err)
		}
	default:
		cmds = append(cmds, a.sync.Update(msg))
		if s := a.gestures.Update(msg); s != nil {
			a.reportSubmission(s.Action, s.Err)
			cmds = append(cmds, a.record(sourcePointer, s.Action, s.Err, s.Latency))
		}
		for _, c := range a.built {
			cmds = append(cmds, c.Update(msg))
		}
	}
	a.layoutPanel()
	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(k tea.KeyMsg) tea.Cmd {
	if k.String() == "ctrl+c" {
		return a.quit()
	}
	if a.panelFocused {
		switch {
		case key.Matches(k, a.keys.Unfocus):
			a.blurPanel()
			return nil
		case key.Matches(k, a.keys.NextControl):
			return a.selectControl(a.selected + 1)
		case key.Matches(k, a.keys.PrevControl):
			return a.selectControl(a.selected - 1)
		}
		c, initCmd := a.activeControl()
		if c == nil {
			return initCmd
		}
		return tea.Batch(initCmd, c.Update(k))
	}

	switch {
	case key.Matches(k, a.keys.Quit):
		return a.quit()
	case key.Matches(k, a.keys.Toggle):
		if a.sync.Running() {
			a.sync.Stop()
			a.setStatus("stopped", false)
			return nil
		}
		a.setStatus("running", false)
		return a.sync.Start()
	case key.Matches(k, a.keys.Slower):
		_, cmd := a.SetInterval(a.sync.Interval() + intervalStep)
		return cmd
	case key.Matches(k, a.keys.Faster):
		_, cmd := a.SetInterval(a.sync.Interval() - intervalStep)
		return cmd
	case key.Matches(k, a.keys.Focus):
		return a.focusPanel()
	case key.Matches(k, a.keys.Panel):
		a.panel.Toggle()
		return nil
	case key.Matches(k, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
	}
	return nil
}

func (a *App) handleMouse(m tea.MouseMsg) tea.Cmd {
	at := a.now()
	cell := pointer.Point{X: float64(m.X), Y: float64(m.Y)}

	switch m.Action {
	case tea.MouseActionPress:
		if m.Button != tea.MouseButtonLeft {
			return nil
		}
		ev := &pointer.Event{Kind: pointer.Press, Device: pointer.Mouse, Pos: cell, At: at}
		if a.onHandle(m.X, m.Y) {
			a.panel.Press(ev)
			return nil
		}
		if a.panel.Contains(cell) {
			return a.focusPanel()
		}
		if p, ok := a.surfacePoint(m.X, m.Y); ok {
			a.gestures.Press(pointer.Event{Kind: pointer.Press, Device: pointer.Mouse, Pos: p, At: at})
			a.pressed = true
		}
	case tea.MouseActionMotion:
		a.doc.Dispatch(&pointer.Event{Kind: pointer.Move, Device: pointer.Mouse, Pos: cell, At: at})
		if a.pressed {
			if _, ok := a.surfacePoint(m.X, m.Y); !ok {
				a.gestures.Leave(pointer.Mouse)
				a.pressed = false
			}
		}
	case tea.MouseActionRelease:
		ev := &pointer.Event{Kind: pointer.Release, Device: pointer.Mouse, Pos: cell, At: at}
		a.doc.Dispatch(ev)
		if ev.Stopped() || !a.pressed {
			return nil
		}
		a.pressed = false
		p, ok := a.surfacePoint(m.X, m.Y)
		if !ok {
			a.gestures.Leave(pointer.Mouse)
			return nil
		}
		return a.gestures.Release(
			pointer.Event{Kind: pointer.Release, Device: pointer.Mouse, Pos: p, At: at},
			a.surface.Size(), a.surface.FrameSize(),
		)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (a *App) resize(w, h int) {
	a.width, a.height = w, h
	rows := a.frameRows()
	a.surface.SetViewport(w, rows)
	cols, _ := a.surface.Cells()
	a.surfaceX = max((w-cols)/2, 0)
	a.panel.SetViewport(pointer.Size{W: float64(w), H: float64(rows)})
	if img := a.sync.State().Image; img != nil && !img.Released() {
		a.surface.Paint(img)
	}
	a.log.Debug("viewport resized", "cols", w, "rows", rows)
}

func (a *App) frameRows() int { return max(a.height-chromeRows, 0) }

func (a *App) surfacePoint(x, y int) (pointer.Point, bool) {
	if a.panel.Contains(pointer.Point{X: float64(x), Y: float64(y)}) {
		return pointer.Point{}, false
	}
	return a.surface.PointAt(x-a.surfaceX, y)
}

func (a *App) onHandle(x, y int) bool {
	pos := a.panel.Position()
	return a.panel.Contains(pointer.Point{X: float64(x), Y: float64(y)}) &&
		float64(y) < pos.Y+handleRows
}

func (a *App) focusPanel() tea.Cmd {
	if !a.panel.Open() {
		a.panel.Toggle()
	}
	a.panelFocused = true
	c, initCmd := a.activeControl()
	if c == nil {
		return initCmd
	}
	return tea.Batch(initCmd, c.Focus())
}

func (a *App) blurPanel() {
	a.panelFocused = false
	if c, ok := a.built[a.controlName()]; ok {
		c.Blur()
	}
}

func (a *App) controlName() string {
	names := a.controls.Names()
	if len(names) == 0 {
		return ""
	}
	return names[a.selected]
}

// activeControl returns the selected control, building it on first use.
// The returned command is the control's Init when it was just built.
func (a *App) activeControl() (Control, tea.Cmd) {
	name := a.controlName()
	if c, ok := a.built[name]; ok {
		return c, nil
	}
	c := a.controls.Build(name, a)
	if c == nil {
		return nil, nil
	}
	a.built[name] = c
	return c, c.Init()
}

func (a *App) selectControl(i int) tea.Cmd {
	names := a.controls.Names()
	if len(names) == 0 {
		return nil
	}
	if c, ok := a.built[a.controlName()]; ok {
		c.Blur()
	}
	a.selected = (i%len(names) + len(names)) % len(names)
	a.log.Debug("control selected", "control", a.controlName())
	c, initCmd := a.activeControl()
	if c == nil || !a.panelFocused {
		return initCmd
	}
	return tea.Batch(initCmd, c.Focus())
}

func (a *App) quit() tea.Cmd {
	a.quitting = true
	a.sync.Dispose()
	a.panel.Close()
	return tea.Quit
}

func (a *App) fetchStatus() tea.Cmd {
	svc, ctx := a.svc, a.ctx
	return func() tea.Msg {
		st, err := svc.Status(ctx)
		return statusMsg{st: st, err: err}
	}
}

func (a *App) reportSubmission(act transport.Action, err error) {
	if err != nil {
		a.setStatus(fmt.Sprintf("%s failed: %v", act, err), true)
		return
	}
	a.setStatus(act.String()+" sent", false)
}

func (a *App) record(source string, act transport.Action, err error, latency time.Duration) tea.Cmd {
	if a.journal == nil {
		return nil
	}
	payload, _ := json.Marshal(act)
	e := journal.Entry{
		Source:  source,
		Kind:    string(act.Kind),
		Payload: string(payload),
		Latency: latency,
	}
	if err != nil {
		e.Err = err.Error()
	}
	j, ctx := a.journal, a.ctx
	return func() tea.Msg {
		_, err := j.Record(ctx, e)
		return journalMsg{err: err}
	}
}

func (a *App) setStatus(s string, isErr bool) {
	a.status = s
	a.statusErr = isErr
}

// layoutPanel feeds the rendered panel size back into the drag controller
// so clamping and hit testing use the current extent.
func (a *App) layoutPanel() {
	view := a.renderPanel()
	lines := splitLines(view)
	a.panel.SetPanelSize(pointer.Size{W: float64(maxLineWidth(lines)), H: float64(len(lines))})
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

func (a *App) View() string {
	if a.quitting || a.width == 0 {
		return ""
	}
	rows := a.frameRows()
	c := newCanvas(a.width, rows)
	c.paint(a.surface.View(), a.surfaceX, 0)
	pos := a.panel.Position()
	c.paint(a.renderPanel(), int(pos.X), int(pos.Y))
	if a.help.ShowAll {
		a.help.Width = a.width
		box := panelStyle.Render(a.help.FullHelpView(a.keys.FullHelp()))
		bw := maxLineWidth(splitLines(box))
		c.paint(box, max((a.width-bw)/2, 0), max(rows/3, 0))
	}
	return c.String() + "\n" + a.renderStatusBar() + "\n" + a.renderHelp()
}

func (a *App) renderPanel() string {
	var title string
	if !a.panel.OpenIconClasses().Has(overlay.ClassHidden) {
		title = iconStyle.Render("☰")
	} else if !a.panel.CloseIconClasses().Has(overlay.ClassHidden) {
		title = iconStyle.Render("✕")
	}
	title += " " + handleStyle.Render(appName)

	style := panelStyle
	if a.panelFocused {
		style = panelFocusedStyle
	}
	if !a.panel.Open() {
		return style.Render(title)
	}

	inner := min(panelWidth, max(a.width-4, 10))
	names := a.controls.Names()
	tabs := make([]string, len(names))
	for i, n := range names {
		if i == a.selected {
			tabs[i] = tabActiveStyle.Render(n)
		} else {
			tabs[i] = tabStyle.Render(n)
		}
	}
	body := []string{title, truncate(strings.Join(tabs, " "), inner), ""}
	if c, ok := a.built[a.controlName()]; ok {
		body = append(body, c.View(inner))
	} else {
		body = append(body, hintStyle.Render(truncate("tab: use controls", inner)))
	}
	return style.Width(inner + 2).Render(strings.Join(body, "\n"))
}

func (a *App) renderStatusBar() string {
	state := stoppedStyle.Render("■ stopped")
	if a.sync.Running() {
		state = runningStyle.Render("● running")
	}
	parts := []string{state, fmt.Sprintf("%dms", a.sync.Interval().Milliseconds())}

	st := a.sync.State()
	if st.Image != nil {
		parts = append(parts, fmt.Sprintf("frame %s %dx%d", st.Updated.Format("15:04:05"), st.Image.Width, st.Image.Height))
	}
	switch {
	case a.serverErr != nil:
		parts = append(parts, statusErrBarStyle.Render("server unreachable"))
	case a.server.Status != "":
		parts = append(parts, infoStyle.Render(fmt.Sprintf("%s %dfps", a.server.Status, a.server.Data.FPS)))
	}
	if stats := a.sync.Stats(); stats.LastErr != nil {
		parts = append(parts, statusErrBarStyle.Render(truncate(transport.KindOf(stats.LastErr).String()+": "+stats.LastErr.Error(), maxStatusError)))
	}
	if a.status != "" {
		style := statusBarStyle
		if a.statusErr {
			style = statusErrBarStyle
		}
		parts = append(parts, style.Render(truncate(a.status, maxStatusError)))
	}
	return padRight(truncate(strings.Join(parts, "  "), a.width), a.width)
}

func (a *App) renderHelp() string {
	a.help.Width = a.width
	if a.panelFocused {
		return a.help.ShortHelpView(panelKeyMap{a.keys}.ShortHelp())
	}
	return a.help.ShortHelpView(a.keys.ShortHelp())
}
