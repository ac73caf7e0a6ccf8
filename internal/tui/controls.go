package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/droidview/internal/keycode"
	"github.com/jask/droidview/internal/transport"
)

// Host is what a panel control may ask of the application.
type Host interface {
	Submit(source string, a transport.Action) tea.Cmd
	Interval() time.Duration
	SetInterval(d time.Duration) (time.Duration, tea.Cmd)
	Debug() bool
	SetDebug(on bool)
	LoadQueues() tea.Cmd
	RunQueue(queue string, iterations int) tea.Cmd
	Cooldowns() (button, key time.Duration)
}

// Control is one widget shown in the open panel. Key messages reach it only
// while the panel has focus; every other message is offered to every built
// control.
type Control interface {
	Init() tea.Cmd
	Update(msg tea.Msg) tea.Cmd
	View(width int) string
	Focus() tea.Cmd
	Blur()
}

// ControlFactory builds a control bound to a host.
type ControlFactory func(h Host) Control

// ControlSet is the ordered list of controls the panel can switch between.
type ControlSet struct {
	names     []string
	factories map[string]ControlFactory
}

func NewControlSet() *ControlSet {
	return &ControlSet{factories: map[string]ControlFactory{}}
}

// Register adds or replaces a control. New names are appended.
func (cs *ControlSet) Register(name string, f ControlFactory) {
	if _, ok := cs.factories[name]; !ok {
		cs.names = append(cs.names, name)
	}
	cs.factories[name] = f
}

func (cs *ControlSet) Names() []string { return append([]string(nil), cs.names...) }

// Build returns a new control, or nil for an unknown name.
func (cs *ControlSet) Build(name string, h Host) Control {
	f, ok := cs.factories[name]
	if !ok {
		return nil
	}
	return f(h)
}

// DefaultControls returns the stock panel: options, refresh, text, keyevent
// and actions.
func DefaultControls() *ControlSet {
	cs := NewControlSet()
	cs.Register("options", newOptionsControl)
	cs.Register("refresh", newRefreshControl)
	cs.Register("text", newTextControl)
	cs.Register("keyevent", newKeyEventControl)
	cs.Register("actions", newActionsControl)
	return cs
}

// ---------------------------------------------------------------------------
// Button cooldown
// ---------------------------------------------------------------------------

type cooldownDoneMsg struct {
	owner *cooldown
	gen   int
}

// cooldown disables a control's button for a while after it fires.
type cooldown struct {
	active bool
	gen    int
}

func (c *cooldown) Start(d time.Duration) tea.Cmd {
	c.active = true
	c.gen++
	msg := cooldownDoneMsg{owner: c, gen: c.gen}
	return tea.Tick(d, func(time.Time) tea.Msg { return msg })
}

// Update re-enables the button when its own timer fires.
func (c *cooldown) Update(msg tea.Msg) bool {
	m, ok := msg.(cooldownDoneMsg)
	if !ok || m.owner != c {
		return false
	}
	if m.gen == c.gen {
		c.active = false
	}
	return true
}

func (c *cooldown) Active() bool { return c.active }

func renderButton(label string, cd *cooldown) string {
	if cd != nil && cd.Active() {
		return disabledStyle.Render(label)
	}
	return buttonStyle.Render(label)
}

// ---------------------------------------------------------------------------
// options
// ---------------------------------------------------------------------------

type optionsControl struct {
	host    Host
	focused bool
}

func newOptionsControl(h Host) Control { return &optionsControl{host: h} }

func (c *optionsControl) Init() tea.Cmd { return nil }
func (c *optionsControl) Focus() tea.Cmd {
	c.focused = true
	return nil
}
func (c *optionsControl) Blur() { c.focused = false }

func (c *optionsControl) Update(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyMsg); ok && c.focused {
		switch k.String() {
		case " ", "enter", "d":
			c.host.SetDebug(!c.host.Debug())
		}
	}
	return nil
}

func (c *optionsControl) View(width int) string {
	mark := "[ ]"
	if c.host.Debug() {
		mark = "[x]"
	}
	return truncate(mark+" debug logging", width) + "\n" + hintStyle.Render(truncate("space: toggle", width))
}

// ---------------------------------------------------------------------------
// refresh
// ---------------------------------------------------------------------------

const intervalStep = 100 * time.Millisecond

type refreshControl struct {
	host  Host
	input textinput.Model
	err   string
}

func newRefreshControl(h Host) Control {
	in := textinput.New()
	in.Prompt = "interval ms: "
	in.CharLimit = 5
	in.Width = 6
	in.Validate = func(s string) error {
		for _, r := range s {
			if r < '0' || r > '9' {
				return fmt.Errorf("digits only")
			}
		}
		return nil
	}
	c := &refreshControl{host: h, input: in}
	c.sync()
	return c
}

func (c *refreshControl) sync() {
	c.input.SetValue(strconv.FormatInt(c.host.Interval().Milliseconds(), 10))
	c.input.CursorEnd()
}

func (c *refreshControl) Init() tea.Cmd { return nil }
func (c *refreshControl) Blur()         { c.input.Blur() }

func (c *refreshControl) Focus() tea.Cmd {
	c.sync()
	return c.input.Focus()
}

func (c *refreshControl) apply(d time.Duration) tea.Cmd {
	_, cmd := c.host.SetInterval(d)
	c.err = ""
	c.sync()
	return cmd
}

func (c *refreshControl) Update(msg tea.Msg) tea.Cmd {
	if !c.input.Focused() {
		return nil
	}
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		c.input, cmd = c.input.Update(msg)
		return cmd
	}
	switch k.String() {
	case "up":
		return c.apply(c.host.Interval() + intervalStep)
	case "down":
		return c.apply(c.host.Interval() - intervalStep)
	case "enter":
		ms, err := strconv.Atoi(strings.TrimSpace(c.input.Value()))
		if err != nil {
			c.err = "enter a number of milliseconds"
			return nil
		}
		return c.apply(time.Duration(ms) * time.Millisecond)
	}
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return cmd
}

func (c *refreshControl) View(width int) string {
	lines := []string{c.input.View() + " " + renderButton("Update", nil)}
	if c.err != "" {
		lines = append(lines, statusErrBarStyle.Render(truncate(c.err, width)))
	}
	lines = append(lines, hintStyle.Render(truncate("↑/↓ ±100ms  enter: apply (100-2000)", width)))
	return strings.Join(lines, "\n")
}

// ---------------------------------------------------------------------------
// text
// ---------------------------------------------------------------------------

type textControl struct {
	host  Host
	input textinput.Model
	cd    cooldown
}

func newTextControl(h Host) Control {
	in := textinput.New()
	in.Prompt = "text: "
	in.Placeholder = "ascii only"
	in.CharLimit = 512
	in.Width = 24
	return &textControl{host: h, input: in}
}

func (c *textControl) Init() tea.Cmd  { return nil }
func (c *textControl) Focus() tea.Cmd { return c.input.Focus() }
func (c *textControl) Blur()          { c.input.Blur() }

func (c *textControl) Update(msg tea.Msg) tea.Cmd {
	if c.cd.Update(msg) {
		return nil
	}
	if !c.input.Focused() {
		return nil
	}
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "enter" {
		text := transport.ASCII(c.input.Value())
		if c.cd.Active() || text == "" {
			return nil
		}
		button, _ := c.host.Cooldowns()
		c.input.SetValue("")
		return tea.Batch(c.cd.Start(button), c.host.Submit(sourcePanel, transport.Text(text)))
	}
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return cmd
}

func (c *textControl) View(width int) string {
	return c.input.View() + " " + renderButton("Send", &c.cd) + "\n" +
		hintStyle.Render(truncate("enter: send", width))
}

// ---------------------------------------------------------------------------
// keyevent
// ---------------------------------------------------------------------------

type keyEventControl struct {
	host    Host
	picker  *pickerState
	long    bool
	focused bool
	cd      cooldown
}

func newKeyEventControl(h Host) Control {
	keys := keycode.All()
	items := make([]pickerItem, len(keys))
	for i, k := range keys {
		items[i] = pickerItem{ID: i, Label: k.Name, Value: k.Code}
	}
	return &keyEventControl{host: h, picker: newPicker(items, 5)}
}

func (c *keyEventControl) Init() tea.Cmd { return nil }
func (c *keyEventControl) Focus() tea.Cmd {
	c.focused = true
	return nil
}
func (c *keyEventControl) Blur() { c.focused = false }

func (c *keyEventControl) Update(msg tea.Msg) tea.Cmd {
	if c.cd.Update(msg) {
		return nil
	}
	k, ok := msg.(tea.KeyMsg)
	if !ok || !c.focused {
		return nil
	}
	if k.String() == "ctrl+l" {
		c.long = !c.long
		return nil
	}
	res := c.picker.HandleKey(k.String())
	if res.Action != pickerActionSelected || c.cd.Active() {
		return nil
	}
	button, key := c.host.Cooldowns()
	wait := key
	if c.long {
		wait = button
	}
	return tea.Batch(c.cd.Start(wait), c.host.Submit(sourcePanel, transport.KeyEvent(res.Item.Value, c.long)))
}

func (c *keyEventControl) View(width int) string {
	long := "[ ]"
	if c.long {
		long = "[x]"
	}
	return c.picker.View(width) + "\n" +
		long + " long  " + renderButton("Send", &c.cd) + "\n" +
		hintStyle.Render(truncate("type to filter  ctrl+l: long  enter: send", width))
}

// ---------------------------------------------------------------------------
// actions
// ---------------------------------------------------------------------------

const (
	minIterations  = 1
	maxIterations  = 1000
	iterationsStep = 10
)

type queuesLoadedMsg struct {
	queues []string
	err    error
}

type actionsControl struct {
	host       Host
	picker     *pickerState
	iterations int
	loading    bool
	err        string
	focused    bool
	cd         cooldown
}

func newActionsControl(h Host) Control {
	return &actionsControl{host: h, picker: newPicker(nil, 4), iterations: 1}
}

func (c *actionsControl) Init() tea.Cmd {
	c.loading = true
	return c.host.LoadQueues()
}

func (c *actionsControl) Focus() tea.Cmd {
	c.focused = true
	return nil
}
func (c *actionsControl) Blur() { c.focused = false }

func (c *actionsControl) Update(msg tea.Msg) tea.Cmd {
	if c.cd.Update(msg) {
		return nil
	}
	switch m := msg.(type) {
	case queuesLoadedMsg:
		c.loading = false
		if m.err != nil {
			c.err = m.err.Error()
			return nil
		}
		c.err = ""
		items := make([]pickerItem, len(m.queues))
		for i, q := range m.queues {
			items[i] = pickerItem{ID: i, Label: q, Value: q}
		}
		c.picker.SetItems(items)
		return nil
	case tea.KeyMsg:
		if !c.focused {
			return nil
		}
		switch m.String() {
		case "right":
			c.iterations = clampIterations(c.iterations + iterationsStep)
			return nil
		case "left":
			c.iterations = clampIterations(c.iterations - iterationsStep)
			return nil
		case "ctrl+r":
			return c.Init()
		}
		res := c.picker.HandleKey(m.String())
		if res.Action != pickerActionSelected || c.cd.Active() {
			return nil
		}
		button, _ := c.host.Cooldowns()
		return tea.Batch(c.cd.Start(button), c.host.RunQueue(res.Item.Value, c.iterations))
	}
	return nil
}

func clampIterations(n int) int {
	return min(max(n, minIterations), maxIterations)
}

func (c *actionsControl) View(width int) string {
	var lines []string
	switch {
	case c.loading:
		lines = append(lines, hintStyle.Render("loading queues…"))
	case c.err != "":
		lines = append(lines, statusErrBarStyle.Render(truncate(c.err, width)))
	default:
		lines = append(lines, c.picker.View(width))
	}
	lines = append(lines,
		fmt.Sprintf("iterations: %d  ", c.iterations)+renderButton("Run", &c.cd),
		hintStyle.Render(truncate("←/→ ±10  ctrl+r: reload  enter: run", width)),
	)
	return strings.Join(lines, "\n")
}
