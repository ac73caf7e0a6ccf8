package tui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/droidview/internal/keycode"
)

type pickerItem struct {
	ID    int
	Label string
	Value string
}

type pickerState struct {
	items    []pickerItem
	filtered []pickerItem
	query    string
	cursor   int
	visible  int
}

type pickerAction int

const (
	pickerActionNone pickerAction = iota
	pickerActionMoved
	pickerActionFiltered
	pickerActionSelected
	pickerActionCancelled
)

type pickerResult struct {
	Action pickerAction
	Item   pickerItem
}

type scoredPickerItem struct {
	item  pickerItem
	score int
}

func newPicker(items []pickerItem, visible int) *pickerState {
	p := &pickerState{visible: max(visible, 1)}
	p.SetItems(items)
	return p
}

func (p *pickerState) SetItems(items []pickerItem) {
	p.items = append([]pickerItem(nil), items...)
	p.rebuildFiltered()
}

func (p *pickerState) SetQuery(q string) {
	p.query = q
	p.rebuildFiltered()
}

func (p *pickerState) Query() string { return p.query }
func (p *pickerState) Len() int      { return len(p.filtered) }

// Current returns the item under the cursor.
func (p *pickerState) Current() (pickerItem, bool) {
	if len(p.filtered) == 0 {
		return pickerItem{}, false
	}
	return p.filtered[min(p.cursor, len(p.filtered)-1)], true
}

func (p *pickerState) HandleKey(keyName string) pickerResult {
	switch keyName {
	case "up", "ctrl+k":
		if p.cursor > 0 {
			p.cursor--
			return pickerResult{Action: pickerActionMoved}
		}
		return pickerResult{Action: pickerActionNone}
	case "down", "ctrl+j":
		if p.cursor < len(p.filtered)-1 {
			p.cursor++
			return pickerResult{Action: pickerActionMoved}
		}
		return pickerResult{Action: pickerActionNone}
	case "enter":
		if it, ok := p.Current(); ok {
			return pickerResult{Action: pickerActionSelected, Item: it}
		}
		return pickerResult{Action: pickerActionNone}
	case "esc":
		if p.query != "" {
			p.SetQuery("")
			return pickerResult{Action: pickerActionFiltered}
		}
		return pickerResult{Action: pickerActionCancelled}
	case "backspace":
		if len(p.query) > 0 {
			p.SetQuery(p.query[:len(p.query)-1])
			return pickerResult{Action: pickerActionFiltered}
		}
		return pickerResult{Action: pickerActionNone}
	default:
		if isPrintableASCIIKey(keyName) {
			p.SetQuery(p.query + keyName)
			return pickerResult{Action: pickerActionFiltered}
		}
		return pickerResult{Action: pickerActionNone}
	}
}

func (p *pickerState) View(width int) string {
	var lines []string
	query := strings.TrimSpace(p.query)
	searchValue := lipgloss.NewStyle().Foreground(colorOverlay1).Render("(type to filter)")
	if query != "" {
		searchValue = lipgloss.NewStyle().Foreground(colorText).Render(query)
	}
	lines = append(lines, labelStyle.Render("Filter: ")+searchValue)

	if len(p.filtered) == 0 {
		lines = append(lines, hintStyle.Render("  no matches"))
		return strings.Join(lines, "\n")
	}

	start := 0
	if p.cursor >= p.visible {
		start = p.cursor - p.visible + 1
	}
	end := min(start+p.visible, len(p.filtered))
	for i := start; i < end; i++ {
		it := p.filtered[i]
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(colorOverlay1)
		if i == p.cursor {
			prefix = cursorStyle.Render("> ")
			style = lipgloss.NewStyle().Foreground(colorText).Bold(true)
		}
		lines = append(lines, truncate(prefix+style.Render(it.Label), width))
	}
	return strings.Join(lines, "\n")
}

func (p *pickerState) rebuildFiltered() {
	q := strings.TrimSpace(p.query)
	scored := make([]scoredPickerItem, 0, len(p.items))
	for _, it := range p.items {
		matched, score := keycode.MatchScore(it.Label, q)
		if !matched {
			continue
		}
		scored = append(scored, scoredPickerItem{item: it, score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].item.ID < scored[j].item.ID
	})
	out := make([]pickerItem, len(scored))
	for i := range scored {
		out[i] = scored[i].item
	}
	p.filtered = out

	if p.cursor > len(p.filtered)-1 {
		p.cursor = len(p.filtered) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

func isPrintableASCIIKey(keyName string) bool {
	return len(keyName) == 1 && keyName[0] >= 32 && keyName[0] < 127
}
