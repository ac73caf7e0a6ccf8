package tui

import "github.com/charmbracelet/lipgloss"

// ---------------------------------------------------------------------------
// Catppuccin Mocha palette
// ---------------------------------------------------------------------------

const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorPeach    lipgloss.Color = "#fab387"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorBlue     lipgloss.Color = "#89b4fa"
	colorLavender lipgloss.Color = "#b4befe"

	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorOverlay0 lipgloss.Color = "#6c7086"
	colorSurface1 lipgloss.Color = "#45475a"
	colorSurface0 lipgloss.Color = "#313244"
	colorBase     lipgloss.Color = "#1e1e2e"
	colorMantle   lipgloss.Color = "#181825"
)

const (
	colorAccent  = colorPink
	colorFocus   = colorLavender
	colorSuccess = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
	colorInfo    = colorTeal
)

// ---------------------------------------------------------------------------
// Styles
// ---------------------------------------------------------------------------

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface1).
			Background(colorBase).
			Foreground(colorText).
			Padding(0, 1)

	panelFocusedStyle = panelStyle.BorderForeground(colorFocus)

	handleStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	iconStyle   = lipgloss.NewStyle().Foreground(colorBlue)

	tabStyle       = lipgloss.NewStyle().Foreground(colorOverlay1)
	tabActiveStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Underline(true)

	labelStyle    = lipgloss.NewStyle().Foreground(colorSubtext0)
	buttonStyle   = lipgloss.NewStyle().Foreground(colorBase).Background(colorBlue).Padding(0, 1)
	disabledStyle = lipgloss.NewStyle().Foreground(colorOverlay0).Background(colorSurface0).Padding(0, 1)
	hintStyle     = lipgloss.NewStyle().Foreground(colorOverlay0)
	cursorStyle   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)

	statusBarStyle    = lipgloss.NewStyle().Foreground(colorText)
	statusErrBarStyle = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	statusKeyStyle    = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	runningStyle      = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	stoppedStyle      = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	infoStyle         = lipgloss.NewStyle().Foreground(colorInfo)
	placeholderStyle  = lipgloss.NewStyle().Foreground(colorOverlay0).Background(colorMantle)
)
