package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/fintree/internal/tui/theme"
)

// Status is what the bottom bar reports about the data on screen.
type Status struct {
	DataAge     string // "2 minutes ago", empty before the first fetch
	Fetching    string // spinner frame while a fetch is in flight
	AutoRefresh bool
	Degraded    bool // some value on screen is a fallback
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, st Status) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	left := base.Render(" [?]help  [r]efresh  [q]uit")

	var right []string
	if st.Degraded {
		right = append(right, warn.Render("offline values"))
	}
	if st.AutoRefresh {
		right = append(right, accent.Render("auto"))
	}
	switch {
	case st.Fetching != "":
		right = append(right, accent.Render(st.Fetching+" fetching"))
	case st.DataAge != "":
		right = append(right, dim.Render("updated "+st.DataAge))
	}
	r := strings.Join(right, dim.Render(" · ")) + base.Render(" ")

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(r), 0)
	return left + base.Render(strings.Repeat(" ", padding)) + r
}
