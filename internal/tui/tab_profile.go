package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/fintree/internal/cli"
	"github.com/theirongolddev/fintree/internal/scoreapi"
	"github.com/theirongolddev/fintree/internal/tui/components"
	"github.com/theirongolddev/fintree/internal/tui/theme"
)

func (a App) renderProfileTab(cw int) string {
	t := theme.Active
	snap := a.snap

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	inner := components.CardInnerWidth(cw)
	var b strings.Builder

	// Money summary
	var money strings.Builder
	if r := snap.Report; r != nil {
		money.WriteString(components.HBars([]components.Bar{
			{Label: "Income", Value: r.TotalIncome, Text: cli.FormatMoney(r.TotalIncome), Color: t.Green},
			{Label: "Expenses", Value: r.TotalExpenses, Text: cli.FormatMoney(r.TotalExpenses), Color: t.Red},
		}, inner))
		money.WriteString("\n\n")
		money.WriteString(labelStyle.Render("Savings   "))
		money.WriteString(components.RatioBar(r.SavingsRate, max(inner-20, 10)))
		money.WriteString(valueStyle.Render(" " + cli.FormatRate(r.SavingsRate)))
		money.WriteString("\n")
		money.WriteString(labelStyle.Render("Tracking  "))
		money.WriteString(valueStyle.Render(cli.FormatDays(r.DaysInSystem)))
	} else {
		money.WriteString(dimStyle.Render("No report yet. The score service has not answered."))
	}
	b.WriteString(components.ContentCard("Finances", money.String(), cw))
	b.WriteString("\n")

	title, body := a.renderMonthly(inner)
	b.WriteString(components.ContentCard(title, body, cw))
	b.WriteString("\n")

	// Score history for this session
	var hist strings.Builder
	if len(a.history) == 0 {
		hist.WriteString(dimStyle.Render("Collecting..."))
	} else {
		last := a.history[len(a.history)-1]
		hist.WriteString(components.Sparkline(a.history, lipgloss.Color(a.frame().Palette.Stroke)))
		hist.WriteString(valueStyle.Render(fmt.Sprintf("  %d refreshes, now %.0f%%", len(a.history), last)))
	}
	b.WriteString(components.ContentCard("Score this session", hist.String(), cw))
	b.WriteString("\n")

	// Recent suggestions
	var recent strings.Builder
	title = "Recent suggestions"
	switch {
	case a.recent == nil:
		recent.WriteString(dimStyle.Render("Not loaded."))
	case len(a.recent.Suggestions) == 0:
		recent.WriteString(dimStyle.Render("No suggestions yet."))
	default:
		title = fmt.Sprintf("Recent suggestions (%d unread)", a.recent.UnreadCount)
		now := time.Now()
		unread := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
		for i, s := range a.recent.Suggestions {
			if i > 0 {
				recent.WriteString("\n")
			}
			marker := dimStyle.Render("  ")
			if !s.IsRead {
				marker = unread.Render("● ")
			}
			age := cli.FormatAge(s.CreatedAt, now)
			textW := max(inner-lipgloss.Width(age)-4, 10)
			recent.WriteString(marker)
			recent.WriteString(valueStyle.Render(fmt.Sprintf("%-*s", textW, truncStr(firstLine(s.Text), textW))))
			recent.WriteString(dimStyle.Render(" " + age))
		}
	}
	b.WriteString(components.ContentCard(title, recent.String(), cw))

	return b.String()
}

// renderMonthly shows the current month's spending by category.
func (a App) renderMonthly(inner int) (string, string) {
	t := theme.Active
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	m := a.monthly
	switch {
	case errors.Is(a.monthlyErr, scoreapi.ErrNotFound):
		return "This month", dimStyle.Render("No transactions recorded this month.")
	case a.monthlyErr != nil:
		return "This month", dimStyle.Render("Monthly summary unavailable.")
	case m == nil:
		return "This month", dimStyle.Render("Loading...")
	}

	title := fmt.Sprintf("%s %d", m.Month, m.Year)
	var b strings.Builder
	b.WriteString(labelStyle.Render("Server stage "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d", m.TreeLevel)))
	b.WriteString(labelStyle.Render("   Spent "))
	b.WriteString(valueStyle.Render(cli.FormatMoney(m.TotalExpenses)))
	b.WriteString(labelStyle.Render("   Saved "))
	b.WriteString(valueStyle.Render(cli.FormatRate(m.SavingsRate)))
	b.WriteString("\n\n")

	palette := []lipgloss.Color{t.Blue, t.Orange, t.Cyan, t.Magenta, t.Yellow, t.Green, t.Red}
	bars := make([]components.Bar, 0, len(m.Categories))
	for i, c := range m.Categories {
		if c.Amount <= 0 {
			continue
		}
		bars = append(bars, components.Bar{
			Label: c.Name,
			Value: c.Amount,
			Text:  cli.FormatMoney(c.Amount),
			Color: palette[i%len(palette)],
		})
	}
	if len(bars) == 0 {
		b.WriteString(dimStyle.Render("No spending recorded."))
	} else {
		b.WriteString(components.HBars(bars, inner))
	}
	return title, b.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
