package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/fintree/internal/cli"
	"github.com/theirongolddev/fintree/internal/tui/components"
	"github.com/theirongolddev/fintree/internal/tui/theme"
)

func (a App) greeting() string {
	g := a.cfg.Profile.Greeting
	if g == "" {
		g = "Welcome back"
	}
	if a.cfg.Profile.Name != "" {
		return g + ", " + a.cfg.Profile.Name
	}
	return g
}

func (a App) renderHomeTab(cw int) string {
	t := theme.Active
	snap := a.snap
	f := a.frame()

	titleStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Background).Bold(true)
	subStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Background)

	var b strings.Builder
	b.WriteString(titleStyle.Render(" " + a.greeting()))
	b.WriteString("\n")
	b.WriteString(subStyle.Render(" " + time.Now().Format("Monday, January 2")))
	b.WriteString("\n")

	days, savings := "-", "-"
	if r := snap.Report; r != nil {
		days = cli.FormatDays(r.DaysInSystem)
		savings = cli.FormatRate(r.SavingsRate)
	}
	scoreHint := "live"
	if snap.ScoreFallback {
		scoreHint = "offline estimate"
	}

	metrics := []components.Metric{
		{Label: "Health score", Value: cli.FormatScore(snap.RawScore, snap.Scale), Hint: scoreHint, Color: lipgloss.Color(f.Palette.Stroke)},
		{Label: "Tree stage", Value: f.Tier.Name, Hint: fmt.Sprintf("stage %d of %d", f.Tier.Index, f.Tier.Count)},
		{Label: "Days tracked", Value: days},
		{Label: "Savings rate", Value: savings},
	}
	if a.isCompactLayout() {
		b.WriteString(components.MetricCardRow(metrics[:2], cw))
		b.WriteString("\n")
		b.WriteString(components.MetricCardRow(metrics[2:], cw))
	} else {
		b.WriteString(components.MetricCardRow(metrics, cw))
	}
	b.WriteString("\n")

	inner := components.CardInnerWidth(cw)
	b.WriteString(components.ContentCard("Progress", components.ScoreBar(snap.Progress, inner-6), cw))
	b.WriteString("\n")

	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	actions := []struct{ key, desc string }{
		{"c", "Open today's campaign"},
		{"p", "See your financial profile"},
		{"r", "Refresh score"},
	}
	var ab strings.Builder
	for i, act := range actions {
		if i > 0 {
			ab.WriteString("\n")
		}
		ab.WriteString(keyStyle.Render(fmt.Sprintf("[%s]", act.key)))
		ab.WriteString(descStyle.Render(" " + act.desc))
	}
	b.WriteString(components.ContentCard("Quick actions", ab.String(), cw))

	return b.String()
}
