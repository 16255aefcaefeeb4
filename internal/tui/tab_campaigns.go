package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/fintree/internal/arc"
	"github.com/theirongolddev/fintree/internal/cli"
	"github.com/theirongolddev/fintree/internal/tui/components"
	"github.com/theirongolddev/fintree/internal/tui/theme"
)

const (
	gaugeRows        = 9
	compactGaugeRows = 7
)

func (a App) renderCampaignsTab(cw int) string {
	t := theme.Active
	snap := a.snap
	f := a.frame()

	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Background).Bold(true)
	idStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Background)

	name := a.cfg.Profile.Name
	if name == "" {
		name = "Your tree"
	}

	var b strings.Builder
	b.WriteString(nameStyle.Render(" " + name))
	b.WriteString(idStyle.Render("  @" + snap.UserID))
	b.WriteString("\n")

	rows := gaugeRows
	if a.isCompactLayout() || a.height < 32 {
		rows = compactGaugeRows
	}
	gauge := components.Gauge(f, rows)
	gaugeW := lipgloss.Width(gauge) + 4

	stage := a.renderStage(f)
	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("", lipgloss.PlaceHorizontal(components.CardInnerWidth(cw), lipgloss.Center, gauge,
			lipgloss.WithWhitespaceBackground(t.Surface)), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Stage", stage, cw))
	} else {
		b.WriteString(components.CardRow([]string{
			components.ContentCard("", gauge, gaugeW),
			components.ContentCard("Stage", stage, cw-gaugeW),
		}))
	}
	b.WriteString("\n")

	if a.view.CardDismissed {
		hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Background)
		b.WriteString(hint.Render(" Campaign hidden. Press enter to show it again."))
		return b.String()
	}

	inner := components.CardInnerWidth(cw)
	body := a.md.render(snap.Suggestion, inner)
	title := "Today's campaign"
	if a.advancing {
		title += " " + a.spinner.View()
	}
	b.WriteString(components.CampaignCard(title, body, snap.SuggestionFallback, cw))

	return b.String()
}

// renderStage describes the current tree stage next to the gauge.
func (a App) renderStage(f arc.Frame) string {
	t := theme.Active

	tierStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(f.Palette.Stroke)).Background(t.Surface).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	var b strings.Builder
	b.WriteString(tierStyle.Render(f.Tier.Name))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(fmt.Sprintf("Stage %d of %d", f.Tier.Index, f.Tier.Count)))
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("Score     "))
	b.WriteString(valueStyle.Render(cli.FormatScore(a.snap.RawScore, a.snap.Scale)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Progress  "))
	b.WriteString(valueStyle.Render(f.Label))
	b.WriteString("\n")

	if next, ok := a.nextStageAt(f); ok {
		b.WriteString(labelStyle.Render("Next      "))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%s at %s", next.Name, arc.Label(next.at))))
		b.WriteString("\n")
	}

	if f.Progress <= arc.WarningThreshold {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("Your tree needs attention."))
	}
	if a.snap.ScoreFallback {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("Score service unreachable; showing the saved estimate."))
	}
	return b.String()
}

type nextStage struct {
	arc.Tier
	at float64
}

// nextStageAt finds the smallest whole percentage that reaches the next tier.
func (a App) nextStageAt(f arc.Frame) (nextStage, bool) {
	if f.Tier.Index >= f.Tier.Count {
		return nextStage{}, false
	}
	for p := float64(int(f.Progress)) + 1; p <= 100; p++ {
		if tier := a.tiers.Select(p); tier.Index > f.Tier.Index {
			return nextStage{Tier: tier, at: p}, true
		}
	}
	return nextStage{}, false
}
