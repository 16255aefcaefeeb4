package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/fintree/internal/config"
	"github.com/theirongolddev/fintree/internal/tui/components"
	"github.com/theirongolddev/fintree/internal/tui/theme"
)

const (
	settingsFieldAPIURL = iota
	settingsFieldUserID
	settingsFieldTheme
	settingsFieldScale
	settingsFieldTierStrategy
	settingsFieldAutoRefresh
	settingsFieldRefreshInterval
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state. The cursor lives in
// model.ViewState so renderers see it.
type settingsState struct {
	editing bool
	input   textinput.Model
	saved   bool  // flash "saved" message briefly
	saveErr error // non-nil if last save or validation failed
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	return ti
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	cfg := a.cfg
	a.settings.editing = true
	a.settings.saved = false

	ti := newSettingsInput()

	switch a.view.SettingsCursor {
	case settingsFieldAPIURL:
		ti.Placeholder = "https://api.example.com"
		ti.SetValue(cfg.API.BaseURL)
	case settingsFieldUserID:
		ti.Placeholder = "user id"
		ti.SetValue(cfg.API.UserID)
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(cfg.Appearance.Theme)
	case settingsFieldScale:
		ti.Placeholder = "100 or 1000"
		ti.SetValue(strconv.Itoa(cfg.Score.Scale))
	case settingsFieldTierStrategy:
		ti.Placeholder = "proportional or breakpoints"
		ti.SetValue(cfg.Score.TierStrategy)
	case settingsFieldAutoRefresh:
		ti.Placeholder = "true or false"
		ti.SetValue(strconv.FormatBool(a.view.AutoRefresh))
	case settingsFieldRefreshInterval:
		ti.Placeholder = "60 (seconds, minimum 5)"
		ti.SetValue(strconv.Itoa(int(a.refreshInterval.Seconds())))
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settings.editing = false
		cfg, err := a.settingsEdited()
		if err != nil {
			a.settings.saveErr = err
			a.settings.saved = false
			return a, nil
		}
		cmd := a.applyConfig(cfg)
		a.settings.saved = a.settings.saveErr == nil
		return a, cmd
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsEdited returns the config with the edited field applied, or an
// error when the value does not parse or the result would not validate.
func (a App) settingsEdited() (config.Config, error) {
	cfg := a.cfg
	val := strings.TrimSpace(a.settings.input.Value())

	switch a.view.SettingsCursor {
	case settingsFieldAPIURL:
		cfg.API.BaseURL = strings.TrimRight(val, "/")
	case settingsFieldUserID:
		cfg.API.UserID = val
	case settingsFieldTheme:
		if _, ok := theme.Lookup(val); !ok {
			return cfg, fmt.Errorf("unknown theme %q", val)
		}
		cfg.Appearance.Theme = val
	case settingsFieldScale:
		n, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("scale %q is not a number", val)
		}
		cfg.Score.Scale = n
		// Keep the fallback on the same relative spot of the gauge.
		if n != a.cfg.Score.Scale && a.cfg.Score.Scale > 0 {
			cfg.Score.FallbackScore = a.cfg.Score.FallbackScore / float64(a.cfg.Score.Scale) * float64(n)
		}
	case settingsFieldTierStrategy:
		cfg.Score.TierStrategy = strings.ToLower(val)
	case settingsFieldAutoRefresh:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return cfg, errors.New("auto refresh must be true or false")
		}
		cfg.TUI.AutoRefresh = b
	case settingsFieldRefreshInterval:
		n, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("interval %q is not a number", val)
		}
		cfg.TUI.RefreshIntervalSec = n
	}

	if err := cfg.Validate(); err != nil {
		return a.cfg, err
	}
	return cfg, nil
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := a.cfg

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	type field struct {
		label string
		value string
	}

	apiDisplay := cfg.API.BaseURL
	if a.client == nil {
		apiDisplay += " (invalid)"
	}

	fields := []field{
		{"API URL", apiDisplay},
		{"User ID", cfg.API.UserID},
		{"Theme", cfg.Appearance.Theme},
		{"Score Scale", fmt.Sprintf("0-%d", cfg.Score.Scale)},
		{"Tier Strategy", cfg.Score.TierStrategy},
		{"Auto Refresh", strconv.FormatBool(a.view.AutoRefresh)},
		{"Refresh Interval", fmt.Sprintf("%ds", int(a.refreshInterval.Seconds()))},
	}

	var formBody strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.view.SettingsCursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.view.SettingsCursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			formBody.WriteString(marker)
			formBody.WriteString(label)
			formBody.WriteString(value)
			usedWidth := lipgloss.Width(marker) + lipgloss.Width(label) + lipgloss.Width(value)
			if padLen := components.CardInnerWidth(cw) - usedWidth; padLen > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", padLen)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(f.value))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		formBody.WriteString("\n")
		for _, line := range strings.Split(a.settings.saveErr.Error(), "\n") {
			formBody.WriteString(warnStyle.Render(truncStr("Not saved: "+line, components.CardInnerWidth(cw))))
			formBody.WriteString("\n")
		}
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render("Saved!"))
		formBody.WriteString("\n")
	}

	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	var infoBody strings.Builder
	infoBody.WriteString(labelStyle.Render("Config file:     ") + valueStyle.Render(config.ConfigPath()) + "\n")
	infoBody.WriteString(labelStyle.Render("Tiers:           ") + valueStyle.Render(tierSummary(cfg)) + "\n")
	infoBody.WriteString(labelStyle.Render("Fallback score:  ") + valueStyle.Render(strconv.FormatFloat(cfg.Score.FallbackScore, 'f', -1, 64)))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", infoBody.String(), cw))

	return b.String()
}

func tierSummary(cfg config.Config) string {
	if cfg.Score.TierStrategy == "breakpoints" {
		return "5 stages at 20/40/60/80%"
	}
	return fmt.Sprintf("%d equal stages", cfg.Score.TierCount)
}
