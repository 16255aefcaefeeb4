package tui

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/fintree/internal/config"
	"github.com/theirongolddev/fintree/internal/tui/theme"
)

// SetupValues are the answers collected by the first-run form.
type SetupValues struct {
	BaseURL string
	UserID  string
	Name    string
	Scale   int
	Theme   string
}

// NewSetupValues seeds the form from an existing config.
func NewSetupValues(cfg config.Config) *SetupValues {
	return &SetupValues{
		BaseURL: cfg.API.BaseURL,
		UserID:  cfg.API.UserID,
		Name:    cfg.Profile.Name,
		Scale:   cfg.Score.Scale,
		Theme:   cfg.Appearance.Theme,
	}
}

// NewSetupForm builds the first-run form. It is shared by the TUI and the
// `fintree setup` command.
func NewSetupForm(v *SetupValues) *huh.Form {
	themes := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themes = append(themes, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to fintree").
				Description("Point fintree at your scoring service.\nEverything can be changed later in Settings."),
			huh.NewInput().
				Title("Service URL").
				Placeholder("https://api.example.com").
				Value(&v.BaseURL).
				Validate(validateBaseURL),
			huh.NewInput().
				Title("User ID").
				Value(&v.UserID).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("user id is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Display name").
				Description("Shown in the dashboard greeting. Optional.").
				Value(&v.Name),
		),
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Score scale").
				Description("The range your service reports scores in.").
				Options(
					huh.NewOption("0-100", 100),
					huh.NewOption("0-1000", 1000),
				).
				Value(&v.Scale),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themes...).
				Value(&v.Theme),
		),
	).WithShowHelp(true)
}

func validateBaseURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%q is not an http(s) URL", s)
	}
	return nil
}

// Apply returns cfg updated with the form answers.
func (v *SetupValues) Apply(cfg config.Config) config.Config {
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(v.BaseURL), "/")
	cfg.API.UserID = strings.TrimSpace(v.UserID)
	cfg.Profile.Name = strings.TrimSpace(v.Name)
	if v.Scale != cfg.Score.Scale && cfg.Score.Scale > 0 {
		cfg.Score.FallbackScore = cfg.Score.FallbackScore / float64(cfg.Score.Scale) * float64(v.Scale)
	}
	cfg.Score.Scale = v.Scale
	if _, ok := theme.Lookup(v.Theme); ok {
		cfg.Appearance.Theme = v.Theme
	}
	return cfg
}
