// Package tui provides the interactive Bubble Tea dashboard for fintree.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/theirongolddev/fintree/internal/arc"
	"github.com/theirongolddev/fintree/internal/cli"
	"github.com/theirongolddev/fintree/internal/config"
	"github.com/theirongolddev/fintree/internal/model"
	"github.com/theirongolddev/fintree/internal/scoreapi"
	"github.com/theirongolddev/fintree/internal/tui/components"
	"github.com/theirongolddev/fintree/internal/tui/theme"
)

const (
	minTerminalWidth = 60
	compactWidth     = 100
	maxContentWidth  = 140
	minContentHeight = 5

	recentSuggestions = 5
	historyLen        = 40
)

// Options wire the app to its collaborators.
type Options struct {
	Config config.Config
	Client *scoreapi.Client // nil when the base URL is unusable
	Logger *zap.Logger
	// NeedSetup shows the first-run form before the dashboard.
	NeedSetup bool
	// Save persists config changes; defaults to config.Save.
	Save func(config.Config) error
}

// App is the root Bubble Tea model.
type App struct {
	cfg    config.Config
	client *scoreapi.Client
	log    *zap.Logger
	save   func(config.Config) error

	scale arc.Scale
	tiers arc.TierSelector

	// Data
	snap       model.Snapshot
	history    []float64 // normalized progress per fetch, oldest first
	recent     *scoreapi.SuggestionList
	monthly    *scoreapi.Monthly
	monthlyErr error

	// UI state
	width  int
	height int
	view   model.ViewState

	// Refresh state
	refreshInterval time.Duration
	lastRefresh     time.Time
	fetching        bool
	advancing       bool // card accepted, waiting for the next suggestion
	gen             int  // bumped when the data source changes

	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues
	needSetup bool

	spinner spinner.Model
	md      *markdown
}

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	save := opts.Save
	if save == nil {
		save = config.Save
	}

	scale, err := arc.ParseScale(cfg.Score.Scale)
	if err != nil {
		log.Warn("invalid score scale, using 100", zap.Error(err))
	}
	tiers, err := arc.ParseTierStrategy(cfg.Score.TierStrategy, cfg.Score.TierCount)
	if err != nil {
		log.Warn("invalid tier strategy, using default", zap.Error(err))
		tiers = arc.DefaultTiers
	}

	theme.SetActive(cfg.Appearance.Theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		cfg:             cfg,
		client:          opts.Client,
		log:             log,
		save:            save,
		scale:           scale,
		tiers:           tiers,
		snap:            model.Placeholder(cfg.API.UserID, fallbackOf(cfg), scale),
		view:            model.ViewState{ActiveTab: components.TabCampaigns, AutoRefresh: cfg.TUI.AutoRefresh},
		refreshInterval: cfg.RefreshInterval(),
		fetching:        true, // Init starts the first fetch
		needSetup:       opts.NeedSetup,
		spinner:         sp,
		md:              &markdown{},
	}
}

func fallbackOf(cfg config.Config) scoreapi.Fallback {
	return scoreapi.Fallback{
		Score:      cfg.Score.FallbackScore,
		Suggestion: cfg.Score.FallbackSuggestion,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
		tickCmd(),
		a.fetchCmd(),
		a.listSuggestions(),
		a.fetchMonthly(),
	}
	if a.needSetup {
		cmds = append(cmds, func() tea.Msg { return startSetupMsg{} })
	}
	return tea.Batch(cmds...)
}

type startSetupMsg struct{}

func (a App) fetchCmd() tea.Cmd {
	return fetchDashboardCmd(a.client, a.cfg.API.UserID, fallbackOf(a.cfg), a.cfg.Timeout(), a.gen)
}

func (a App) listSuggestions() tea.Cmd {
	return listSuggestionsCmd(a.client, a.cfg.API.UserID, a.cfg.Timeout(), a.gen)
}

func (a App) fetchMonthly() tea.Cmd {
	return fetchMonthlyCmd(a.client, a.cfg.API.UserID, time.Now(), a.cfg.Timeout(), a.gen)
}

// stale reports whether a fetch result belongs to an earlier data source.
func (a App) stale(gen int) bool {
	if gen != a.gen {
		a.log.Debug("dropping stale fetch result", zap.Int("gen", gen), zap.Int("current", a.gen))
		return true
	}
	return false
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case startSetupMsg:
		a.setupVals = NewSetupValues(a.cfg)
		a.setupForm = NewSetupForm(a.setupVals)
		if a.width > 0 {
			a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
		}
		a.view.Loading = true
		return a, a.setupForm.Init()

	case tea.MouseMsg:
		if a.view.ShowHelp || a.setupForm != nil {
			return a, nil
		}
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.view.ActiveTab = tab
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case DashboardMsg:
		if a.stale(msg.Gen) {
			return a, nil
		}
		a.applyDashboard(msg.Dash)
		return a, nil

	case SuggestionMsg:
		if a.stale(msg.Gen) {
			return a, nil
		}
		a.advancing = false
		a.snap = a.snap.WithSuggestion(msg.Suggestion, msg.Fallback, msg.Err)
		a.view.CardDismissed = false
		return a, a.listSuggestions()

	case SuggestionsMsg:
		if a.stale(msg.Gen) {
			return a, nil
		}
		if msg.Err != nil {
			a.log.Debug("listing suggestions failed", zap.Error(msg.Err))
			return a, nil
		}
		a.recent = msg.List
		return a, nil

	case MonthlyMsg:
		if a.stale(msg.Gen) {
			return a, nil
		}
		if msg.Err != nil && !errors.Is(msg.Err, scoreapi.ErrNotFound) {
			a.log.Debug("monthly summary failed", zap.Error(msg.Err))
		}
		a.monthly, a.monthlyErr = msg.Monthly, msg.Err
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.view.AutoRefresh && !a.fetching && a.setupForm == nil &&
			!a.lastRefresh.IsZero() && time.Since(a.lastRefresh) >= a.refreshInterval {
			a.fetching = true
			cmds = append(cmds, a.fetchCmd())
		}
		return a, tea.Batch(cmds...)
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	return a, nil
}

// applyDashboard swaps in a freshly fetched snapshot.
func (a *App) applyDashboard(d *scoreapi.Dashboard) {
	prev := a.snap
	a.snap = model.NewSnapshot(d, a.scale)
	a.fetching = false
	a.lastRefresh = time.Now()

	a.history = append(a.history, a.snap.Progress)
	if len(a.history) > historyLen {
		a.history = a.history[len(a.history)-historyLen:]
	}
	if a.snap.Suggestion != prev.Suggestion {
		a.view.CardDismissed = false
	}
	a.log.Debug("dashboard updated",
		zap.Float64("score", a.snap.RawScore),
		zap.Float64("progress", a.snap.Progress),
		zap.Bool("degraded", a.snap.Degraded()))
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	// First-run setup wizard intercepts all keys
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	// Settings tab has its own keybindings (text input)
	if a.view.ActiveTab == components.TabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}

	if key == "?" {
		a.view.ShowHelp = !a.view.ShowHelp
		return a, nil
	}
	if a.view.ShowHelp {
		a.view.ShowHelp = false
		return a, nil
	}

	switch a.view.ActiveTab {
	case components.TabCampaigns:
		switch key {
		case "esc":
			a.view.CardDismissed = true
			return a, nil
		case "enter":
			if a.view.CardDismissed {
				a.view.CardDismissed = false
				return a, nil
			}
			if a.advancing {
				return a, nil
			}
			a.advancing = true
			return a, nextSuggestionCmd(a.client, a.log, a.cfg.API.UserID, a.snap.SuggestionID,
				fallbackOf(a.cfg), a.cfg.Timeout(), a.gen)
		}
	case components.TabSettings:
		switch key {
		case "j", "down":
			if a.view.SettingsCursor < settingsFieldCount-1 {
				a.view.SettingsCursor++
			}
			return a, nil
		case "k", "up":
			if a.view.SettingsCursor > 0 {
				a.view.SettingsCursor--
			}
			return a, nil
		case "enter":
			return a.settingsStartEdit()
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if a.fetching {
			return a, nil
		}
		a.fetching = true
		return a, tea.Batch(a.fetchCmd(), a.listSuggestions(), a.fetchMonthly())
	case "R":
		a.view.AutoRefresh = !a.view.AutoRefresh
		a.cfg.TUI.AutoRefresh = a.view.AutoRefresh
		if err := a.save(a.cfg); err != nil {
			a.log.Warn("saving auto-refresh failed", zap.Error(err))
		}
		return a, nil
	case "left":
		a.view.ActiveTab = (a.view.ActiveTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.view.ActiveTab = (a.view.ActiveTab + 1) % len(components.Tabs)
		return a, nil
	}

	if runes := []rune(key); len(runes) == 1 {
		if idx := components.TabIdxByKey(runes[0]); idx >= 0 {
			a.view.ActiveTab = idx
		}
	}
	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.setupForm = nil
		a.needSetup = false
		a.view.Loading = false
		return a, a.applyConfig(a.setupVals.Apply(a.cfg))
	case huh.StateAborted:
		a.setupForm = nil
		a.needSetup = false
		a.view.Loading = false
		return a, nil
	}

	return a, cmd
}

// applyConfig adopts a changed config, persists it and refetches when the
// data source or score interpretation changed.
func (a *App) applyConfig(cfg config.Config) tea.Cmd {
	prev := a.cfg
	a.cfg = cfg
	a.settings.saveErr = a.save(cfg)
	if a.settings.saveErr != nil {
		a.log.Warn("saving config failed", zap.Error(a.settings.saveErr))
	}

	theme.SetActive(cfg.Appearance.Theme)
	a.view.AutoRefresh = cfg.TUI.AutoRefresh
	a.refreshInterval = cfg.RefreshInterval()

	if s, err := arc.ParseScale(cfg.Score.Scale); err == nil {
		a.scale = s
	}
	if sel, err := arc.ParseTierStrategy(cfg.Score.TierStrategy, cfg.Score.TierCount); err == nil {
		a.tiers = sel
	}

	if prev.API == cfg.API && prev.Score == cfg.Score {
		return nil
	}
	if prev.API.BaseURL != cfg.API.BaseURL || prev.API.TimeoutSec != cfg.API.TimeoutSec {
		a.client = scoreapi.NewClient(cfg.API.BaseURL,
			scoreapi.WithTimeout(cfg.Timeout()),
			scoreapi.WithLogger(a.log))
	}
	a.gen++
	a.history = nil
	a.recent = nil
	a.monthly, a.monthlyErr = nil, nil
	a.advancing = false
	a.fetching = true
	return tea.Batch(a.fetchCmd(), a.listSuggestions(), a.fetchMonthly())
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.view.ShowHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  fintree needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		name     string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"h c p x", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Move in settings"},
		}},
		{"Campaign card", []struct{ key, desc string }{
			{"enter", "OK: mark read, show next"},
			{"esc", "Back: hide the card"},
		}},
		{"Actions", []struct{ key, desc string }{
			{"r", "Refresh now"},
			{"R", "Toggle auto-refresh"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.name))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-8s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	header := components.RenderTabBar(a.view.ActiveTab, w)

	st := components.Status{
		AutoRefresh: a.view.AutoRefresh,
		Degraded:    a.snap.Degraded(),
	}
	if a.fetching || a.advancing {
		st.Fetching = a.spinner.View()
	} else if a.snap.Fetched() {
		st.DataAge = cli.FormatAge(a.snap.FetchedAt, time.Now())
	}
	statusBar := components.RenderStatusBar(w, st)

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.view.ActiveTab {
	case components.TabHome:
		content = a.renderHomeTab(cw)
	case components.TabCampaigns:
		content = a.renderCampaignsTab(cw)
	case components.TabProfile:
		content = a.renderProfileTab(cw)
	case components.TabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// frame renders the current snapshot's gauge.
func (a App) frame() arc.Frame {
	return a.snap.Frame(arc.DefaultGeometry, a.tiers)
}

// ─── Helpers ────────────────────────────────────────────────────

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes use the same widths as RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.view.ActiveTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1 // separator
	}
	return -1
}
