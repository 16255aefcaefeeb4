package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/fintree/internal/config"
	"github.com/theirongolddev/fintree/internal/logging"
	"github.com/theirongolddev/fintree/internal/scoreapi"
	"github.com/theirongolddev/fintree/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	// stdout belongs to Bubble Tea, so logs always go to a file.
	logFile := cfg.Log.File
	if logFile == "" {
		logFile = logging.DefaultFile()
	}
	log, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Verbose: flagVerbose,
		File:    logFile,
	})
	if err != nil {
		log = zap.NewNop()
	}
	defer func() { _ = log.Sync() }()

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	// A nil client is fine: the app shows fallback values and the
	// settings tab flags the URL.
	client := scoreapi.NewClient(cfg.API.BaseURL,
		scoreapi.WithTimeout(cfg.Timeout()),
		scoreapi.WithLogger(log))

	app := tui.NewApp(tui.Options{
		Config:    cfg,
		Client:    client,
		Logger:    log,
		NeedSetup: !config.Exists(),
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	log.Info("tui started", zap.String("user_id", cfg.API.UserID), zap.String("api", cfg.API.BaseURL))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
