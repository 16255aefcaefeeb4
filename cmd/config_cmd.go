// Package cmd implements the fintree CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintree/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [API]")
	fmt.Printf("    Base URL: %s\n", cfg.API.BaseURL)
	fmt.Printf("    User ID:  %s\n", cfg.API.UserID)
	fmt.Printf("    Timeout:  %s\n", cfg.Timeout())
	fmt.Println()

	fmt.Println("  [Score]")
	fmt.Printf("    Scale:          0-%d\n", cfg.Score.Scale)
	fmt.Printf("    Tiers:          %s (%d)\n", cfg.Score.TierStrategy, cfg.Score.TierCount)
	fmt.Printf("    Fallback score: %g\n", cfg.Score.FallbackScore)
	fmt.Printf("    Fallback tip:   %s\n", cfg.Score.FallbackSuggestion)
	fmt.Println()

	fmt.Println("  [Profile]")
	if cfg.Profile.Name != "" {
		fmt.Printf("    Name:     %s\n", cfg.Profile.Name)
	} else {
		fmt.Println("    Name:     not set")
	}
	fmt.Printf("    Greeting: %s\n", cfg.Profile.Greeting)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Auto refresh: %v every %s\n", cfg.TUI.AutoRefresh, cfg.RefreshInterval())
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Listen:   %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %s\n", cfg.PollInterval())
	fmt.Println()

	if err := cfg.Validate(); err != nil {
		fmt.Println("  Problems:")
		fmt.Printf("    %v\n", err)
		fmt.Println()
	}

	fmt.Println("  Run `fintree setup` to reconfigure.")
	return nil
}
