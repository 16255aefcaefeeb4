package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/fintree/internal/arc"
	"github.com/theirongolddev/fintree/internal/config"
	"github.com/theirongolddev/fintree/internal/logging"
	"github.com/theirongolddev/fintree/internal/scoreapi"
)

var (
	flagAPIURL  string
	flagUser    string
	flagScale   int
	flagQuiet   bool
	flagVerbose bool
)

// cfg is the loaded config with flag overrides applied.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "fintree",
	Short: "Financial health score in your terminal",
	Long:  "Show your financial health score as a growing tree, with a daily saving campaign.",
	// Bare `fintree` prints the score.
	RunE:              runScore,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Score service base URL (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "User ID (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagScale, "scale", 0, "Score scale, 100 or 1000 (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
}

func loadConfig(_ *cobra.Command, _ []string) error {
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	if flagAPIURL != "" {
		loaded.API.BaseURL = strings.TrimRight(flagAPIURL, "/")
	}
	if flagUser != "" {
		loaded.API.UserID = flagUser
	}
	if flagScale != 0 {
		if _, err := arc.ParseScale(flagScale); err != nil {
			return err
		}
		loaded.Score.Scale = flagScale
	}
	cfg = loaded
	return nil
}

// newLogger builds the stderr logger used by one-shot commands.
func newLogger() *zap.Logger {
	log, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Verbose: flagVerbose,
		Quiet:   flagQuiet,
		File:    cfg.Log.File,
		Console: cfg.Log.File == "",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "  Logging disabled: %v\n", err)
		return zap.NewNop()
	}
	return log
}

func newClient(log *zap.Logger) (*scoreapi.Client, error) {
	c := scoreapi.NewClient(cfg.API.BaseURL,
		scoreapi.WithTimeout(cfg.Timeout()),
		scoreapi.WithLogger(log))
	if c == nil {
		return nil, fmt.Errorf("api.base_url %q is not an http(s) URL", cfg.API.BaseURL)
	}
	return c, nil
}

func fallback() scoreapi.Fallback {
	return scoreapi.Fallback{
		Score:      cfg.Score.FallbackScore,
		Suggestion: cfg.Score.FallbackSuggestion,
	}
}

func scaleAndTiers() (arc.Scale, arc.TierSelector, error) {
	scale, err := arc.ParseScale(cfg.Score.Scale)
	if err != nil {
		return 0, nil, err
	}
	tiers, err := arc.ParseTierStrategy(cfg.Score.TierStrategy, cfg.Score.TierCount)
	if err != nil {
		return 0, nil, err
	}
	return scale, tiers, nil
}

func progressf(format string, args ...any) {
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
