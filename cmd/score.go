package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/fintree/internal/arc"
	"github.com/theirongolddev/fintree/internal/cli"
	"github.com/theirongolddev/fintree/internal/model"
	"github.com/theirongolddev/fintree/internal/scoreapi"
)

var flagFormat string

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Fetch the current score and suggestion",
	RunE:  runScore,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, scoreCmd} {
		c.Flags().StringVarP(&flagFormat, "format", "f", formatTable, "Output format: table, json, yaml")
	}
	rootCmd.AddCommand(scoreCmd)
}

// scoreOutput is the machine-readable form of `fintree score`.
type scoreOutput struct {
	model.Snapshot `yaml:",inline"`
	Label          string   `json:"label" yaml:"label"`
	Tier           arc.Tier `json:"tier" yaml:"tier"`
	Palette        string   `json:"palette" yaml:"palette"`
}

func runScore(_ *cobra.Command, _ []string) error {
	log := newLogger()
	defer func() { _ = log.Sync() }()

	scale, tiers, err := scaleAndTiers()
	if err != nil {
		return err
	}

	progressf("  Fetching score for %s...\n", cfg.API.UserID)
	d := fetchDashboard(log)
	snap := model.NewSnapshot(d, scale)
	f := snap.Frame(arc.DefaultGeometry, tiers)

	out := scoreOutput{
		Snapshot: snap,
		Label:    f.Label,
		Tier:     f.Tier,
		Palette:  f.Palette.Name,
	}
	return writeOutput(os.Stdout, flagFormat, out, func() string {
		return renderScore(snap, f)
	})
}

// fetchDashboard never fails: an unusable client yields fallback values.
func fetchDashboard(log *zap.Logger) *scoreapi.Dashboard {
	client, err := newClient(log)
	if err != nil {
		log.Warn("no score client, using fallback values", zap.Error(err))
		return scoreapi.FallbackDashboard(cfg.API.UserID, fallback(), err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()
	return client.FetchDashboard(ctx, cfg.API.UserID, fallback())
}

func renderScore(snap model.Snapshot, f arc.Frame) string {
	rows := [][]string{
		{"Score", cli.FormatScore(snap.RawScore, snap.Scale)},
		{"Progress", cli.RenderScoreBar(snap.Progress, 20)},
		{"Tree", fmt.Sprintf("%s (%d/%d)", f.Tier.Name, f.Tier.Index, f.Tier.Count)},
	}
	if r := snap.Report; r != nil {
		rows = append(rows,
			[]string{"---"},
			[]string{"Days tracked", cli.FormatDays(r.DaysInSystem)},
			[]string{"Income", cli.FormatMoney(r.TotalIncome)},
			[]string{"Expenses", cli.FormatMoney(r.TotalExpenses)},
			[]string{"Savings rate", cli.FormatRate(r.SavingsRate)},
		)
	}

	title := "FINANCIAL HEALTH"
	if snap.UserID != "" {
		title += "  " + snap.UserID
	}

	var out string
	out += "\n" + cli.RenderTitle(title) + "\n\n"
	out += cli.RenderTable(cli.Table{Rows: rows}) + "\n\n"
	out += cli.RenderNote("Campaign", snap.Suggestion, false) + "\n"

	if snap.ScoreFallback {
		out += cli.RenderNote("Score", "service unreachable, showing the configured fallback", true) + "\n"
	}
	if snap.SuggestionFallback {
		out += cli.RenderNote("Campaign", "service unreachable, showing the saved tip", true) + "\n"
	}
	out += cli.RenderNote("Fetched", cli.FormatAge(snap.FetchedAt, time.Now()), false)
	return out
}
