package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintree/internal/arc"
	"github.com/theirongolddev/fintree/internal/cli"
	"github.com/theirongolddev/fintree/internal/scoreapi"
)

var (
	flagMonthlyYear  int
	flagMonthlyMonth int
)

var monthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Show a month's income, spending by category and tree stage",
	RunE:  runMonthly,
}

func init() {
	monthlyCmd.Flags().IntVar(&flagMonthlyYear, "year", 0, "Year (default: current)")
	monthlyCmd.Flags().IntVar(&flagMonthlyMonth, "month", 0, "Month 1-12 (default: current)")
	monthlyCmd.Flags().StringVarP(&flagFormat, "format", "f", formatTable, "Output format: table, json, yaml")
	rootCmd.AddCommand(monthlyCmd)
}

func runMonthly(_ *cobra.Command, _ []string) error {
	log := newLogger()
	defer func() { _ = log.Sync() }()

	year, month := monthArgs(time.Now(), flagMonthlyYear, flagMonthlyMonth)
	scale, _, err := scaleAndTiers()
	if err != nil {
		return err
	}

	client, err := newClient(log)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	m, err := client.FetchMonthly(ctx, cfg.API.UserID, year, month)
	if errors.Is(err, scoreapi.ErrNotFound) {
		return fmt.Errorf("no transactions for %s %d", month, year)
	}
	if err != nil {
		return fmt.Errorf("monthly summary: %w", err)
	}

	return writeOutput(os.Stdout, flagFormat, m, func() string {
		return renderMonthly(m, scale)
	})
}

// monthArgs fills unset flags from now.
func monthArgs(now time.Time, year, month int) (int, time.Month) {
	if year <= 0 {
		year = now.Year()
	}
	if month <= 0 {
		return year, now.Month()
	}
	return year, time.Month(month)
}

func renderMonthly(m *scoreapi.Monthly, scale arc.Scale) string {
	rows := [][]string{
		{"Server stage", fmt.Sprintf("%d", m.TreeLevel)},
		{"Score", cli.FormatScore(m.Score, scale)},
		{"Income", cli.FormatMoney(m.TotalIncome)},
		{"Expenses", cli.FormatMoney(m.TotalExpenses)},
		{"Savings rate", cli.FormatRate(m.SavingsRate)},
	}
	if len(m.Categories) > 0 {
		rows = append(rows, []string{"---"})
		for _, c := range m.Categories {
			rows = append(rows, []string{c.Name, cli.FormatMoney(c.Amount)})
		}
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(cli.RenderTitle(strings.ToUpper(fmt.Sprintf("%s %d", m.Month, m.Year))))
	b.WriteString("\n\n")
	b.WriteString(cli.RenderTable(cli.Table{Rows: rows}))
	return b.String()
}
