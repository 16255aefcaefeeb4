package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintree/internal/cli"
	"github.com/theirongolddev/fintree/internal/scoreapi"
)

var (
	flagSuggestLimit int
	flagMarkRead     string
	flagSuggestNew   bool
)

var suggestionsCmd = &cobra.Command{
	Use:     "suggestions",
	Aliases: []string{"sug"},
	Short:   "List recent suggestions, or mark one read",
	RunE:    runSuggestions,
}

func init() {
	suggestionsCmd.Flags().IntVarP(&flagSuggestLimit, "limit", "l", 10, "Number of suggestions to list")
	suggestionsCmd.Flags().StringVar(&flagMarkRead, "mark-read", "", "Mark the suggestion with this ID as read")
	suggestionsCmd.Flags().BoolVar(&flagSuggestNew, "new", false, "Ask the service for a new suggestion first")
	suggestionsCmd.Flags().StringVarP(&flagFormat, "format", "f", formatTable, "Output format: table, json, yaml")
	rootCmd.AddCommand(suggestionsCmd)
}

func runSuggestions(_ *cobra.Command, _ []string) error {
	log := newLogger()
	defer func() { _ = log.Sync() }()

	client, err := newClient(log)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Timeout())
	defer cancel()

	if flagMarkRead != "" {
		if err := client.MarkRead(ctx, cfg.API.UserID, flagMarkRead); err != nil {
			return fmt.Errorf("mark read: %w", err)
		}
		progressf("  Marked %s as read\n", flagMarkRead)
	}

	if flagSuggestNew {
		progressf("  Requesting a new suggestion...\n")
		if _, err := client.FetchSuggestion(ctx, cfg.API.UserID); err != nil {
			return fmt.Errorf("new suggestion: %w", err)
		}
	}

	list, err := client.ListSuggestions(ctx, cfg.API.UserID, flagSuggestLimit)
	if err != nil {
		return fmt.Errorf("listing suggestions: %w", err)
	}

	return writeOutput(os.Stdout, flagFormat, list, func() string {
		return renderSuggestions(list, time.Now())
	})
}

func renderSuggestions(list *scoreapi.SuggestionList, now time.Time) string {
	if len(list.Suggestions) == 0 {
		return "\n  No suggestions yet."
	}

	rows := make([][]string, 0, len(list.Suggestions))
	for _, s := range list.Suggestions {
		mark := " "
		if !s.IsRead {
			mark = "●"
		}
		text := strings.Join(strings.Fields(s.Text), " ")
		if r := []rune(text); len(r) > 60 {
			text = string(r[:59]) + "…"
		}
		rows = append(rows, []string{text, mark, s.ID, cli.FormatAge(s.CreatedAt, now)})
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(cli.RenderTitle(fmt.Sprintf("SUGGESTIONS  %d unread", list.UnreadCount)))
	b.WriteString("\n\n")
	b.WriteString(cli.RenderTable(cli.Table{
		Headers: []string{"Suggestion", "New", "ID", "Created"},
		Rows:    rows,
	}))
	return b.String()
}
