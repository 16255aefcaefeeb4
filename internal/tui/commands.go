package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/theirongolddev/fintree/internal/scoreapi"
)

var errNoClient = errors.New("api.base_url is not a valid http(s) URL")

// Every fetch message carries the generation of the config it was started
// under. The app drops messages from an older generation, so a slow reply for
// a previous user or server never overwrites the current one.

// DashboardMsg is sent when a score + suggestion fetch completes.
type DashboardMsg struct {
	Dash *scoreapi.Dashboard
	Gen  int
}

// SuggestionMsg carries a replacement suggestion after the card was accepted.
type SuggestionMsg struct {
	Suggestion scoreapi.Suggestion
	Fallback   bool
	Err        error
	Gen        int
}

// SuggestionsMsg carries the recent-suggestions listing for the profile tab.
type SuggestionsMsg struct {
	List *scoreapi.SuggestionList
	Err  error
	Gen  int
}

// MonthlyMsg carries the current month's summary for the profile tab.
type MonthlyMsg struct {
	Monthly *scoreapi.Monthly
	Err     error
	Gen     int
}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// fetchDashboardCmd fetches score and suggestion in the background.
// It never fails: errors come back as fallback values on the dashboard.
func fetchDashboardCmd(client *scoreapi.Client, userID string, fb scoreapi.Fallback, timeout time.Duration, gen int) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return DashboardMsg{Dash: scoreapi.FallbackDashboard(userID, fb, errNoClient), Gen: gen}
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return DashboardMsg{Dash: client.FetchDashboard(ctx, userID, fb), Gen: gen}
	}
}

// nextSuggestionCmd marks the current suggestion read (when it has an ID)
// and asks for a new one, falling back to the configured text on failure.
func nextSuggestionCmd(client *scoreapi.Client, log *zap.Logger, userID, currentID string, fb scoreapi.Fallback, timeout time.Duration, gen int) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return SuggestionMsg{Suggestion: scoreapi.Suggestion{Text: fb.Suggestion}, Fallback: true, Err: errNoClient, Gen: gen}
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if currentID != "" {
			if err := client.MarkRead(ctx, userID, currentID); err != nil {
				log.Warn("mark read failed", zap.String("suggestion_id", currentID), zap.Error(err))
			}
		}

		sug, err := client.FetchSuggestion(ctx, userID)
		if err != nil {
			log.Warn("suggestion fetch failed, using fallback", zap.String("user_id", userID), zap.Error(err))
			return SuggestionMsg{Suggestion: scoreapi.Suggestion{Text: fb.Suggestion}, Fallback: true, Err: err, Gen: gen}
		}
		return SuggestionMsg{Suggestion: *sug, Gen: gen}
	}
}

func listSuggestionsCmd(client *scoreapi.Client, userID string, timeout time.Duration, gen int) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return SuggestionsMsg{Err: errNoClient, Gen: gen}
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		list, err := client.ListSuggestions(ctx, userID, recentSuggestions)
		return SuggestionsMsg{List: list, Err: err, Gen: gen}
	}
}

func fetchMonthlyCmd(client *scoreapi.Client, userID string, now time.Time, timeout time.Duration, gen int) tea.Cmd {
	return func() tea.Msg {
		if client == nil {
			return MonthlyMsg{Err: errNoClient, Gen: gen}
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		m, err := client.FetchMonthly(ctx, userID, now.Year(), now.Month())
		return MonthlyMsg{Monthly: m, Err: err, Gen: gen}
	}
}
