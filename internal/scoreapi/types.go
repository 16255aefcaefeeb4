package scoreapi

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// scoreResponse is the raw body of the analytics score endpoint.
// total_score is kept raw: older deployments send it as a string.
type scoreResponse struct {
	UserID        string          `json:"user_id"`
	TotalScore    json.RawMessage `json:"total_score"`
	DaysInSystem  int             `json:"days_in_system"`
	TotalIncome   float64         `json:"total_income"`
	TotalExpenses float64         `json:"total_expenses"`
	SavingsRate   float64         `json:"savings_rate"`
}

// ScoreReport is a parsed score response.
type ScoreReport struct {
	UserID        string  `json:"user_id" yaml:"user_id"`
	TotalScore    float64 `json:"total_score" yaml:"total_score"`
	DaysInSystem  int     `json:"days_in_system" yaml:"days_in_system"`
	TotalIncome   float64 `json:"total_income" yaml:"total_income"`
	TotalExpenses float64 `json:"total_expenses" yaml:"total_expenses"`
	SavingsRate   float64 `json:"savings_rate" yaml:"savings_rate"`
}

// monthlyResponse is the raw body of the monthly analytics endpoint.
type monthlyResponse struct {
	Year              int                `json:"year"`
	Month             int                `json:"month"`
	TreeLevel         int                `json:"tree_level"`
	Score             json.RawMessage    `json:"score"`
	TotalIncome       float64            `json:"total_income"`
	TotalExpenses     float64            `json:"total_expenses"`
	SavingsRate       float64            `json:"savings_rate"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
}

// Monthly is one calendar month of the user's finances as the service sees it.
// TreeLevel is the server's own stage, independent of the local tier strategy.
type Monthly struct {
	Year          int             `json:"year" yaml:"year"`
	Month         time.Month      `json:"month" yaml:"month"`
	TreeLevel     int             `json:"tree_level" yaml:"tree_level"`
	Score         float64         `json:"score" yaml:"score"`
	TotalIncome   float64         `json:"total_income" yaml:"total_income"`
	TotalExpenses float64         `json:"total_expenses" yaml:"total_expenses"`
	SavingsRate   float64         `json:"savings_rate" yaml:"savings_rate"`
	Categories    []CategoryTotal `json:"categories" yaml:"categories"`
}

// CategoryTotal is the month's spending in one expense category.
type CategoryTotal struct {
	Key    string  `json:"key" yaml:"key"`
	Name   string  `json:"name" yaml:"name"`
	Amount float64 `json:"amount" yaml:"amount"`
}

// categoryNames are the service's expense categories.
var categoryNames = map[string]string{
	"food":          "Food & drink",
	"transport":     "Transport",
	"bills":         "Bills",
	"entertainment": "Entertainment",
	"health":        "Health",
	"clothing":      "Clothing",
}

// CategoryName returns the display name for a category key.
func CategoryName(key string) string {
	if name, ok := categoryNames[key]; ok {
		return name
	}
	name := strings.ReplaceAll(key, "_", " ")
	if name == "" {
		return "Other"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// categoryTotals orders the breakdown by amount, largest first.
// Ties keep a stable order by key.
func categoryTotals(breakdown map[string]float64) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(breakdown))
	for k, v := range breakdown {
		if !finite(v) || v < 0 {
			v = 0
		}
		out = append(out, CategoryTotal{Key: k, Name: CategoryName(k), Amount: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// suggestionRequest is the POST body for suggestion generation.
type suggestionRequest struct {
	UserID string `json:"user_id"`
}

// suggestionResponse accepts both field spellings the service has used.
type suggestionResponse struct {
	SuggestionID   string `json:"suggestion_id"`
	SuggestionText string `json:"suggestion_text"`
	Text           string `json:"text"`
	CreatedAt      string `json:"created_at"`
}

// Suggestion is a single AI suggestion.
type Suggestion struct {
	ID        string    `json:"id,omitempty" yaml:"id,omitempty"`
	Text      string    `json:"text" yaml:"text"`
	IsRead    bool      `json:"is_read" yaml:"is_read"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

type suggestionListItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

type suggestionListResponse struct {
	Suggestions []suggestionListItem `json:"suggestions"`
	UnreadCount int                  `json:"unread_count"`
}

// SuggestionList is the recent-suggestions listing.
type SuggestionList struct {
	Suggestions []Suggestion `json:"suggestions" yaml:"suggestions"`
	UnreadCount int          `json:"unread_count" yaml:"unread_count"`
}

// Fallback holds the values substituted when a fetch fails.
type Fallback struct {
	Score      float64
	Suggestion string
}

// Dashboard is the result of one fetch pass, with fallbacks already applied.
// Score and Suggestion are always usable.
type Dashboard struct {
	UserID     string
	Score      float64
	Report     *ScoreReport // nil when the score fell back
	Suggestion Suggestion
	FetchedAt  time.Time

	ScoreFallback      bool
	SuggestionFallback bool
	ScoreErr           error
	SuggestionErr      error
}

// FallbackDashboard is the result used when no request could be made at all,
// e.g. because the base URL is invalid.
func FallbackDashboard(userID string, fb Fallback, err error) *Dashboard {
	return &Dashboard{
		UserID:             userID,
		Score:              fb.Score,
		Suggestion:         Suggestion{Text: fb.Suggestion},
		FetchedAt:          time.Now(),
		ScoreFallback:      true,
		SuggestionFallback: true,
		ScoreErr:           err,
		SuggestionErr:      err,
	}
}
