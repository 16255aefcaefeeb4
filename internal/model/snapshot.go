// Package model holds the dashboard data handed to renderers.
package model

import (
	"time"

	"github.com/theirongolddev/fintree/internal/arc"
	"github.com/theirongolddev/fintree/internal/scoreapi"
)

// Snapshot is the immutable result of one fetch pass.
type Snapshot struct {
	UserID       string    `json:"user_id" yaml:"user_id"`
	RawScore     float64   `json:"raw_score" yaml:"raw_score"`
	Scale        arc.Scale `json:"scale" yaml:"scale"`
	Progress     float64   `json:"progress" yaml:"progress"`
	FetchedAt    time.Time `json:"fetched_at" yaml:"fetched_at"`
	Suggestion   string    `json:"suggestion" yaml:"suggestion"`
	SuggestionID string    `json:"suggestion_id,omitempty" yaml:"suggestion_id,omitempty"` // empty for the fallback

	Report *scoreapi.ScoreReport `json:"report,omitempty" yaml:"report,omitempty"`

	ScoreFallback      bool   `json:"score_fallback" yaml:"score_fallback"`
	SuggestionFallback bool   `json:"suggestion_fallback" yaml:"suggestion_fallback"`
	ScoreError         string `json:"score_error,omitempty" yaml:"score_error,omitempty"`
	SuggestionError    string `json:"suggestion_error,omitempty" yaml:"suggestion_error,omitempty"`
}

// NewSnapshot normalizes a fetched dashboard for display.
func NewSnapshot(d *scoreapi.Dashboard, scale arc.Scale) Snapshot {
	s := Snapshot{
		UserID:             d.UserID,
		RawScore:           d.Score,
		Scale:              scale,
		Progress:           arc.Normalize(d.Score, scale),
		FetchedAt:          d.FetchedAt,
		Suggestion:         d.Suggestion.Text,
		SuggestionID:       d.Suggestion.ID,
		Report:             d.Report,
		ScoreFallback:      d.ScoreFallback,
		SuggestionFallback: d.SuggestionFallback,
	}
	if d.ScoreErr != nil {
		s.ScoreError = d.ScoreErr.Error()
	}
	if d.SuggestionErr != nil {
		s.SuggestionError = d.SuggestionErr.Error()
	}
	return s
}

// Placeholder is shown before the first fetch completes.
func Placeholder(userID string, fb scoreapi.Fallback, scale arc.Scale) Snapshot {
	return Snapshot{
		UserID:             userID,
		RawScore:           fb.Score,
		Scale:              scale,
		Progress:           arc.Normalize(fb.Score, scale),
		Suggestion:         fb.Suggestion,
		ScoreFallback:      true,
		SuggestionFallback: true,
	}
}

// Frame renders the snapshot's gauge.
func (s Snapshot) Frame(g arc.Geometry, sel arc.TierSelector) arc.Frame {
	return arc.Render(s.Progress, g, sel)
}

// Degraded reports whether any value on screen is a fallback.
func (s Snapshot) Degraded() bool {
	return s.ScoreFallback || s.SuggestionFallback
}

// Fetched reports whether the snapshot came from a real fetch.
func (s Snapshot) Fetched() bool {
	return !s.FetchedAt.IsZero()
}

// WithSuggestion returns a copy carrying a replacement suggestion.
func (s Snapshot) WithSuggestion(sug scoreapi.Suggestion, fallback bool, err error) Snapshot {
	s.Suggestion = sug.Text
	s.SuggestionID = sug.ID
	s.SuggestionFallback = fallback
	s.SuggestionError = ""
	if err != nil {
		s.SuggestionError = err.Error()
	}
	return s
}
