package model

import (
	"errors"
	"testing"
	"time"

	"github.com/theirongolddev/fintree/internal/arc"
	"github.com/theirongolddev/fintree/internal/scoreapi"
)

func TestNewSnapshot_Normalizes(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	d := &scoreapi.Dashboard{
		UserID:     "u-1",
		Score:      750,
		Report:     &scoreapi.ScoreReport{TotalScore: 750, DaysInSystem: 3},
		Suggestion: scoreapi.Suggestion{ID: "s1", Text: "Cut one subscription"},
		FetchedAt:  now,
	}

	s := NewSnapshot(d, arc.ScalePermille)
	if s.Progress != 75 {
		t.Errorf("Progress = %v, want 75", s.Progress)
	}
	if s.RawScore != 750 {
		t.Errorf("RawScore = %v, want 750", s.RawScore)
	}
	if s.SuggestionID != "s1" || s.Suggestion != "Cut one subscription" {
		t.Errorf("suggestion = %q/%q", s.SuggestionID, s.Suggestion)
	}
	if s.Degraded() {
		t.Error("Degraded() = true for a clean fetch")
	}
	if !s.Fetched() {
		t.Error("Fetched() = false")
	}

	f := s.Frame(arc.DefaultGeometry, nil)
	if f.Tier.Index != 8 || f.Label != "%75" {
		t.Errorf("frame tier=%d label=%q", f.Tier.Index, f.Label)
	}
}

func TestNewSnapshot_RecordsFallbacks(t *testing.T) {
	d := &scoreapi.Dashboard{
		UserID:        "u-1",
		Score:         50,
		Suggestion:    scoreapi.Suggestion{Text: "fallback"},
		ScoreFallback: true,
		ScoreErr:      errors.New("boom"),
		FetchedAt:     time.Now(),
	}
	s := NewSnapshot(d, arc.ScalePercent)
	if !s.Degraded() || s.ScoreError != "boom" || s.SuggestionError != "" {
		t.Errorf("fallback not recorded: %+v", s)
	}
}

func TestPlaceholder(t *testing.T) {
	s := Placeholder("u-1", scoreapi.Fallback{Score: 400, Suggestion: "hi"}, arc.ScalePermille)
	if s.Progress != 40 {
		t.Errorf("Progress = %v, want 40", s.Progress)
	}
	if s.Fetched() {
		t.Error("placeholder should not count as fetched")
	}
	if !s.Degraded() {
		t.Error("placeholder should be degraded")
	}
	if got := s.Frame(arc.DefaultGeometry, nil).Palette.Name; got != arc.Warning.Name {
		t.Errorf("palette = %s, want warning at 40", got)
	}
}

func TestWithSuggestion_LeavesOriginal(t *testing.T) {
	orig := Snapshot{Suggestion: "old", SuggestionID: "a", Progress: 60}
	next := orig.WithSuggestion(scoreapi.Suggestion{ID: "b", Text: "new"}, false, nil)

	if orig.Suggestion != "old" || orig.SuggestionID != "a" {
		t.Errorf("original mutated: %+v", orig)
	}
	if next.Suggestion != "new" || next.SuggestionID != "b" || next.Progress != 60 {
		t.Errorf("next = %+v", next)
	}

	fb := orig.WithSuggestion(scoreapi.Suggestion{Text: "fallback"}, true, errors.New("timeout"))
	if !fb.SuggestionFallback || fb.SuggestionError != "timeout" || fb.SuggestionID != "" {
		t.Errorf("fallback = %+v", fb)
	}
}
