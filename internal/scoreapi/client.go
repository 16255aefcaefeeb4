// Package scoreapi is a client for the financial-health scoring and suggestion service.
package scoreapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	userAgent      = "fintree/1.0"
)

var (
	// ErrNotFound indicates the user or suggestion does not exist, or that
	// the requested month has no transactions.
	ErrNotFound = errors.New("scoreapi: not found")
	// ErrRateLimited indicates the service rate limit was hit.
	ErrRateLimited = errors.New("scoreapi: rate limited")
	// ErrUnexpectedStatus wraps any other non-2xx response.
	ErrUnexpectedStatus = errors.New("scoreapi: unexpected status")
	// ErrNonNumericScore indicates total_score was missing or not a number.
	ErrNonNumericScore = errors.New("scoreapi: total_score is not numeric")
	// ErrEmptySuggestion indicates the suggestion response carried no text.
	ErrEmptySuggestion = errors.New("scoreapi: suggestion has no text")
)

// Paths are the endpoint templates; {user_id}, {id}, {year} and {month}
// are substituted.
type Paths struct {
	Score       string
	Monthly     string
	Suggestion  string
	Suggestions string
	MarkRead    string
}

// DefaultPaths match the service's /api/v1 routes.
var DefaultPaths = Paths{
	Score:       "/api/v1/analytics/{user_id}/score",
	Monthly:     "/api/v1/analytics/{user_id}/monthly/{year}/{month}",
	Suggestion:  "/api/v1/ai/{user_id}/suggestion",
	Suggestions: "/api/v1/ai/{user_id}/suggestions",
	MarkRead:    "/api/v1/ai/{user_id}/suggestions/{id}/read",
}

// Client talks to the scoring service.
type Client struct {
	base    *url.URL
	paths   Paths
	http    *http.Client
	timeout time.Duration
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger attaches a logger for fallback diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithPaths overrides endpoint templates. Empty fields keep their defaults.
func WithPaths(p Paths) Option {
	return func(c *Client) {
		if p.Score != "" {
			c.paths.Score = p.Score
		}
		if p.Monthly != "" {
			c.paths.Monthly = p.Monthly
		}
		if p.Suggestion != "" {
			c.paths.Suggestion = p.Suggestion
		}
		if p.Suggestions != "" {
			c.paths.Suggestions = p.Suggestions
		}
		if p.MarkRead != "" {
			c.paths.MarkRead = p.MarkRead
		}
	}
}

// NewClient creates a client for the service at baseURL.
// Returns nil if baseURL is empty or not an absolute http(s) URL.
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil
	}

	c := &Client{
		base:    u,
		paths:   DefaultPaths,
		http:    &http.Client{},
		timeout: defaultTimeout,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root the client was built with.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// FetchScore returns the user's score report.
func (c *Client) FetchScore(ctx context.Context, userID string) (*ScoreReport, error) {
	body, err := c.do(ctx, http.MethodGet, c.path(c.paths.Score, userID, ""), nil)
	if err != nil {
		return nil, err
	}

	var raw scoreResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("scoreapi: parsing score: %w", err)
	}

	score, ok := parseScore(raw.TotalScore)
	if !ok {
		return nil, ErrNonNumericScore
	}

	return &ScoreReport{
		UserID:        raw.UserID,
		TotalScore:    score,
		DaysInSystem:  raw.DaysInSystem,
		TotalIncome:   raw.TotalIncome,
		TotalExpenses: raw.TotalExpenses,
		SavingsRate:   raw.SavingsRate,
	}, nil
}

// FetchMonthly returns the summary for one calendar month. A month without
// transactions yields ErrNotFound.
func (c *Client) FetchMonthly(ctx context.Context, userID string, year int, month time.Month) (*Monthly, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("scoreapi: invalid month %d", month)
	}
	p := strings.NewReplacer(
		"{year}", strconv.Itoa(year),
		"{month}", strconv.Itoa(int(month)),
	).Replace(c.path(c.paths.Monthly, userID, ""))

	body, err := c.do(ctx, http.MethodGet, p, nil)
	if err != nil {
		return nil, err
	}

	var raw monthlyResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("scoreapi: parsing monthly summary: %w", err)
	}
	score, ok := parseScore(raw.Score)
	if !ok {
		return nil, ErrNonNumericScore
	}

	m := &Monthly{
		Year:          raw.Year,
		Month:         time.Month(raw.Month),
		TreeLevel:     raw.TreeLevel,
		Score:         score,
		TotalIncome:   raw.TotalIncome,
		TotalExpenses: raw.TotalExpenses,
		SavingsRate:   raw.SavingsRate,
		Categories:    categoryTotals(raw.CategoryBreakdown),
	}
	if m.Year == 0 {
		m.Year = year
	}
	if m.Month < time.January || m.Month > time.December {
		m.Month = month
	}
	return m, nil
}

// FetchSuggestion asks the service for a new suggestion.
func (c *Client) FetchSuggestion(ctx context.Context, userID string) (*Suggestion, error) {
	payload, err := json.Marshal(suggestionRequest{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("scoreapi: encoding request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, c.path(c.paths.Suggestion, userID, ""), payload)
	if err != nil {
		return nil, err
	}

	var raw suggestionResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("scoreapi: parsing suggestion: %w", err)
	}

	text := strings.TrimSpace(raw.SuggestionText)
	if text == "" {
		text = strings.TrimSpace(raw.Text)
	}
	if text == "" {
		return nil, ErrEmptySuggestion
	}

	return &Suggestion{
		ID:        raw.SuggestionID,
		Text:      text,
		CreatedAt: parseTime(raw.CreatedAt),
	}, nil
}

// ListSuggestions returns the most recent suggestions for the user.
func (c *Client) ListSuggestions(ctx context.Context, userID string, limit int) (*SuggestionList, error) {
	p := c.path(c.paths.Suggestions, userID, "")
	if limit > 0 {
		p += "?limit=" + strconv.Itoa(limit)
	}

	body, err := c.do(ctx, http.MethodGet, p, nil)
	if err != nil {
		return nil, err
	}

	var raw suggestionListResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("scoreapi: parsing suggestions: %w", err)
	}

	list := &SuggestionList{
		Suggestions: make([]Suggestion, 0, len(raw.Suggestions)),
		UnreadCount: raw.UnreadCount,
	}
	for _, s := range raw.Suggestions {
		list.Suggestions = append(list.Suggestions, Suggestion{
			ID:        s.ID,
			Text:      s.Text,
			IsRead:    s.IsRead,
			CreatedAt: parseTime(s.CreatedAt),
		})
	}
	return list, nil
}

// MarkRead flags a suggestion as read.
func (c *Client) MarkRead(ctx context.Context, userID, suggestionID string) error {
	if suggestionID == "" {
		return fmt.Errorf("scoreapi: mark read: %w", ErrNotFound)
	}
	_, err := c.do(ctx, http.MethodPatch, c.path(c.paths.MarkRead, userID, suggestionID), nil)
	return err
}

// FetchDashboard fetches the score and a suggestion concurrently. Any failure
// is replaced by the matching fallback value and recorded on the result.
func (c *Client) FetchDashboard(ctx context.Context, userID string, fb Fallback) *Dashboard {
	d := &Dashboard{UserID: userID}

	var (
		report *ScoreReport
		sug    *Suggestion
	)

	// Both goroutines swallow their errors so one failure never cancels the other.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report, d.ScoreErr = c.FetchScore(gctx, userID)
		return nil
	})
	g.Go(func() error {
		sug, d.SuggestionErr = c.FetchSuggestion(gctx, userID)
		return nil
	})
	_ = g.Wait()

	d.FetchedAt = time.Now()

	if d.ScoreErr != nil {
		c.log.Warn("score fetch failed, using fallback",
			zap.String("user_id", userID),
			zap.Float64("fallback", fb.Score),
			zap.Error(d.ScoreErr))
		d.Score = fb.Score
		d.ScoreFallback = true
	} else {
		d.Report = report
		d.Score = report.TotalScore
	}

	if d.SuggestionErr != nil {
		c.log.Warn("suggestion fetch failed, using fallback",
			zap.String("user_id", userID),
			zap.Error(d.SuggestionErr))
		d.Suggestion = Suggestion{Text: fb.Suggestion}
		d.SuggestionFallback = true
	} else {
		d.Suggestion = *sug
	}

	return d
}

func (c *Client) path(tmpl, userID, id string) string {
	r := strings.NewReplacer(
		"{user_id}", url.PathEscape(userID),
		"{id}", url.PathEscape(id),
	)
	return r.Replace(tmpl)
}

// do performs a request and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return nil, fmt.Errorf("scoreapi: creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scoreapi: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("scoreapi: reading response: %w", err)
	}
	return data, nil
}

// parseScore accepts a JSON number or a numeric string ("72.5", "72.5%").
func parseScore(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, finite(f)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v, finite(v)
		}
	}
	return 0, false
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// parseTime accepts RFC 3339 and the service's naive ISO timestamps.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
