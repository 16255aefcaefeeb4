// Package daemon provides the long-running score monitor service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theirongolddev/fintree/internal/arc"
	"github.com/theirongolddev/fintree/internal/model"
	"github.com/theirongolddev/fintree/internal/scoreapi"
)

// Event types.
const (
	EventSnapshot   = "snapshot"
	EventScoreDelta = "score_delta"
	EventSuggestion = "suggestion"
)

// Fetcher is the part of the score client the daemon polls.
type Fetcher interface {
	FetchDashboard(ctx context.Context, userID string, fb scoreapi.Fallback) *scoreapi.Dashboard
}

// Config controls the daemon runtime behavior.
type Config struct {
	UserID       string
	Fallback     scoreapi.Fallback
	Scale        arc.Scale
	Tiers        arc.TierSelector
	Geometry     arc.Geometry
	Interval     time.Duration
	Timeout      time.Duration
	Addr         string
	EventsBuffer int
}

// Delta captures what moved between polls.
type Delta struct {
	Score    float64 `json:"score"`
	Progress float64 `json:"progress"`
	TierFrom int     `json:"tier_from,omitempty"`
	TierTo   int     `json:"tier_to,omitempty"`
}

func (d Delta) isZero() bool {
	return d.Score == 0 && d.Progress == 0 && d.TierFrom == d.TierTo
}

// Event is emitted whenever the score or the suggestion changes.
type Event struct {
	ID        int64          `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Snapshot  model.Snapshot `json:"snapshot"`
	Delta     *Delta         `json:"delta,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	InstanceID      string         `json:"instance_id"`
	StartedAt       time.Time      `json:"started_at"`
	LastPollAt      time.Time      `json:"last_poll_at"`
	PollIntervalSec int            `json:"poll_interval_sec"`
	PollCount       int64          `json:"poll_count"`
	UserID          string         `json:"user_id"`
	Scale           arc.Scale      `json:"scale"`
	Snapshot        model.Snapshot `json:"snapshot"`
	Tier            arc.Tier       `json:"tier"`
	LastError       string         `json:"last_error,omitempty"`
	EventCount      int            `json:"event_count"`
	SubscriberCount int            `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	fetcher Fetcher
	log     *zap.Logger
	id      string

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	polled      bool // false while snapshot is still the placeholder
	snapshot    model.Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service. A nil fetcher serves fallback values only.
func New(cfg Config, fetcher Fetcher, log *zap.Logger) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Scale == 0 {
		cfg.Scale = arc.ScalePercent
	}
	if cfg.Tiers == nil {
		cfg.Tiers = arc.DefaultTiers
	}
	if cfg.Geometry == (arc.Geometry{}) {
		cfg.Geometry = arc.DefaultGeometry
	}
	if log == nil {
		log = zap.NewNop()
	}

	id := uuid.NewString()
	return &Service{
		cfg:       cfg,
		fetcher:   fetcher,
		log:       log.With(zap.String("instance_id", id)),
		id:        id,
		startedAt: time.Now(),
		snapshot:  model.Placeholder(cfg.UserID, cfg.Fallback, cfg.Scale),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the daemon's HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/stream", s.handleStream)
	mux.HandleFunc("/v1/arc.svg", s.handleSVG)
	mux.HandleFunc("/v1/frame", s.handleFrame)
	return mux
}

// Run listens on the configured address and polls until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("daemon listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.log.Info("daemon listening",
		zap.String("addr", ln.Addr().String()),
		zap.Duration("interval", s.cfg.Interval),
		zap.String("user_id", s.cfg.UserID))

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) fetch(ctx context.Context) *scoreapi.Dashboard {
	if s.fetcher == nil {
		return scoreapi.FallbackDashboard(s.cfg.UserID, s.cfg.Fallback, errors.New("no score client configured"))
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	return s.fetcher.FetchDashboard(ctx, s.cfg.UserID, s.cfg.Fallback)
}

func (s *Service) pollOnce(ctx context.Context) {
	d := s.fetch(ctx)
	snap := model.NewSnapshot(d, s.cfg.Scale)
	now := time.Now()

	var lastErr string
	switch {
	case d.ScoreErr != nil:
		lastErr = d.ScoreErr.Error()
	case d.SuggestionErr != nil:
		lastErr = d.SuggestionErr.Error()
	}

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.polled

	s.polled = true
	s.snapshot = snap
	s.lastPollAt = now
	s.pollCount++
	s.lastError = lastErr

	var evs []Event
	if !prevExists {
		evs = append(evs, s.newEventLocked(EventSnapshot, now, snap, nil))
	} else {
		if delta := s.diff(prev, snap); !delta.isZero() {
			evs = append(evs, s.newEventLocked(EventScoreDelta, now, snap, &delta))
		}
		if prev.Suggestion != snap.Suggestion {
			evs = append(evs, s.newEventLocked(EventSuggestion, now, snap, nil))
		}
	}
	s.mu.Unlock()

	if lastErr != "" {
		s.log.Warn("poll used fallback values", zap.String("error", lastErr))
	}
	for _, ev := range evs {
		s.log.Debug("publishing event", zap.String("type", ev.Type), zap.Int64("id", ev.ID))
		s.publishEvent(ev)
	}
}

// newEventLocked assigns the next event ID. Callers hold s.mu.
func (s *Service) newEventLocked(typ string, at time.Time, snap model.Snapshot, d *Delta) Event {
	s.nextEventID++
	return Event{ID: s.nextEventID, Type: typ, Timestamp: at, Snapshot: snap, Delta: d}
}

func (s *Service) diff(prev, curr model.Snapshot) Delta {
	return diffSnapshots(prev, curr, s.cfg.Tiers)
}

func diffSnapshots(prev, curr model.Snapshot, tiers arc.TierSelector) Delta {
	d := Delta{
		Score:    curr.RawScore - prev.RawScore,
		Progress: curr.Progress - prev.Progress,
	}
	from, to := tiers.Select(prev.Progress).Index, tiers.Select(curr.Progress).Index
	if from != to {
		d.TierFrom, d.TierTo = from, to
	}
	return d
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		InstanceID:      s.id,
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		UserID:          s.cfg.UserID,
		Scale:           s.cfg.Scale,
		Snapshot:        s.snapshot,
		Tier:            s.cfg.Tiers.Select(s.snapshot.Progress),
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

// currentFrame renders the latest snapshot, or the fallback placeholder
// before the first poll completes.
func (s *Service) currentFrame() arc.Frame {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	return snap.Frame(s.cfg.Geometry, s.cfg.Tiers)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.snapshotStatus())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, events)
}

func (s *Service) handleFrame(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.currentFrame())
}

func (s *Service) handleSVG(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	if err := arc.WriteSVG(w, s.currentFrame()); err != nil {
		s.log.Warn("writing svg failed", zap.Error(err))
	}
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Snapshot,
	}
	writeSSE(w, current)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if ev.ID > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
