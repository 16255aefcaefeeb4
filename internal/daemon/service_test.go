package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/theirongolddev/fintree/internal/arc"
	"github.com/theirongolddev/fintree/internal/model"
	"github.com/theirongolddev/fintree/internal/scoreapi"
)

// scripted returns queued dashboards in order, repeating the last one.
type scripted struct {
	mu    sync.Mutex
	queue []*scoreapi.Dashboard
	calls int
}

func (f *scripted) FetchDashboard(_ context.Context, userID string, _ scoreapi.Fallback) *scoreapi.Dashboard {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	d := f.queue[0]
	if len(f.queue) > 1 {
		f.queue = f.queue[1:]
	}
	cp := *d
	cp.UserID = userID
	cp.FetchedAt = time.Now()
	return &cp
}

func dash(score float64, suggestion string) *scoreapi.Dashboard {
	return &scoreapi.Dashboard{
		Score:      score,
		Report:     &scoreapi.ScoreReport{TotalScore: score},
		Suggestion: scoreapi.Suggestion{ID: "id-" + suggestion, Text: suggestion},
	}
}

func newService(t *testing.T, f Fetcher, buffer int) *Service {
	t.Helper()
	return New(Config{
		UserID:       "u-1",
		Fallback:     scoreapi.Fallback{Score: 50, Suggestion: "offline"},
		Interval:     time.Hour,
		EventsBuffer: buffer,
	}, f, zaptest.NewLogger(t))
}

func TestDiffSnapshots(t *testing.T) {
	prev := model.Snapshot{RawScore: 35, Progress: 35}
	curr := model.Snapshot{RawScore: 52.5, Progress: 52.5}

	delta := diffSnapshots(prev, curr, arc.Proportional{N: 10})
	if math.Abs(delta.Score-17.5) > 1e-9 {
		t.Fatalf("Score delta = %v, want 17.5", delta.Score)
	}
	if delta.TierFrom != 4 || delta.TierTo != 6 {
		t.Fatalf("tier change = %d -> %d, want 4 -> 6", delta.TierFrom, delta.TierTo)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}

	same := diffSnapshots(curr, curr, arc.Proportional{N: 10})
	if !same.isZero() {
		t.Fatalf("identical snapshots gave delta %+v", same)
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := newService(t, nil, 2)

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollOnce_EmitsEventsOnChange(t *testing.T) {
	f := &scripted{queue: []*scoreapi.Dashboard{
		dash(40, "a"),
		dash(40, "a"),
		dash(75, "a"),
		dash(75, "b"),
	}}
	s := newService(t, f, 10)
	ctx := context.Background()

	for range 4 {
		s.pollOnce(ctx)
	}

	s.mu.RLock()
	events := append([]Event(nil), s.events...)
	s.mu.RUnlock()

	require.Len(t, events, 3)
	assert.Equal(t, EventSnapshot, events[0].Type)
	assert.Nil(t, events[0].Delta)

	assert.Equal(t, EventScoreDelta, events[1].Type)
	require.NotNil(t, events[1].Delta)
	assert.Equal(t, 35.0, events[1].Delta.Score)
	assert.Equal(t, 4, events[1].Delta.TierFrom)
	assert.Equal(t, 8, events[1].Delta.TierTo)

	assert.Equal(t, EventSuggestion, events[2].Type)
	assert.Equal(t, "b", events[2].Snapshot.Suggestion)

	for i, ev := range events {
		assert.Equal(t, int64(i+1), ev.ID)
	}

	st := s.snapshotStatus()
	assert.Equal(t, int64(4), st.PollCount)
	assert.Equal(t, "Expert Tree", st.Tier.Name)
	assert.Empty(t, st.LastError)
	assert.NotEmpty(t, st.InstanceID)
}

func TestPollOnce_RecordsFallbackError(t *testing.T) {
	d := dash(50, "offline")
	d.ScoreFallback = true
	d.ScoreErr = errors.New("score service down")
	s := newService(t, &scripted{queue: []*scoreapi.Dashboard{d}}, 10)

	s.pollOnce(context.Background())
	st := s.snapshotStatus()
	assert.Equal(t, "score service down", st.LastError)
	assert.True(t, st.Snapshot.ScoreFallback)
}

func TestPollOnce_NilFetcherServesFallback(t *testing.T) {
	s := newService(t, nil, 10)
	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	assert.Equal(t, 50.0, st.Snapshot.Progress)
	assert.Equal(t, "offline", st.Snapshot.Suggestion)
	assert.NotEmpty(t, st.LastError)
}

func TestHandlers(t *testing.T) {
	s := newService(t, &scripted{queue: []*scoreapi.Dashboard{dash(75, "Save more")}}, 10)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/frame")
	require.NoError(t, err)
	var placeholder arc.Frame
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&placeholder))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "%50", placeholder.Label, "fallback score before the first poll")

	s.pollOnce(context.Background())

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok\n", string(body))

	resp, err = http.Get(srv.URL + "/v1/status")
	require.NoError(t, err)
	var st Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	resp.Body.Close()
	assert.Equal(t, "u-1", st.UserID)
	assert.Equal(t, 75.0, st.Snapshot.Progress)
	assert.Equal(t, 1, st.EventCount)

	resp, err = http.Get(srv.URL + "/v1/events")
	require.NoError(t, err)
	var events []Event
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	resp.Body.Close()
	require.Len(t, events, 1)
	assert.Equal(t, EventSnapshot, events[0].Type)

	resp, err = http.Get(srv.URL + "/v1/frame")
	require.NoError(t, err)
	var f arc.Frame
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&f))
	resp.Body.Close()
	assert.Equal(t, "%75", f.Label)
	assert.Equal(t, arc.Healthy, f.Palette)
	require.NotNil(t, f.Indicator)

	resp, err = http.Get(srv.URL + "/v1/arc.svg")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(string(body)), "<svg"))
	assert.Contains(t, string(body), "%75")
}

// blocking holds every fetch until release is closed.
type blocking struct {
	started chan struct{}
	release chan struct{}
}

func (f *blocking) FetchDashboard(ctx context.Context, userID string, _ scoreapi.Fallback) *scoreapi.Dashboard {
	close(f.started)
	select {
	case <-f.release:
	case <-ctx.Done():
	}
	d := dash(90, "live")
	d.UserID = userID
	d.FetchedAt = time.Now()
	return d
}

func TestFallbackServedWhileFirstPollRuns(t *testing.T) {
	f := &blocking{started: make(chan struct{}), release: make(chan struct{})}
	s := newService(t, f, 10)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.pollOnce(context.Background())
	}()
	<-f.started

	resp, err := http.Get(srv.URL + "/v1/status")
	require.NoError(t, err)
	var st Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(0), st.PollCount)
	assert.Equal(t, "u-1", st.Snapshot.UserID)
	assert.Equal(t, 50.0, st.Snapshot.RawScore)
	assert.Equal(t, 50.0, st.Snapshot.Progress)
	assert.Equal(t, "offline", st.Snapshot.Suggestion)
	assert.True(t, st.Snapshot.ScoreFallback)
	assert.Equal(t, 5, st.Tier.Index)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	require.NoError(t, err)
	stream, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	first := readSSE(t, bufio.NewReader(stream.Body))
	var ev Event
	require.NoError(t, json.Unmarshal([]byte(first["data"]), &ev))
	assert.Equal(t, "offline", ev.Snapshot.Suggestion)
	assert.Equal(t, 50.0, ev.Snapshot.Progress)
	cancel()
	stream.Body.Close()

	close(f.release)
	<-done

	st = s.snapshotStatus()
	assert.Equal(t, 90.0, st.Snapshot.Progress)
	s.mu.RLock()
	require.Len(t, s.events, 1)
	assert.Equal(t, EventSnapshot, s.events[0].Type, "the placeholder does not count as a previous snapshot")
	s.mu.RUnlock()
}

func TestStream(t *testing.T) {
	s := newService(t, &scripted{queue: []*scoreapi.Dashboard{dash(20, "x"), dash(30, "x")}}, 10)
	s.pollOnce(context.Background())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	first := readSSE(t, r)
	assert.Equal(t, "snapshot", first["event"])

	// The handler registers its subscriber before the first write.
	s.pollOnce(context.Background())
	next := readSSE(t, r)
	assert.Equal(t, "score_delta", next["event"])
	assert.Equal(t, "2", next["id"])

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(next["data"]), &ev))
	assert.Equal(t, 30.0, ev.Snapshot.RawScore)
}

func readSSE(t *testing.T, r *bufio.Reader) map[string]string {
	t.Helper()
	fields := map[string]string{}
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" {
			return fields
		}
		k, v, _ := strings.Cut(line, ": ")
		fields[k] = v
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &scripted{queue: []*scoreapi.Dashboard{dash(60, "tip")}}
	s := newService(t, f, 10)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + ln.Addr().String() + "/v1/frame")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
