package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/fintree/internal/cli"
	"github.com/theirongolddev/fintree/internal/daemon"
	"github.com/theirongolddev/fintree/internal/logging"
)

// daemonRuntimeState is written next to the pid file so status and stop
// know where the running monitor listens and whom it watches.
type daemonRuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	UserID    string    `json:"user_id"`
	APIURL    string    `json:"api_url"`
	Scale     int       `json:"scale"`
}

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run a background score monitor with HTTP/SSE endpoints",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the monitor's latest score and tree stage",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the score monitor, reporting its last reading",
	RunE:  runDaemonStop,
}

func init() {
	stateDir := filepath.Dir(logging.DefaultFile())
	defaultPID := filepath.Join(stateDir, "fintreed.pid")
	defaultLog := filepath.Join(stateDir, "fintreed.log")

	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 0, "Polling interval (default from config)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", defaultPID, "PID file path")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonLogFile, "log-file", defaultLog, "Log file path for detached mode")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 0, "Max in-memory events retained (default from config)")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(_ *cobra.Command, _ []string) error {
	applyDaemonDefaults()
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}

	if flagDaemonDetach {
		return startDaemonDetached()
	}

	return runDaemonForeground()
}

func startDaemonDetached() error {
	pf := pidFile(flagDaemonPIDFile)
	if err := pf.ensureFree(); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	args := append(filterDetachArg(os.Args[1:]), "--child")

	for _, dir := range []string{filepath.Dir(string(pf)), filepath.Dir(flagDaemonLogFile)} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create daemon directory: %w", err)
		}
	}

	//nolint:gosec // daemon log path is configured by the local user
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, args...) //nolint:gosec // exe/args come from current process invocation
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()

	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	progressf("  Watching %s's tree in the background (pid %d)\n", displayUser(cfg.API.UserID), child.Process.Pid)
	progressf("  Gauge: http://%s/v1/arc.svg\n", flagDaemonAddr)
	progressf("  Log:   %s\n", flagDaemonLogFile)
	return nil
}

func runDaemonForeground() error {
	pf := pidFile(flagDaemonPIDFile)
	if err := pf.ensureFree(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(string(pf)), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}

	log := newLogger()
	defer func() { _ = log.Sync() }()

	scale, tiers, err := scaleAndTiers()
	if err != nil {
		return err
	}

	pid := os.Getpid()
	if err := pf.write(pid); err != nil {
		return err
	}
	defer pf.clear()
	if err := pf.writeState(daemonRuntimeState{
		PID:       pid,
		Addr:      flagDaemonAddr,
		StartedAt: time.Now(),
		UserID:    cfg.API.UserID,
		APIURL:    cfg.API.BaseURL,
		Scale:     int(scale),
	}); err != nil {
		log.Warn("writing daemon state failed", zap.Error(err))
	}

	var fetcher daemon.Fetcher
	if client, err := newClient(log); err != nil {
		log.Warn("daemon will serve fallback values only", zap.Error(err))
	} else {
		fetcher = client
	}

	svc := daemon.New(daemon.Config{
		UserID:       cfg.API.UserID,
		Fallback:     fallback(),
		Scale:        scale,
		Tiers:        tiers,
		Interval:     flagDaemonInterval,
		Timeout:      cfg.Timeout(),
		Addr:         flagDaemonAddr,
		EventsBuffer: flagDaemonEventsBuffer,
	}, fetcher, log)

	progressf("  Watching %s's tree every %s (score service %s)\n",
		displayUser(cfg.API.UserID), flagDaemonInterval, cfg.API.BaseURL)
	progressf("  Gauge: http://%s/v1/arc.svg  Stream: http://%s/v1/stream\n", flagDaemonAddr, flagDaemonAddr)
	log.Info("daemon started", zap.String("addr", flagDaemonAddr), zap.Int("pid", pid))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	applyDaemonDefaults()
	pf := pidFile(flagDaemonPIDFile)

	pid, err := pf.read()
	if err != nil {
		fmt.Println("  Score monitor: not running")
		return nil
	}
	if !processAlive(pid) {
		fmt.Printf("  Score monitor: stale pid file (pid %d not alive)\n", pid)
		return nil
	}

	addr := pf.addr(flagDaemonAddr)
	client := &http.Client{Timeout: 2 * time.Second}
	st, err := queryDaemonStatus(client, addr)
	if err != nil {
		fmt.Printf("  Score monitor: pid %d, API unreachable (%v)\n", pid, err)
		return nil
	}
	fmt.Println(renderDaemonStatus(pid, addr, st, fetchProgressHistory(client, addr), time.Now()))
	return nil
}

// queryDaemonStatus reads /v1/status from a running monitor.
func queryDaemonStatus(client *http.Client, addr string) (*daemon.Status, error) {
	resp, err := client.Get("http://" + addr + "/v1/status") //nolint:noctx // short status request
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	var st daemon.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, fmt.Errorf("malformed status: %w", err)
	}
	return &st, nil
}

func renderDaemonStatus(pid int, addr string, st *daemon.Status, hist []float64, now time.Time) string {
	lastPoll := "pending"
	if !st.LastPollAt.IsZero() {
		lastPoll = cli.FormatAge(st.LastPollAt, now)
	}
	rows := [][]string{
		{"Score", cli.FormatScore(st.Snapshot.RawScore, st.Scale) + "  " + cli.RenderScoreBar(st.Snapshot.Progress, 20)},
		{"Tree", fmt.Sprintf("%s (%d/%d)", st.Tier.Name, st.Tier.Index, st.Tier.Count)},
	}
	if len(hist) > 1 {
		rows = append(rows, []string{"History", cli.RenderSparkline(hist)})
	}
	rows = append(rows,
		[]string{"---"},
		[]string{"Last poll", lastPoll},
		[]string{"Polls", strconv.FormatInt(st.PollCount, 10)},
		[]string{"Events", strconv.Itoa(st.EventCount)},
		[]string{"PID", strconv.Itoa(pid)},
		[]string{"Address", "http://" + addr},
	)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(cli.RenderTitle("SCORE MONITOR  " + displayUser(st.UserID)))
	b.WriteString("\n\n")
	b.WriteString(cli.RenderTable(cli.Table{Rows: rows}))
	if st.Snapshot.ScoreFallback {
		b.WriteString("\n\n")
		b.WriteString(cli.RenderNote("Score", "fallback value, the service has not answered", true))
	}
	if st.LastError != "" {
		b.WriteString("\n")
		b.WriteString(cli.RenderNote("Last error", st.LastError, true))
	}
	return b.String()
}

// fetchProgressHistory returns the progress carried by each retained score event.
func fetchProgressHistory(client *http.Client, addr string) []float64 {
	resp, err := client.Get("http://" + addr + "/v1/events") //nolint:noctx // short status request
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	var events []daemon.Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil
	}
	hist := make([]float64, 0, len(events))
	for _, ev := range events {
		if ev.Type == daemon.EventSuggestion {
			continue
		}
		hist = append(hist, ev.Snapshot.Progress)
	}
	return hist
}

// applyDaemonDefaults fills unset daemon flags from the config file.
func applyDaemonDefaults() {
	if flagDaemonAddr == "" {
		flagDaemonAddr = cfg.Daemon.Addr
	}
	if flagDaemonInterval == 0 {
		flagDaemonInterval = cfg.PollInterval()
	}
	if flagDaemonEventsBuffer == 0 {
		flagDaemonEventsBuffer = cfg.Daemon.EventsBuffer
	}
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	applyDaemonDefaults()
	pf := pidFile(flagDaemonPIDFile)

	pid, err := pf.read()
	if err != nil {
		return errors.New("score monitor is not running")
	}

	// Read the last reading before the monitor goes away.
	last, _ := queryDaemonStatus(&http.Client{Timeout: time.Second}, pf.addr(flagDaemonAddr))

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			pf.clear()
			fmt.Println(stopSummary(pid, last))
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}
	return fmt.Errorf("score monitor (pid %d) did not exit in time", pid)
}

// stopSummary is the line printed after a clean stop. last may be nil when
// the monitor's API did not answer.
func stopSummary(pid int, last *daemon.Status) string {
	if last == nil {
		return fmt.Sprintf("  Stopped score monitor (pid %d)", pid)
	}
	return fmt.Sprintf("  Stopped score monitor for %s (pid %d): last score %s, %s, %d polls",
		displayUser(last.UserID), pid,
		cli.FormatScore(last.Snapshot.RawScore, last.Scale), last.Tier.Name, last.PollCount)
}

func displayUser(id string) string {
	if id == "" {
		return "(no user)"
	}
	return id
}

func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}

// pidFile is the monitor's pid file; its runtime state lives beside it.
type pidFile string

func (p pidFile) statePath() string { return string(p) + ".json" }

// ensureFree fails when a live monitor owns the pid file and removes a stale one.
func (p pidFile) ensureFree() error {
	pid, err := p.read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if processAlive(pid) {
		return fmt.Errorf("score monitor already running (pid %d)", pid)
	}
	p.clear()
	return nil
}

func (p pidFile) write(pid int) error {
	return os.WriteFile(string(p), []byte(strconv.Itoa(pid)+"\n"), 0o600)
}

func (p pidFile) read() (int, error) {
	data, err := os.ReadFile(string(p))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid in %s", p)
	}
	return pid, nil
}

func (p pidFile) clear() {
	_ = os.Remove(string(p))
	_ = os.Remove(p.statePath())
}

func (p pidFile) writeState(st daemonRuntimeState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p.statePath(), append(data, '\n'), 0o600)
}

func (p pidFile) readState() (daemonRuntimeState, error) {
	var st daemonRuntimeState
	data, err := os.ReadFile(p.statePath())
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

// addr prefers the address the running monitor recorded over the flag.
func (p pidFile) addr(fallback string) string {
	if st, err := p.readState(); err == nil && st.Addr != "" {
		return st.Addr
	}
	return fallback
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
