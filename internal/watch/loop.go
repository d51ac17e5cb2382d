package watch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"atlaswatch/internal/cluster"
	"atlaswatch/internal/config"
	"atlaswatch/internal/domain"
)

// Chat-visible messages. Failure paths always end in one of these;
// stack-level detail goes to the log only.
const (
	msgClusterFetchFailed = "error: server info fetch failed. the API may be down. retrying."
	msgPlayerFetchFailed  = "error: player info fetch failed. the API may be down. retrying."
	msgCycleFailed        = "error: continuing. run /stop if this keeps happening."
	msgDataError          = "data fetch error."
	msgAllClear           = "the watch-listed players seem to have moved on."
)

const timestampLayout = "01/02 15:04"

// FetchError is a network or empty-payload failure during a cycle. It
// is reported to the invoking channel and the same iteration is
// retried after the standard interval.
type FetchError struct {
	Report string // human-readable chat message
	Err    error
}

func (e *FetchError) Error() string { return e.Report + ": " + e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// Watcher is the long-running polling loop. All snapshot and notice
// state is owned by the single loop goroutine; the running flag is the
// cooperative stop signal, observed once per iteration.
type Watcher struct {
	cfg    *config.Store
	chat   domain.ChatClient
	api    domain.GameAPI
	logger *zap.Logger

	running atomic.Bool

	mu      sync.Mutex
	last    map[string]domain.ServerSnapshot
	noticed map[string]struct{}
}

// NewWatcher creates a stopped watcher.
func NewWatcher(cfg *config.Store, chat domain.ChatClient, api domain.GameAPI, logger *zap.Logger) *Watcher {
	return &Watcher{
		cfg:     cfg,
		chat:    chat,
		api:     api,
		logger:  logger,
		last:    map[string]domain.ServerSnapshot{},
		noticed: map[string]struct{}{},
	}
}

// Running reports whether the loop is active.
func (w *Watcher) Running() bool {
	return w.running.Load()
}

// NoticedServers returns the server codes currently flagged as having
// a watch-listed player present, in sorted order.
func (w *Watcher) NoticedServers() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, 0, len(w.noticed))
	for name := range w.noticed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start transitions STOPPED -> RUNNING and spawns the loop. It returns
// false without side effects when the loop is already running.
// Snapshot and notice state reset on every start. The loop runs until
// Stop or ctx cancellation; errors and fetch failures are reported to
// replyChannelID.
func (w *Watcher) Start(ctx context.Context, replyChannelID string) bool {
	if !w.running.CompareAndSwap(false, true) {
		return false
	}

	w.mu.Lock()
	w.last = map[string]domain.ServerSnapshot{}
	w.noticed = map[string]struct{}{}
	w.mu.Unlock()

	w.logger.Info("watch started",
		zap.Int("world", w.cfg.WatchWorld()),
		zap.Int("interval_sec", w.cfg.WatchIntervalSeconds()))

	go w.run(ctx, replyChannelID)
	return true
}

// Stop clears the running flag. The cycle in flight completes; the
// loop exits at the next iteration boundary.
func (w *Watcher) Stop() {
	w.running.Store(false)
}

func (w *Watcher) run(ctx context.Context, replyChannelID string) {
	defer w.running.Store(false)

	for w.running.Load() {
		w.cycle(ctx, replyChannelID)
		if !w.sleepInterval(ctx) {
			w.logger.Info("watch loop canceled")
			return
		}
	}
	w.logger.Info("watch stopped")
}

// sleepInterval waits the configured interval, or returns false when
// the context is canceled. The interval doubles as the retry backoff.
func (w *Watcher) sleepInterval(ctx context.Context) bool {
	timer := time.NewTimer(w.cfg.WatchInterval())
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// cycle runs one iteration and classifies failures: fetch errors are
// reported and retried, anything else is logged and reported
// generically. The loop never terminates on a cycle failure.
func (w *Watcher) cycle(ctx context.Context, replyChannelID string) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("watch cycle panicked", zap.Any("panic", r))
			w.report(ctx, replyChannelID, msgCycleFailed)
		}
	}()

	err := w.runCycle(ctx)
	if err == nil {
		return
	}

	var fe *FetchError
	switch {
	case errors.As(err, &fe):
		w.logger.Warn("fetch failed", zap.Error(fe.Err))
		w.report(ctx, replyChannelID, fe.Report)
	case errors.Is(err, context.Canceled):
		// Shutdown in progress, nothing to report.
	default:
		w.logger.Error("watch cycle failed", zap.Error(err))
		w.report(ctx, replyChannelID, msgCycleFailed)
	}
}

// runCycle fetches live data, builds this cycle's snapshots, diffs
// them against the previous cycle and emits notifications.
func (w *Watcher) runCycle(ctx context.Context) error {
	world := w.cfg.WatchWorld()
	targets := w.watchedCodes()

	servers, err := w.api.ClusterServers(ctx, world)
	if err != nil {
		return &FetchError{Report: msgClusterFetchFailed, Err: err}
	}
	if len(servers) == 0 {
		return &FetchError{Report: msgClusterFetchFailed, Err: fmt.Errorf("empty cluster listing for world %d", world)}
	}

	byID := make(map[int]domain.ClusterServer, len(servers))
	for _, s := range servers {
		byID[s.ID] = s
	}

	watchList := w.cfg.Enemies()
	snapshots := make(map[string]domain.ServerSnapshot, len(targets))
	for _, code := range targets {
		serverID, err := cluster.ServerID(world, code)
		if err != nil {
			// Channel name passed the grammar check earlier; skip.
			w.logger.Warn("unresolvable server code", zap.String("code", code), zap.Error(err))
			continue
		}

		info, ok := byID[serverID]
		if !ok {
			// Not in this cluster's payload; skip silently.
			continue
		}

		players, err := w.api.ServerPlayers(ctx, serverID)
		if err != nil {
			return &FetchError{Report: msgPlayerFetchFailed, Err: err}
		}

		w.mu.Lock()
		var prev *domain.ServerSnapshot
		if p, ok := w.last[code]; ok {
			prev = &p
		}
		w.mu.Unlock()

		snapshots[code] = domain.ServerSnapshot{
			ServerName:   code,
			PlayerCount:  info.PlayerCount,
			SurgeCount:   SurgeCount(prev, info.PlayerCount),
			EnemyPlayers: MatchEnemies(watchList, players),
		}
	}

	w.notify(ctx, snapshots)

	// Replace the baseline wholesale, even on partial data. Servers
	// absent this cycle lose their surge baseline for the next one.
	w.mu.Lock()
	w.last = snapshots
	w.mu.Unlock()

	return nil
}

// notify posts per-channel status lines and the edge-triggered alerts.
func (w *Watcher) notify(ctx context.Context, snapshots map[string]domain.ServerSnapshot) {
	timestamp := time.Now().Format(timestampLayout)
	threshold := w.cfg.SurgeThreshold()

	for _, ch := range w.chat.Channels() {
		code := cluster.Normalize(ch.Name)
		if !cluster.IsServerCode(code) {
			continue
		}

		snap, ok := snapshots[code]
		if !ok {
			w.report(ctx, ch.ID, fmt.Sprintf("%s  %s  %s", timestamp, code, msgDataError))
			continue
		}

		w.report(ctx, ch.ID, fmt.Sprintf("%s  %s  players:%d  enemies:%d [%s]",
			timestamp, snap.ServerName, snap.PlayerCount,
			len(snap.EnemyPlayers), strings.Join(snap.EnemyPlayers, ", ")))

		if snap.SurgeCount >= threshold {
			w.report(ctx, ch.ID, fmt.Sprintf("@everyone player count jumped by %d to %d. incoming raid?",
				snap.SurgeCount, snap.PlayerCount))
		}

		w.mu.Lock()
		_, flagged := w.noticed[snap.ServerName]
		enemiesPresent := len(snap.EnemyPlayers) > 0
		if enemiesPresent && !flagged {
			w.noticed[snap.ServerName] = struct{}{}
		}
		if !enemiesPresent && flagged {
			delete(w.noticed, snap.ServerName)
		}
		w.mu.Unlock()

		if enemiesPresent && !flagged {
			w.report(ctx, ch.ID, fmt.Sprintf("@everyone watch-listed players have arrived: %s",
				strings.Join(snap.EnemyPlayers, ", ")))
		}
		if !enemiesPresent && flagged {
			w.report(ctx, ch.ID, msgAllClear)
		}
	}
}

// watchedCodes enumerates target server codes from channel names that
// match the server-code grammar, deduplicated and sorted.
func (w *Watcher) watchedCodes() []string {
	seen := map[string]struct{}{}
	for _, ch := range w.chat.Channels() {
		code := cluster.Normalize(ch.Name)
		if !cluster.IsServerCode(code) {
			continue
		}
		seen[code] = struct{}{}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func (w *Watcher) report(ctx context.Context, channelID, text string) {
	if err := w.chat.SendMessage(ctx, channelID, text); err != nil {
		w.logger.Warn("send failed",
			zap.String("channel", channelID),
			zap.Error(err))
	}
}
