package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/golf-prize-engine/internal/golf"
	"github.com/stitts-dev/golf-prize-engine/internal/providers"
)

// PollerState is the observable lifecycle of a leaderboard poller.
type PollerState string

const (
	PollerIdle      PollerState = "idle"
	PollerFetching  PollerState = "fetching"
	PollerError     PollerState = "error"
	PollerCompleted PollerState = "completed"
	PollerStopped   PollerState = "stopped"
)

// FetchFunc retrieves one raw leaderboard snapshot.
type FetchFunc func(ctx context.Context) (golf.Snapshot, error)

// FinalizeFunc is called once when a fetched snapshot reports the tournament complete.
type FinalizeFunc func(ctx context.Context, snapshot golf.Snapshot) error

// ProviderFetch fetches through the source's circuit breaker.
func ProviderFetch(breakers *CircuitBreakerService, provider providers.LeaderboardProvider, externalID string) FetchFunc {
	return func(ctx context.Context) (golf.Snapshot, error) {
		out, err := breakers.Execute(provider.Name(), func() (interface{}, error) {
			return provider.FetchLeaderboard(ctx, externalID)
		})
		if err != nil {
			return golf.Snapshot{}, err
		}
		return out.(golf.Snapshot), nil
	}
}

// PollerStatus is a point-in-time view of a poller.
type PollerStatus struct {
	TournamentID        string      `json:"tournament_id"`
	Source              string      `json:"source"`
	State               PollerState `json:"state"`
	Interval            string      `json:"interval"`
	LastError           string      `json:"last_error,omitempty"`
	LastErrorAt         *time.Time  `json:"last_error_at,omitempty"`
	LastSuccessAt       *time.Time  `json:"last_success_at,omitempty"`
	NextFetchAt         *time.Time  `json:"next_fetch_at,omitempty"`
	NextFetchInSeconds  int         `json:"next_fetch_in_seconds"`
	ConsecutiveFailures int         `json:"consecutive_failures"`
	HasSnapshot         bool        `json:"has_snapshot"`
	Stale               bool        `json:"stale"`
}

// PollerOptions configures a LeaderboardPoller.
type PollerOptions struct {
	TournamentID string
	Source       string
	Interval     time.Duration
	Fetch        FetchFunc
	Cache        SnapshotCache
	Finalize     FinalizeFunc
	Metrics      *Metrics
	Logger       *logrus.Logger
}

// LeaderboardPoller keeps one canonical snapshot per tournament, refreshed on
// a fixed interval with at most one fetch outstanding. A failed fetch keeps
// the previous snapshot and records the error. Once a snapshot reports the
// tournament complete the poller stops scheduling for good and runs Finalize.
type LeaderboardPoller struct {
	tournamentID string
	source       string
	interval     time.Duration
	fetch        FetchFunc
	cache        SnapshotCache
	finalize     FinalizeFunc
	metrics      *Metrics
	logger       *logrus.Entry
	now          func() time.Time

	cron     *cron.Cron
	inFlight atomic.Bool

	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	entryID     cron.EntryID
	scheduled   bool
	generation  uint64
	state       PollerState
	snapshot    *golf.Snapshot
	restored    bool
	lastErr     string
	lastErrAt   time.Time
	lastSuccess time.Time
	failures    int
}

// NewLeaderboardPoller creates a poller in the idle state. Nothing is fetched until Start or Refresh.
func NewLeaderboardPoller(opts PollerOptions) *LeaderboardPoller {
	if opts.Interval <= 0 {
		opts.Interval = 60 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &LeaderboardPoller{
		tournamentID: opts.TournamentID,
		source:       opts.Source,
		interval:     opts.Interval,
		fetch:        opts.Fetch,
		cache:        opts.Cache,
		finalize:     opts.Finalize,
		metrics:      opts.Metrics,
		logger: opts.Logger.WithFields(logrus.Fields{
			"component":     "leaderboard_poller",
			"tournament_id": opts.TournamentID,
			"source":        opts.Source,
		}),
		now:    time.Now,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(opts.Logger)))),
		ctx:    ctx,
		cancel: cancel,
		state:  PollerIdle,
	}
}

// Start restores the cached snapshot, schedules the interval and fetches once immediately.
func (p *LeaderboardPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	switch {
	case p.state == PollerStopped:
		p.mu.Unlock()
		return ErrPollerStopped
	case p.state == PollerCompleted:
		p.mu.Unlock()
		return ErrTournamentCompleted
	case p.scheduled:
		p.mu.Unlock()
		return ErrPollerRunning
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	if err := p.scheduleLocked(); err != nil {
		p.mu.Unlock()
		return err
	}
	p.mu.Unlock()

	p.restoreFromCache(ctx)
	p.cron.Start()

	p.logger.WithField("interval", p.interval.String()).Info("Leaderboard poller started")

	go p.scheduledTick()
	return nil
}

// Stop cancels any outstanding fetch and prevents further ticks. A fetch that
// completes after Stop is discarded.
func (p *LeaderboardPoller) Stop() {
	p.mu.Lock()
	if p.state == PollerStopped {
		p.mu.Unlock()
		return
	}
	p.generation++
	if p.state != PollerCompleted {
		p.state = PollerStopped
	}
	p.scheduled = false
	p.cancel()
	p.mu.Unlock()

	<-p.cron.Stop().Done()
	p.logger.Info("Leaderboard poller stopped")
}

// Refresh runs one tick now. It returns ErrFetchInFlight when a fetch is
// already outstanding and the fetch error when the provider call fails.
func (p *LeaderboardPoller) Refresh(ctx context.Context) error {
	return p.tick(ctx)
}

// Snapshot returns the last known good leaderboard.
func (p *LeaderboardPoller) Snapshot() (golf.Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.snapshot == nil {
		return golf.Snapshot{}, ErrNoSnapshot
	}
	return *p.snapshot, nil
}

// Status reports the poller's state, last error and countdown.
func (p *LeaderboardPoller) Status() PollerStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()

	now := p.now()
	status := PollerStatus{
		TournamentID:        p.tournamentID,
		Source:              p.source,
		State:               p.state,
		Interval:            p.interval.String(),
		LastError:           p.lastErr,
		ConsecutiveFailures: p.failures,
		HasSnapshot:         p.snapshot != nil,
	}
	if !p.lastErrAt.IsZero() {
		at := p.lastErrAt
		status.LastErrorAt = &at
	}
	if !p.lastSuccess.IsZero() {
		at := p.lastSuccess
		status.LastSuccessAt = &at
	}
	if p.scheduled {
		if next := p.cron.Entry(p.entryID).Next; !next.IsZero() {
			status.NextFetchAt = &next
			if wait := next.Sub(now); wait > 0 {
				status.NextFetchInSeconds = int(wait.Round(time.Second).Seconds())
			}
		}
	}
	status.Stale = p.staleLocked(now)
	return status
}

// staleLocked reports whether the held snapshot should be flagged to readers.
func (p *LeaderboardPoller) staleLocked(now time.Time) bool {
	if p.snapshot == nil {
		return false
	}
	if p.state == PollerCompleted {
		return false
	}
	if p.restored || p.lastErr != "" {
		return true
	}
	return now.Sub(p.lastSuccess) > 2*p.interval
}

func (p *LeaderboardPoller) scheduleLocked() error {
	if p.scheduled {
		p.cron.Remove(p.entryID)
	}
	id, err := p.cron.AddFunc(fmt.Sprintf("@every %s", p.interval.String()), p.scheduledTick)
	if err != nil {
		return fmt.Errorf("failed to schedule leaderboard poller: %w", err)
	}
	p.entryID = id
	p.scheduled = true
	return nil
}

func (p *LeaderboardPoller) scheduledTick() {
	p.mu.RLock()
	ctx := p.ctx
	p.mu.RUnlock()

	err := p.tick(ctx)
	if err != nil && !errors.Is(err, ErrFetchInFlight) && !errors.Is(err, ErrPollerStopped) && !errors.Is(err, ErrTournamentCompleted) {
		p.logger.WithError(err).Warn("Leaderboard fetch failed, keeping last snapshot")
	}
}

func (p *LeaderboardPoller) tick(ctx context.Context) error {
	p.mu.Lock()
	switch p.state {
	case PollerStopped:
		p.mu.Unlock()
		return ErrPollerStopped
	case PollerCompleted:
		p.mu.Unlock()
		return ErrTournamentCompleted
	}
	if !p.inFlight.CompareAndSwap(false, true) {
		p.mu.Unlock()
		p.metrics.fetchSkipped(p.tournamentID, p.source)
		return ErrFetchInFlight
	}
	gen := p.generation
	p.state = PollerFetching
	p.mu.Unlock()
	defer p.inFlight.Store(false)

	p.metrics.fetchStarted(p.tournamentID, p.source)
	start := p.now()
	snapshot, err := p.fetch(ctx)
	finished := p.now()
	p.metrics.fetchFinished(p.tournamentID, p.source, finished.Sub(start), err, finished)

	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		p.logger.Debug("Discarding leaderboard fetched after stop")
		return ErrPollerStopped
	}

	if err != nil {
		p.state = PollerError
		p.lastErr = err.Error()
		p.lastErrAt = finished
		p.failures++
		p.mu.Unlock()
		return fmt.Errorf("fetch leaderboard for %s: %w", p.tournamentID, err)
	}

	snapshot.TournamentID = p.tournamentID
	if snapshot.FetchedAt.IsZero() {
		snapshot.FetchedAt = finished
	}
	p.snapshot = &snapshot
	p.restored = false
	p.lastSuccess = finished
	p.lastErr = ""
	p.failures = 0
	p.state = PollerIdle

	completed := snapshot.Status.IsTerminal()
	if completed {
		p.state = PollerCompleted
		p.scheduled = false
		p.cron.Remove(p.entryID)
	} else if p.scheduled {
		// a successful fetch restarts the countdown
		if err := p.scheduleLocked(); err != nil {
			p.logger.WithError(err).Error("Failed to reschedule leaderboard poller")
		}
	}
	p.mu.Unlock()

	p.saveToCache(ctx, snapshot)

	if completed {
		p.cron.Stop()
		p.logger.WithField("round", snapshot.Round).Info("Tournament completed, leaderboard polling ended")
		if p.finalize != nil {
			if err := p.finalize(ctx, snapshot); err != nil {
				p.logger.WithError(err).Error("Failed to finalize tournament results")
			}
		}
	}
	return nil
}

func (p *LeaderboardPoller) restoreFromCache(ctx context.Context) {
	if p.cache == nil {
		return
	}
	snapshot, err := p.cache.LoadSnapshot(ctx, p.tournamentID)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			p.logger.WithError(err).Warn("Failed to restore cached leaderboard")
		}
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snapshot == nil {
		p.snapshot = &snapshot
		p.restored = true
		p.logger.WithField("fetched_at", snapshot.FetchedAt).Info("Restored cached leaderboard")
	}
}

func (p *LeaderboardPoller) saveToCache(ctx context.Context, snapshot golf.Snapshot) {
	if p.cache == nil {
		return
	}
	if err := p.cache.SaveSnapshot(ctx, snapshot); err != nil {
		p.logger.WithError(err).Warn("Failed to cache leaderboard snapshot")
	}
}
