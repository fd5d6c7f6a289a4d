package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/golf-prize-engine/internal/golf"
	"github.com/stitts-dev/golf-prize-engine/internal/models"
	"github.com/stitts-dev/golf-prize-engine/internal/providers"
)

// PollerManager owns one LeaderboardPoller per tournament.
type PollerManager struct {
	registry *providers.Registry
	breakers *CircuitBreakerService
	cache    SnapshotCache
	metrics  *Metrics
	interval time.Duration
	logger   *logrus.Logger

	// pollers outlive the requests that may create them
	root       context.Context
	cancelRoot context.CancelFunc

	mu       sync.RWMutex
	pollers  map[string]*LeaderboardPoller
	finalize FinalizeFunc
	fetchFor func(t models.Tournament) (FetchFunc, error)
}

// NewPollerManager creates a manager that polls every tournament at interval.
func NewPollerManager(
	registry *providers.Registry,
	breakers *CircuitBreakerService,
	cache SnapshotCache,
	metrics *Metrics,
	interval time.Duration,
	logger *logrus.Logger,
) *PollerManager {
	m := &PollerManager{
		registry: registry,
		breakers: breakers,
		cache:    cache,
		metrics:  metrics,
		interval: interval,
		logger:   logger,
		pollers:  make(map[string]*LeaderboardPoller),
	}
	m.root, m.cancelRoot = context.WithCancel(context.Background())
	m.fetchFor = m.providerFetch
	return m
}

// SetFinalizer installs the callback run when a tournament completes.
func (m *PollerManager) SetFinalizer(fn FinalizeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finalize = fn
}

func (m *PollerManager) providerFetch(t models.Tournament) (FetchFunc, error) {
	provider, err := m.registry.Get(t.FeedSource)
	if err != nil {
		return nil, err
	}
	return ProviderFetch(m.breakers, provider, t.ExternalID), nil
}

// Ensure returns the tournament's poller, creating and starting it when missing.
func (m *PollerManager) Ensure(t models.Tournament) (*LeaderboardPoller, error) {
	id := t.ID.String()

	m.mu.Lock()
	if p, ok := m.pollers[id]; ok {
		m.mu.Unlock()
		return p, nil
	}

	fetch, err := m.fetchFor(t)
	if err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("tournament %s: %w", id, err)
	}
	p := NewLeaderboardPoller(PollerOptions{
		TournamentID: id,
		Source:       t.FeedSource,
		Interval:     m.interval,
		Fetch:        fetch,
		Cache:        m.cache,
		Finalize:     m.finalize,
		Metrics:      m.metrics,
		Logger:       m.logger,
	})
	m.pollers[id] = p
	m.mu.Unlock()

	if err := p.Start(m.root); err != nil {
		m.mu.Lock()
		delete(m.pollers, id)
		m.mu.Unlock()
		return nil, err
	}
	return p, nil
}

// StartAll starts pollers for the given tournaments, logging and skipping failures.
func (m *PollerManager) StartAll(tournaments []models.Tournament) int {
	started := 0
	for _, t := range tournaments {
		if _, err := m.Ensure(t); err != nil {
			m.logger.WithError(err).WithField("tournament_id", t.ID.String()).Error("Failed to start leaderboard poller")
			continue
		}
		started++
	}
	m.logger.WithField("pollers", started).Info("Leaderboard pollers started")
	return started
}

// Get returns the poller for a tournament id.
func (m *PollerManager) Get(tournamentID string) (*LeaderboardPoller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pollers[tournamentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoPoller, tournamentID)
	}
	return p, nil
}

// Snapshot returns the tournament's last known good leaderboard.
func (m *PollerManager) Snapshot(tournamentID string) (golf.Snapshot, error) {
	p, err := m.Get(tournamentID)
	if err != nil {
		return golf.Snapshot{}, err
	}
	return p.Snapshot()
}

// StopAll stops every poller and waits for in-flight scheduled fetches to return.
func (m *PollerManager) StopAll() {
	m.cancelRoot()

	m.mu.Lock()
	pollers := make([]*LeaderboardPoller, 0, len(m.pollers))
	for _, p := range m.pollers {
		pollers = append(pollers, p)
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, p := range pollers {
		wg.Add(1)
		go func(p *LeaderboardPoller) {
			defer wg.Done()
			p.Stop()
		}(p)
	}
	wg.Wait()
}
