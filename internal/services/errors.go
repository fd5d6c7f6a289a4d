package services

import "errors"

var (
	// ErrNoSnapshot means no leaderboard has been fetched or restored yet.
	ErrNoSnapshot = errors.New("no leaderboard snapshot available")
	// ErrTournamentNotFound means the tournament id is unknown to the store.
	ErrTournamentNotFound = errors.New("tournament not found")
	// ErrPollerStopped means the poller was stopped and will not fetch again.
	ErrPollerStopped = errors.New("leaderboard poller stopped")
	// ErrPollerRunning means Start was called on a poller that is already scheduled.
	ErrPollerRunning = errors.New("leaderboard poller already running")
	// ErrFetchInFlight means a tick was skipped because a fetch is outstanding.
	ErrFetchInFlight = errors.New("leaderboard fetch already in flight")
	// ErrTournamentCompleted means the tournament is final and polling has ended.
	ErrTournamentCompleted = errors.New("tournament completed")
	// ErrNoPoller means no poller is registered for the tournament.
	ErrNoPoller = errors.New("no poller for tournament")
)
