package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/golf-prize-engine/internal/golf"
	"github.com/stitts-dev/golf-prize-engine/internal/namematch"
	"github.com/stitts-dev/golf-prize-engine/internal/standings"
	"github.com/stitts-dev/golf-prize-engine/pkg/logger"
)

// LeaderboardView is a reconciled leaderboard plus where it came from.
type LeaderboardView struct {
	golf.Reconciliation
	Poller *PollerStatus `json:"poller,omitempty"`
	Final  bool          `json:"final"`
	Stale  bool          `json:"stale"`
}

// StandingsView is the team standings derived from one leaderboard view.
type StandingsView struct {
	TournamentID string                   `json:"tournament_id"`
	Round        int                      `json:"round"`
	FetchedAt    time.Time                `json:"fetched_at"`
	Final        bool                     `json:"final"`
	Stale        bool                     `json:"stale"`
	Teams        []standings.TeamStanding `json:"teams"`
}

// ReconciliationService joins the poller's snapshot with stored payouts,
// players and rosters. Every read recomputes from the current snapshot.
type ReconciliationService struct {
	tournaments *TournamentStore
	prizes      *PrizeStore
	rosters     *RosterStore
	pollers     *PollerManager
	aliases     *namematch.AliasTable
	metrics     *Metrics
	logger      *logrus.Logger
	now         func() time.Time
}

func NewReconciliationService(
	tournaments *TournamentStore,
	prizes *PrizeStore,
	rosters *RosterStore,
	pollers *PollerManager,
	aliases *namematch.AliasTable,
	metrics *Metrics,
	logger *logrus.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		tournaments: tournaments,
		prizes:      prizes,
		rosters:     rosters,
		pollers:     pollers,
		aliases:     aliases,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Leaderboard returns the tournament's reconciled leaderboard. Completed
// tournaments are served from the stored final result.
func (s *ReconciliationService) Leaderboard(ctx context.Context, tournamentID string) (*LeaderboardView, error) {
	tournament, err := s.tournaments.Get(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	if tournament.Status.IsTerminal() {
		final, err := s.tournaments.FinalResult(ctx, tournament.ID)
		if err == nil {
			return &LeaderboardView{Reconciliation: final, Final: true}, nil
		}
		if !errors.Is(err, ErrNoSnapshot) {
			return nil, err
		}
		// completed upstream but never finalized here; reconcile the live snapshot
	}

	poller, err := s.pollers.Get(tournamentID)
	if errors.Is(err, ErrNoPoller) {
		poller, err = s.pollers.Ensure(*tournament)
	}
	if err != nil {
		return nil, err
	}

	snapshot, err := poller.Snapshot()
	if err != nil {
		return nil, err
	}

	result, err := s.reconcile(ctx, tournament.ID, snapshot)
	if err != nil {
		return nil, err
	}

	status := poller.Status()
	return &LeaderboardView{
		Reconciliation: result,
		Poller:         &status,
		Stale:          status.Stale,
	}, nil
}

// Standings ranks the tournament's rosters by total prize money.
func (s *ReconciliationService) Standings(ctx context.Context, tournamentID string) (*StandingsView, error) {
	view, err := s.Leaderboard(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(tournamentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid id", ErrTournamentNotFound, tournamentID)
	}
	rosters, err := s.rosters.Rosters(ctx, id)
	if err != nil {
		return nil, err
	}

	return &StandingsView{
		TournamentID: tournamentID,
		Round:        view.Round,
		FetchedAt:    view.FetchedAt,
		Final:        view.Final,
		Stale:        view.Stale,
		Teams:        standings.Aggregate(rosters, view.PrizesByPlayer()),
	}, nil
}

// Unmatched lists the feed players that could not be tied to an internal player.
func (s *ReconciliationService) Unmatched(ctx context.Context, tournamentID string) ([]golf.UnmatchedPlayer, error) {
	view, err := s.Leaderboard(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if view.Unmatched == nil {
		return []golf.UnmatchedPlayer{}, nil
	}
	return view.Unmatched, nil
}

// Refresh runs one fetch for the tournament now.
func (s *ReconciliationService) Refresh(ctx context.Context, tournamentID string) (PollerStatus, error) {
	tournament, err := s.tournaments.Get(ctx, tournamentID)
	if err != nil {
		return PollerStatus{}, err
	}
	if tournament.Status.IsTerminal() {
		return PollerStatus{}, ErrTournamentCompleted
	}

	poller, err := s.pollers.Ensure(*tournament)
	if err != nil {
		return PollerStatus{}, err
	}
	if err := poller.Refresh(ctx); err != nil {
		return poller.Status(), err
	}
	return poller.Status(), nil
}

// PollerStatus reports the tournament's poller.
func (s *ReconciliationService) PollerStatus(ctx context.Context, tournamentID string) (PollerStatus, error) {
	if _, err := s.tournaments.Get(ctx, tournamentID); err != nil {
		return PollerStatus{}, err
	}
	poller, err := s.pollers.Get(tournamentID)
	if err != nil {
		return PollerStatus{}, err
	}
	return poller.Status(), nil
}

// Finalize settles a completed tournament: the reconciled leaderboard is stored
// as the final result, each matched player's prize is upserted and the
// tournament is marked completed. Calling it again rewrites the same rows.
func (s *ReconciliationService) Finalize(ctx context.Context, snapshot golf.Snapshot) error {
	id, err := uuid.Parse(snapshot.TournamentID)
	if err != nil {
		return fmt.Errorf("%w: %q is not a valid id", ErrTournamentNotFound, snapshot.TournamentID)
	}

	result, err := s.reconcile(ctx, id, snapshot)
	if err != nil {
		return err
	}
	if err := s.tournaments.SaveFinalResult(ctx, id, result, s.now().UTC()); err != nil {
		return err
	}
	if err := s.rosters.SaveFinalPrizes(ctx, id, result.Players); err != nil {
		return err
	}
	if err := s.tournaments.UpdateProgress(ctx, id, golf.TournamentCompleted, snapshot.Round); err != nil {
		return err
	}

	for _, u := range result.Unmatched {
		s.logger.WithFields(logger.PlayerFields(snapshot.TournamentID, u.Name)).
			WithField("reason", u.Reason).
			Warn("Unmatched player left out of final results")
	}
	s.logger.WithFields(logger.TournamentFields(snapshot.TournamentID, snapshot.Source)).WithFields(logrus.Fields{
		"players":   len(result.Players),
		"unmatched": len(result.Unmatched),
		"purse":     result.Purse,
	}).Info("Tournament results finalized")
	return nil
}

func (s *ReconciliationService) reconcile(ctx context.Context, tournamentID uuid.UUID, snapshot golf.Snapshot) (golf.Reconciliation, error) {
	payouts, err := s.prizes.PayoutTable(ctx, tournamentID)
	if err != nil {
		return golf.Reconciliation{}, err
	}
	candidates, err := s.tournaments.MatchCandidates(ctx)
	if err != nil {
		return golf.Reconciliation{}, err
	}

	result := golf.Reconcile(snapshot, payouts, namematch.NewMatcher(candidates, s.aliases))
	s.metrics.setUnmatched(tournamentID.String(), len(result.Unmatched))
	if len(result.Unmatched) > 0 {
		s.logger.WithFields(logrus.Fields{
			"tournament_id": tournamentID.String(),
			"unmatched":     len(result.Unmatched),
		}).Debug("Leaderboard has unmatched players")
	}
	return result, nil
}
