package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stitts-dev/golf-prize-engine/internal/golf"
	"github.com/stitts-dev/golf-prize-engine/internal/models"
	"github.com/stitts-dev/golf-prize-engine/internal/namematch"
	"github.com/stitts-dev/golf-prize-engine/pkg/database"
)

type ReconciliationTestSuite struct {
	suite.Suite
	db       *database.DB
	metrics  *Metrics
	pollers  *PollerManager
	service  *ReconciliationService
	prizes   *PrizeStore
	rosters  *RosterStore
	store    *TournamentStore
	feed     golf.Snapshot
	players  map[string]uuid.UUID
	ctx      context.Context
	tourneys []*models.Tournament
}

func TestReconciliationTestSuite(t *testing.T) {
	suite.Run(t, new(ReconciliationTestSuite))
}

func (s *ReconciliationTestSuite) SetupTest() {
	s.ctx = context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	s.Require().NoError(err)
	sqlDB, err := gdb.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(gdb.AutoMigrate(models.AllModels()...))
	s.db = database.Wrap(gdb)

	s.metrics = NewMetrics(prometheus.NewRegistry())
	s.store = NewTournamentStore(s.db)
	s.prizes = NewPrizeStore(s.db)
	s.rosters = NewRosterStore(s.db)
	s.pollers = NewPollerManager(nil, nil, nil, s.metrics, time.Minute, quietLogger())
	s.pollers.fetchFor = func(t models.Tournament) (FetchFunc, error) {
		return func(ctx context.Context) (golf.Snapshot, error) { return s.feed, nil }, nil
	}
	s.service = NewReconciliationService(s.store, s.prizes, s.rosters, s.pollers, namematch.DefaultAliases(), s.metrics, quietLogger())
	s.pollers.SetFinalizer(s.service.Finalize)

	s.players = make(map[string]uuid.UUID)
	for _, name := range []string{"Scottie Scheffler", "Rory McIlroy", "Cameron Davis"} {
		player := &models.Player{Name: name}
		s.Require().NoError(s.store.CreatePlayer(s.ctx, player))
		s.players[name] = player.ID
	}

	s.feed = golf.Snapshot{
		Source:       "espn",
		Status:       golf.TournamentInProgress,
		Round:        3,
		PositionMode: golf.PositionFromProvider,
		Entries: []golf.LeaderboardEntry{
			{Name: "Scottie Scheffler", ExternalID: "9478", RawPosition: "1", TotalScore: -10, Thru: "14"},
			{Name: "Cam Davis", ExternalID: "10054", RawPosition: "T2", TotalScore: -8, Thru: "15"},
			{Name: "McIlroy, Rory", ExternalID: "3470", RawPosition: "T2", TotalScore: -8, Thru: "13"},
			{Name: "Unknown Guy", ExternalID: "99999", RawPosition: "4", TotalScore: -6, Thru: "16"},
		},
	}
}

func (s *ReconciliationTestSuite) TearDownTest() {
	s.pollers.StopAll()
	s.Require().NoError(s.db.Close())
}

func (s *ReconciliationTestSuite) createTournament(status golf.TournamentStatus) *models.Tournament {
	tournament := &models.Tournament{
		ExternalID: fmt.Sprintf("4017%04d", len(s.tourneys)),
		Name:       "The Masters",
		FeedSource: models.FeedSourceESPN,
		Status:     status,
		StartDate:  time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 4, 13, 0, 0, 0, 0, time.UTC),
	}
	s.Require().NoError(s.store.Create(s.ctx, tournament))
	s.tourneys = append(s.tourneys, tournament)

	_, err := s.prizes.ImportDistribution(s.ctx, tournament.ID, []golf.PayoutEntry{
		{Position: 1, Amount: 1656000},
		{Position: 2, Amount: 1002800},
		{Position: 3, Amount: 634000},
	})
	s.Require().NoError(err)
	return tournament
}

func (s *ReconciliationTestSuite) createRoster(tournamentID uuid.UUID, member string, hasLineup bool, names ...string) *models.Roster {
	roster := &models.Roster{TournamentID: tournamentID, MemberName: member, HasLineup: hasLineup}
	for _, name := range names {
		roster.Players = append(roster.Players, models.RosterPlayer{PlayerID: s.players[name]})
	}
	s.Require().NoError(s.rosters.Create(s.ctx, roster))
	return roster
}

func (s *ReconciliationTestSuite) liveLeaderboard(id string) *LeaderboardView {
	var view *LeaderboardView
	s.Eventually(func() bool {
		v, err := s.service.Leaderboard(s.ctx, id)
		if err != nil {
			return false
		}
		view = v
		return true
	}, 2*time.Second, 10*time.Millisecond)
	s.Require().NotNil(view)
	return view
}

func (s *ReconciliationTestSuite) TestLeaderboardStartsPollerOnDemand() {
	tournament := s.createTournament(golf.TournamentInProgress)
	id := tournament.ID.String()

	view := s.liveLeaderboard(id)

	s.False(view.Final)
	s.Equal(int64(3292800), view.Purse)
	s.Require().Len(view.Players, 4)
	s.Require().NotNil(view.Poller)
	s.Equal(PollerIdle, view.Poller.State)

	scheffler, ok := view.Player(s.players["Scottie Scheffler"].String())
	s.Require().True(ok)
	s.Equal(int64(1656000), scheffler.Prize)

	davis, ok := view.Player(s.players["Cameron Davis"].String())
	s.Require().True(ok)
	s.Equal("T2", davis.PositionLabel)
	s.Equal(int64(818400), davis.Prize)

	rory, ok := view.Player(s.players["Rory McIlroy"].String())
	s.Require().True(ok)
	s.Equal(int64(818400), rory.Prize)

	s.Require().Len(view.Unmatched, 1)
	s.Equal("Unknown Guy", view.Unmatched[0].Name)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.unmatched.WithLabelValues(id)))
}

func (s *ReconciliationTestSuite) TestStandingsTotalsRosterPrizes() {
	tournament := s.createTournament(golf.TournamentInProgress)
	alice := s.createRoster(tournament.ID, "Alice", true, "Scottie Scheffler", "Cameron Davis")
	bob := s.createRoster(tournament.ID, "Bob", true, "Rory McIlroy")
	carl := s.createRoster(tournament.ID, "Carl", false)

	s.liveLeaderboard(tournament.ID.String())
	view, err := s.service.Standings(s.ctx, tournament.ID.String())
	s.Require().NoError(err)

	s.Require().Len(view.Teams, 3)
	s.Equal(alice.ID.String(), view.Teams[0].RosterID)
	s.Equal(int64(2474400), view.Teams[0].Total)
	s.Equal(1, view.Teams[0].Rank)
	s.Equal(bob.ID.String(), view.Teams[1].RosterID)
	s.Equal(int64(818400), view.Teams[1].Total)
	s.Equal(carl.ID.String(), view.Teams[2].RosterID)
	s.Zero(view.Teams[2].Total)
	s.Equal(3, view.Teams[2].Rank)
}

func (s *ReconciliationTestSuite) TestFinalizeIsIdempotent() {
	tournament := s.createTournament(golf.TournamentInProgress)
	alice := s.createRoster(tournament.ID, "Alice", true, "Scottie Scheffler", "Cameron Davis")

	final := s.feed
	final.Entries = append([]golf.LeaderboardEntry(nil), s.feed.Entries...)
	final.TournamentID = tournament.ID.String()
	final.Status = golf.TournamentCompleted
	final.Round = 4
	for i := range final.Entries {
		final.Entries[i].Thru = "F"
		final.Entries[i].RoundComplete = true
	}

	s.Require().NoError(s.service.Finalize(s.ctx, final))
	s.Require().NoError(s.service.Finalize(s.ctx, final))

	results, err := s.rosters.PlayerResults(s.ctx, tournament.ID)
	s.Require().NoError(err)
	s.Require().Len(results, 3)
	s.Equal(int64(1656000), results[0].Prize)
	s.Equal(s.players["Scottie Scheffler"], results[0].PlayerID)

	var links []models.RosterPlayer
	s.Require().NoError(s.db.Where("roster_id = ?", alice.ID).Order("id").Find(&links).Error)
	s.Require().Len(links, 2)
	s.Require().NotNil(links[0].FinalPrize)
	s.Equal(int64(1656000), *links[0].FinalPrize)
	s.Require().NotNil(links[1].FinalPrize)
	s.Equal(int64(818400), *links[1].FinalPrize)

	stored, err := s.store.Get(s.ctx, tournament.ID.String())
	s.Require().NoError(err)
	s.Equal(golf.TournamentCompleted, stored.Status)
	s.Equal(4, stored.CurrentRound)

	// completed tournaments are served from the stored result, not a poller
	view, err := s.service.Leaderboard(s.ctx, tournament.ID.String())
	s.Require().NoError(err)
	s.True(view.Final)
	s.Nil(view.Poller)
	s.Len(view.Players, 4)
	s.Len(view.Unmatched, 1)

	_, err = s.pollers.Get(tournament.ID.String())
	s.ErrorIs(err, ErrNoPoller)

	_, err = s.service.Refresh(s.ctx, tournament.ID.String())
	s.ErrorIs(err, ErrTournamentCompleted)
}

func (s *ReconciliationTestSuite) TestFinalizeLogsThroughServiceLogger() {
	tournament := s.createTournament(golf.TournamentInProgress)
	log, hook := logtest.NewNullLogger()
	service := NewReconciliationService(s.store, s.prizes, s.rosters, s.pollers, namematch.DefaultAliases(), s.metrics, log)

	final := s.feed
	final.TournamentID = tournament.ID.String()
	final.Status = golf.TournamentCompleted
	final.Round = 4
	s.Require().NoError(service.Finalize(s.ctx, final))

	entries := hook.AllEntries()
	s.Require().Len(entries, 2)

	unmatched := entries[0]
	s.Equal(logrus.WarnLevel, unmatched.Level)
	s.Equal("Unknown Guy", unmatched.Data["player_name"])
	s.Equal(tournament.ID.String(), unmatched.Data["tournament_id"])

	done := hook.LastEntry()
	s.Equal("Tournament results finalized", done.Message)
	s.Equal(tournament.ID.String(), done.Data["tournament_id"])
	s.Equal("espn", done.Data["source"])
	s.Equal(1, done.Data["unmatched"])
}

func (s *ReconciliationTestSuite) TestPollerCompletionWritesFinalResult() {
	tournament := s.createTournament(golf.TournamentInProgress)
	s.feed.Status = golf.TournamentCompleted
	s.feed.Round = 4

	_, err := s.pollers.Ensure(*tournament)
	s.Require().NoError(err)

	s.Eventually(func() bool {
		_, err := s.store.FinalResult(s.ctx, tournament.ID)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	status, err := s.service.PollerStatus(s.ctx, tournament.ID.String())
	s.Require().NoError(err)
	s.Equal(PollerCompleted, status.State)
}

func (s *ReconciliationTestSuite) TestRefreshReportsPollerStatus() {
	tournament := s.createTournament(golf.TournamentInProgress)
	s.liveLeaderboard(tournament.ID.String())

	status, err := s.service.Refresh(s.ctx, tournament.ID.String())
	s.Require().NoError(err)
	s.Equal(PollerIdle, status.State)
	s.True(status.HasSnapshot)
	s.NotNil(status.LastSuccessAt)
}

func (s *ReconciliationTestSuite) TestUnknownTournament() {
	_, err := s.service.Leaderboard(s.ctx, uuid.NewString())
	s.ErrorIs(err, ErrTournamentNotFound)

	_, err = s.service.Standings(s.ctx, "not-a-uuid")
	s.ErrorIs(err, ErrTournamentNotFound)

	_, err = s.service.PollerStatus(s.ctx, uuid.NewString())
	s.ErrorIs(err, ErrTournamentNotFound)
}

func (s *ReconciliationTestSuite) TestImportDistributionRejectsInvalidTable() {
	tournament := s.createTournament(golf.TournamentScheduled)

	_, err := s.prizes.ImportDistribution(s.ctx, tournament.ID, []golf.PayoutEntry{
		{Position: 1, Amount: 1000},
		{Position: 3, Amount: 500},
	})
	s.ErrorIs(err, golf.ErrInvalidPayoutTable)

	// the earlier table is untouched
	table, err := s.prizes.PayoutTable(s.ctx, tournament.ID)
	s.Require().NoError(err)
	s.Equal(3, table.PaidPositions())
	s.Equal(int64(1002800), table.Amount(2))

	stored, err := s.store.Get(s.ctx, tournament.ID.String())
	s.Require().NoError(err)
	s.Equal(int64(3292800), stored.Purse)
}

func (s *ReconciliationTestSuite) TestImportDistributionReplacesTable() {
	tournament := s.createTournament(golf.TournamentScheduled)

	table, err := s.prizes.ImportDistribution(s.ctx, tournament.ID, []golf.PayoutEntry{
		{Position: 2, Amount: 400},
		{Position: 1, Amount: 600},
	})
	s.Require().NoError(err)
	s.Equal(int64(1000), table.Purse())

	loaded, err := s.prizes.PayoutTable(s.ctx, tournament.ID)
	s.Require().NoError(err)
	s.Equal(2, loaded.PaidPositions())
	s.Equal(int64(600), loaded.Amount(1))
	s.Zero(loaded.Amount(3))

	_, err = s.prizes.ImportDistribution(s.ctx, uuid.New(), []golf.PayoutEntry{{Position: 1, Amount: 1}})
	s.True(errors.Is(err, ErrTournamentNotFound))
}
