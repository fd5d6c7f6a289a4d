package golf

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapMatcher map[string]string

func (m mapMatcher) Resolve(name string) (string, error) {
	if id, ok := m[name]; ok {
		return id, nil
	}
	return "", errors.New("no match")
}

func TestReconcile_ProjectedCutMissInPayingPosition(t *testing.T) {
	table := mustTable(t, 100, 80, 60, 40, 20)

	entries := []LeaderboardEntry{
		{Name: "P1", TotalScore: -4, Thru: "F"},
		{Name: "P2", TotalScore: -3, Thru: "F"},
		{Name: "P3", TotalScore: -1, Thru: "F"},
		{Name: "P4", TotalScore: 1, Thru: "F"},
		{Name: "P5", TotalScore: 3, Thru: "F"},
	}
	snapshot := Snapshot{
		TournamentID: "t1",
		Round:        1,
		CutLine:      &CutLine{Score: 2, PlayersCount: 4},
		PositionMode: PositionFromScore,
		Entries:      entries,
	}

	result := Reconcile(snapshot, table, mapMatcher{"P5": "p5"})

	p5, ok := result.Player("p5")
	require.True(t, ok)
	assert.Equal(t, intPtr(5), p5.Position)
	assert.True(t, p5.ProjectedCutMiss)
	assert.Zero(t, p5.Prize)
}

func TestReconcile_SameSnapshotAfterCut(t *testing.T) {
	table := mustTable(t, 100, 80, 60, 40, 20)
	snapshot := Snapshot{
		Round:        3,
		CutLine:      &CutLine{Score: 2},
		PositionMode: PositionFromScore,
		Entries: []LeaderboardEntry{
			{Name: "P1", TotalScore: -4, Thru: "F"},
			{Name: "P2", TotalScore: 3, Thru: "F"},
		},
	}

	result := Reconcile(snapshot, table, mapMatcher{"P2": "p2"})
	p2, ok := result.Player("p2")
	require.True(t, ok)
	assert.False(t, p2.ProjectedCutMiss)
	assert.Equal(t, int64(80), p2.Prize)
}

func TestReconcile_ReportsUnmatchedSeparately(t *testing.T) {
	table := mustTable(t, 1_656_000, 1_002_800, 634_000)
	fetched := time.Date(2024, 4, 14, 18, 0, 0, 0, time.UTC)
	snapshot := Snapshot{
		TournamentID: "masters",
		Source:       "espn",
		Status:       TournamentInProgress,
		Round:        4,
		PositionMode: PositionFromProvider,
		FetchedAt:    fetched,
		Entries: []LeaderboardEntry{
			{Name: "Ludvig Aberg", RawPosition: "T2", TotalScore: -7, Thru: "F"},
			{Name: "Scottie Scheffler", RawPosition: "1", TotalScore: -11, Thru: "F"},
			{Name: "Unknown Qualifier", RawPosition: "T2", TotalScore: -7, Thru: "F"},
			{Name: "Max Homa", RawPosition: "4", TotalScore: -4, Thru: "F"},
		},
	}
	matcher := mapMatcher{
		"Scottie Scheffler": "scheffler",
		"Ludvig Aberg":      "aberg",
		"Max Homa":          "homa",
	}

	result := Reconcile(snapshot, table, matcher)

	require.Len(t, result.Players, 4)
	assert.Equal(t, "Scottie Scheffler", result.Players[0].Name)
	assert.Equal(t, "1", result.Players[0].PositionLabel)
	assert.Equal(t, "T2", result.Players[1].PositionLabel)
	assert.Equal(t, fetched, result.FetchedAt)
	assert.Equal(t, int64(3_292_800), result.Purse)

	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, "Unknown Qualifier", result.Unmatched[0].Name)
	assert.Equal(t, "no match", result.Unmatched[0].Reason)

	// the unmatched player still occupies its tie slot
	prizes := result.PrizesByPlayer()
	assert.Equal(t, int64(1_656_000), prizes["scheffler"])
	assert.Equal(t, int64(818_400), prizes["aberg"])
	assert.Zero(t, prizes["homa"])
	assert.Len(t, prizes, 3)
}

func TestReconcile_DuplicateMatchKeepsFirst(t *testing.T) {
	table := mustTable(t, 10)
	snapshot := Snapshot{
		Round:        2,
		PositionMode: PositionFromScore,
		Entries: []LeaderboardEntry{
			{Name: "Cam Davis", TotalScore: -1, Thru: "F"},
			{Name: "Cameron Davis", TotalScore: 0, Thru: "F"},
		},
	}
	matcher := mapMatcher{"Cam Davis": "davis", "Cameron Davis": "davis"}

	result := Reconcile(snapshot, table, matcher)

	require.Len(t, result.Unmatched, 1)
	assert.Equal(t, "Cameron Davis", result.Unmatched[0].Name)
	assert.Contains(t, result.Unmatched[0].Reason, "Cam Davis")

	p, ok := result.Player("davis")
	require.True(t, ok)
	assert.Equal(t, "Cam Davis", p.Name)
	assert.Equal(t, int64(10), p.Prize)
}

func TestReconcile_EliminatedKeepsProviderLabel(t *testing.T) {
	table := mustTable(t, 10)
	snapshot := Snapshot{
		Round:        3,
		PositionMode: PositionFromProvider,
		Entries: []LeaderboardEntry{
			{Name: "Gone", RawPosition: "CUT", TotalScore: 8, Thru: "F"},
		},
	}

	result := Reconcile(snapshot, table, nil)
	require.Len(t, result.Players, 1)
	assert.Equal(t, "CUT", result.Players[0].PositionLabel)
	assert.Nil(t, result.Players[0].Position)
	assert.Empty(t, result.Unmatched)
}

func TestReconcile_TeeTimeInLaterRoundIsUnpaid(t *testing.T) {
	table := mustTable(t, 1000, 500, 250)
	snapshot := Snapshot{
		Round:        2,
		PositionMode: PositionFromScore,
		Entries: []LeaderboardEntry{
			{Name: "A", TotalScore: -5, Thru: "F"},
			{Name: "B", TotalScore: -4, Thru: "1:45 PM"},
			{Name: "C", TotalScore: -2, Thru: "9"},
		},
	}

	result := Reconcile(snapshot, table, mapMatcher{"A": "a", "B": "b", "C": "c"})

	b, ok := result.Player("b")
	require.True(t, ok)
	assert.False(t, b.HasTeedOff)
	assert.Nil(t, b.Position)
	assert.Zero(t, b.Prize)

	c, ok := result.Player("c")
	require.True(t, ok)
	assert.Equal(t, intPtr(2), c.Position)
	assert.Equal(t, int64(500), c.Prize)
}
