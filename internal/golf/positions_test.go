package golf

import (
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestResolvePositions_FromScore(t *testing.T) {
	entries := []LeaderboardEntry{
		{Name: "A", TotalScore: -10, Thru: "F"},
		{Name: "B", TotalScore: -8, Thru: "16"},
		{Name: "C", TotalScore: -8, Thru: "F"},
		{Name: "D", TotalScore: -5, Thru: "12"},
		{Name: "E", TotalScore: -20, Thru: "10:20 AM"}, // not started, excluded from counting
	}

	standings := ResolvePositions(entries, PositionFromScore)
	require.Len(t, standings, len(entries))

	assert.Equal(t, intPtr(1), standings[0].Position)
	assert.Equal(t, 1, standings[0].TieGroupSize)

	assert.Equal(t, intPtr(2), standings[1].Position)
	assert.Equal(t, intPtr(2), standings[2].Position)
	assert.Equal(t, 2, standings[1].TieGroupSize)

	// position 3 is consumed by the tie
	assert.Equal(t, intPtr(4), standings[3].Position)

	assert.Nil(t, standings[4].Position)
	assert.False(t, standings[4].HasTeedOff)
}

func TestResolvePositions_FromProviderRecountsTies(t *testing.T) {
	entries := []LeaderboardEntry{
		{Name: "A", RawPosition: "1", TotalScore: -9, Thru: "F"},
		{Name: "B", RawPosition: "T2", TotalScore: -7, Thru: "F"},
		{Name: "C", RawPosition: "T2", TotalScore: -7, Thru: "F"},
		// provider lists a tie but this player has not started
		{Name: "D", RawPosition: "T2", TotalScore: -7, Thru: "2:10 PM"},
		{Name: "E", RawPosition: "CUT", TotalScore: 6, Thru: "F"},
		{Name: "F", RawPosition: "garbage", TotalScore: 1, Thru: "F"},
	}

	standings := ResolvePositions(entries, PositionFromProvider)

	assert.Equal(t, intPtr(2), standings[1].Position)
	assert.Equal(t, 2, standings[1].TieGroupSize, "only teed-off players count toward the tie")
	assert.Nil(t, standings[3].Position)

	assert.Nil(t, standings[4].Position)
	assert.True(t, standings[4].Eliminated)

	assert.Nil(t, standings[5].Position, "unparseable position text yields no position")
}

func TestResolvePositions_EliminatedNeverOccupiesSlot(t *testing.T) {
	entries := []LeaderboardEntry{
		{Name: "A", RawPosition: "1", TotalScore: -3, Thru: "F"},
		{Name: "B", RawPosition: "WD", TotalScore: -4, Thru: "F"},
		{Name: "C", RawPosition: "2", TotalScore: 0, Thru: "F"},
	}

	standings := ResolvePositions(entries, PositionFromScore)
	assert.Equal(t, intPtr(1), standings[0].Position)
	assert.Nil(t, standings[1].Position)
	assert.Equal(t, intPtr(2), standings[2].Position)
}

func TestResolvePositions_MonotonicInScore(t *testing.T) {
	faker := gofakeit.New(20240414)

	for run := 0; run < 50; run++ {
		n := faker.IntRange(1, 80)
		entries := make([]LeaderboardEntry, n)
		for i := range entries {
			thru := "F"
			if faker.IntRange(0, 9) == 0 {
				thru = "11:30 AM"
			}
			entries[i] = LeaderboardEntry{
				Name:       fmt.Sprintf("player-%d", i),
				TotalScore: faker.IntRange(-15, 10),
				Thru:       thru,
			}
		}

		standings := ResolvePositions(entries, PositionFromScore)
		for i := range entries {
			for j := range entries {
				pi, pj := standings[i].Position, standings[j].Position
				if pi == nil || pj == nil {
					continue
				}
				if entries[i].TotalScore < entries[j].TotalScore {
					assert.Less(t, *pi, *pj)
				}
				if entries[i].TotalScore == entries[j].TotalScore {
					assert.Equal(t, *pi, *pj)
					assert.Equal(t, standings[i].TieGroupSize, standings[j].TieGroupSize)
				}
			}
		}

		// tie groups tile the positioned field without overlap
		groups := TieGroups(standings)
		next := 1
		for _, g := range groups {
			assert.Equal(t, next, g.Start)
			next = g.End() + 1
		}
	}
}

func TestTieGroups(t *testing.T) {
	standings := []Standing{
		{Position: intPtr(2), TieGroupSize: 2},
		{Position: intPtr(1), TieGroupSize: 1},
		{Position: intPtr(2), TieGroupSize: 2},
		{Position: nil},
	}

	assert.Equal(t, []TieGroup{{Start: 1, Size: 1}, {Start: 2, Size: 2}}, TieGroups(standings))
}
