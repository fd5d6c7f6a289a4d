package golf

import (
	"sort"
)

// Standing is the resolved position of one leaderboard entry.
type Standing struct {
	Position     *int
	TieGroupSize int
	HasTeedOff   bool
	Eliminated   bool
}

// ResolvePositions assigns a position and tie-group size to every entry.
// The result is index-aligned with entries. Players who have not teed off or
// who are marked eliminated get a nil position and never occupy a slot.
func ResolvePositions(entries []LeaderboardEntry, mode PositionMode) []Standing {
	standings := make([]Standing, len(entries))
	for i, entry := range entries {
		standings[i] = Standing{
			HasTeedOff: HasTeedOff(entry),
			Eliminated: IsEliminated(entry.RawPosition),
		}
	}

	switch mode {
	case PositionFromProvider:
		resolveFromProvider(entries, standings)
	default:
		resolveFromScore(entries, standings)
	}
	return standings
}

func ranked(s Standing) bool {
	return s.HasTeedOff && !s.Eliminated
}

func resolveFromScore(entries []LeaderboardEntry, standings []Standing) {
	countByScore := make(map[int]int)
	for i, entry := range entries {
		if ranked(standings[i]) {
			countByScore[entry.TotalScore]++
		}
	}

	scores := make([]int, 0, len(countByScore))
	for score := range countByScore {
		scores = append(scores, score)
	}
	sort.Ints(scores)

	// lower totals are better: position = 1 + players strictly ahead
	positionByScore := make(map[int]int, len(scores))
	ahead := 0
	for _, score := range scores {
		positionByScore[score] = ahead + 1
		ahead += countByScore[score]
	}

	for i, entry := range entries {
		if !ranked(standings[i]) {
			continue
		}
		pos := positionByScore[entry.TotalScore]
		standings[i].Position = &pos
		standings[i].TieGroupSize = countByScore[entry.TotalScore]
	}
}

func resolveFromProvider(entries []LeaderboardEntry, standings []Standing) {
	parsed := make([]int, len(entries))
	countByPosition := make(map[int]int)
	for i, entry := range entries {
		if !ranked(standings[i]) {
			continue
		}
		pos, ok := ParsePosition(entry.RawPosition)
		if !ok {
			continue
		}
		parsed[i] = pos
		countByPosition[pos]++
	}

	for i := range entries {
		if parsed[i] == 0 {
			continue
		}
		pos := parsed[i]
		standings[i].Position = &pos
		standings[i].TieGroupSize = countByPosition[pos]
	}
}

// TieGroups lists the distinct tie groups of resolved standings, ordered by start.
func TieGroups(standings []Standing) []TieGroup {
	seen := make(map[int]bool)
	var groups []TieGroup
	for _, s := range standings {
		if s.Position == nil || seen[*s.Position] {
			continue
		}
		seen[*s.Position] = true
		groups = append(groups, TieGroup{Start: *s.Position, Size: s.TieGroupSize})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Start < groups[j].Start })
	return groups
}
