package standings

import (
	"sort"
)

// Roster is one member's team for a tournament.
type Roster struct {
	ID         string   `json:"id"`
	MemberName string   `json:"member_name"`
	HasLineup  bool     `json:"has_lineup"`
	PlayerIDs  []string `json:"player_ids"`
}

// PlayerPrize is one roster player's contribution to the team total.
type PlayerPrize struct {
	PlayerID string `json:"player_id"`
	Prize    int64  `json:"prize"`
	InField  bool   `json:"in_field"`
}

// TeamStanding is a roster's place in the contest.
type TeamStanding struct {
	Rank       int           `json:"rank"`
	RosterID   string        `json:"roster_id"`
	MemberName string        `json:"member_name"`
	HasLineup  bool          `json:"has_lineup"`
	Total      int64         `json:"total"`
	Players    []PlayerPrize `json:"players"`
}

// Aggregate totals each roster's player prizes and orders the teams.
//
// prizes holds the resolved prize of every player in the current snapshot;
// roster players absent from it contribute 0. Teams sort by total descending.
// On equal totals rosters with a lineup come first, rosters without one follow
// ordered by member name, and rosters with a lineup keep their input order.
// Equal totals share a rank.
func Aggregate(rosters []Roster, prizes map[string]int64) []TeamStanding {
	out := make([]TeamStanding, 0, len(rosters))
	for _, roster := range rosters {
		standing := TeamStanding{
			RosterID:   roster.ID,
			MemberName: roster.MemberName,
			HasLineup:  roster.HasLineup,
			Players:    make([]PlayerPrize, 0, len(roster.PlayerIDs)),
		}
		for _, playerID := range roster.PlayerIDs {
			prize, inField := prizes[playerID]
			standing.Players = append(standing.Players, PlayerPrize{
				PlayerID: playerID,
				Prize:    prize,
				InField:  inField,
			})
			standing.Total += prize
		}
		out = append(out, standing)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		if a.HasLineup != b.HasLineup {
			return a.HasLineup
		}
		if !a.HasLineup {
			return a.MemberName < b.MemberName
		}
		return false
	})

	for i := range out {
		if i > 0 && out[i].Total == out[i-1].Total {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}
