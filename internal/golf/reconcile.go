package golf

import (
	"sort"
	"time"
)

// PlayerMatcher joins a free-text feed name to an internal player id.
// A non-nil error means the name is unmatched; the error text is the reason.
type PlayerMatcher interface {
	Resolve(name string) (string, error)
}

// UnmatchedPlayer is a feed row that could not be joined to an internal player.
type UnmatchedPlayer struct {
	Name       string `json:"name"`
	ExternalID string `json:"external_id"`
	Reason     string `json:"reason"`
}

// Reconciliation is the output of one pass over a snapshot.
type Reconciliation struct {
	TournamentID string                 `json:"tournament_id"`
	Source       string                 `json:"source"`
	Status       TournamentStatus       `json:"status"`
	Round        int                    `json:"round"`
	CutLine      *CutLine               `json:"cut_line,omitempty"`
	FetchedAt    time.Time              `json:"fetched_at"`
	Purse        int64                  `json:"purse"`
	Players      []ResolvedPlayerResult `json:"players"`
	Unmatched    []UnmatchedPlayer      `json:"unmatched"`
}

// Reconcile runs name matching, position resolution, cut projection and prize
// calculation over one snapshot. It has no side effects and may be recomputed
// freely from the same inputs.
func Reconcile(snapshot Snapshot, payouts PayoutTable, matcher PlayerMatcher) Reconciliation {
	standings := ResolvePositions(snapshot.Entries, snapshot.PositionMode)

	result := Reconciliation{
		TournamentID: snapshot.TournamentID,
		Source:       snapshot.Source,
		Status:       snapshot.Status,
		Round:        snapshot.Round,
		CutLine:      snapshot.CutLine,
		FetchedAt:    snapshot.FetchedAt,
		Purse:        payouts.Purse(),
		Players:      make([]ResolvedPlayerResult, 0, len(snapshot.Entries)),
		Unmatched:    []UnmatchedPlayer{},
	}

	claimed := make(map[string]string)
	for i, entry := range snapshot.Entries {
		standing := standings[i]
		player := ResolvedPlayerResult{
			Name:          entry.Name,
			ExternalID:    entry.ExternalID,
			Position:      standing.Position,
			PositionLabel: FormatPosition(standing.Position, standing.TieGroupSize),
			TieGroupSize:  standing.TieGroupSize,
			TotalScore:    entry.TotalScore,
			TodayScore:    entry.TodayScore,
			Thru:          entry.Thru,
			IsAmateur:     entry.IsAmateur,
			HasTeedOff:    standing.HasTeedOff,
		}
		if standing.Eliminated {
			player.PositionLabel = entry.RawPosition
		}

		player.ProjectedCutMiss = ProjectedToMissCut(standing.Position, entry.TotalScore, snapshot.CutLine, snapshot.Round)
		player.Prize = CalculatePrize(PrizeInput{
			Position:         standing.Position,
			TieGroupSize:     standing.TieGroupSize,
			IsAmateur:        entry.IsAmateur,
			HasTeedOff:       standing.HasTeedOff,
			ProjectedCutMiss: player.ProjectedCutMiss,
		}, payouts)

		if matcher != nil {
			playerID, err := matcher.Resolve(entry.Name)
			switch {
			case err != nil:
				result.Unmatched = append(result.Unmatched, UnmatchedPlayer{
					Name:       entry.Name,
					ExternalID: entry.ExternalID,
					Reason:     err.Error(),
				})
			case claimed[playerID] != "":
				result.Unmatched = append(result.Unmatched, UnmatchedPlayer{
					Name:       entry.Name,
					ExternalID: entry.ExternalID,
					Reason:     "already matched by " + claimed[playerID],
				})
			default:
				claimed[playerID] = entry.Name
				player.PlayerID = playerID
				player.Matched = true
			}
		}

		result.Players = append(result.Players, player)
	}

	sortResolved(result.Players)
	return result
}

// sortResolved orders players by position, unpositioned last, then by score and name.
func sortResolved(players []ResolvedPlayerResult) {
	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]
		switch {
		case a.Position != nil && b.Position == nil:
			return true
		case a.Position == nil && b.Position != nil:
			return false
		case a.Position != nil && *a.Position != *b.Position:
			return *a.Position < *b.Position
		case a.TotalScore != b.TotalScore:
			return a.TotalScore < b.TotalScore
		}
		return a.Name < b.Name
	})
}

// PrizesByPlayer maps matched internal player ids to their resolved prize.
func (r Reconciliation) PrizesByPlayer() map[string]int64 {
	prizes := make(map[string]int64, len(r.Players))
	for _, p := range r.Players {
		if p.Matched {
			prizes[p.PlayerID] = p.Prize
		}
	}
	return prizes
}

// Player looks up a matched player's result by internal id.
func (r Reconciliation) Player(playerID string) (ResolvedPlayerResult, bool) {
	for _, p := range r.Players {
		if p.Matched && p.PlayerID == playerID {
			return p, true
		}
	}
	return ResolvedPlayerResult{}, false
}
