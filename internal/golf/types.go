package golf

import (
	"time"
)

// TournamentStatus mirrors the lifecycle reported by score providers.
type TournamentStatus string

const (
	TournamentScheduled  TournamentStatus = "scheduled"
	TournamentInProgress TournamentStatus = "in_progress"
	TournamentCompleted  TournamentStatus = "completed"
)

// IsTerminal reports whether no further leaderboard changes are expected.
func (s TournamentStatus) IsTerminal() bool {
	return s == TournamentCompleted
}

// PositionMode selects how positions are resolved for a snapshot.
type PositionMode string

const (
	// PositionFromScore ignores provider positions and derives them from totals.
	PositionFromScore PositionMode = "score"
	// PositionFromProvider trusts provider positions but recounts tie groups.
	PositionFromProvider PositionMode = "provider"
)

// LeaderboardEntry is one player row of a provider snapshot.
type LeaderboardEntry struct {
	Name          string     `json:"name"`
	ExternalID    string     `json:"external_id"`
	RawPosition   string     `json:"raw_position"`
	TotalScore    int        `json:"total_score"`
	TodayScore    int        `json:"today_score"`
	Thru          string     `json:"thru"`
	RoundComplete bool       `json:"round_complete"`
	IsAmateur     bool       `json:"is_amateur"`
	TeeTime       *time.Time `json:"tee_time,omitempty"`
}

// CutLine is the projected or actual cut for rounds 1 and 2.
type CutLine struct {
	Score        int `json:"score"`
	PlayersCount int `json:"players_count"`
}

// Snapshot is one normalized provider leaderboard.
type Snapshot struct {
	TournamentID string             `json:"tournament_id"`
	Source       string             `json:"source"`
	Status       TournamentStatus   `json:"status"`
	Round        int                `json:"round"`
	CutLine      *CutLine           `json:"cut_line,omitempty"`
	PositionMode PositionMode       `json:"position_mode"`
	Entries      []LeaderboardEntry `json:"entries"`
	FetchedAt    time.Time          `json:"fetched_at"`
}

// TieGroup is a contiguous block of positions shared by equal totals.
type TieGroup struct {
	Start int `json:"start"`
	Size  int `json:"size"`
}

// End is the last position covered by the group.
func (g TieGroup) End() int {
	return g.Start + g.Size - 1
}

// ResolvedPlayerResult is the derived standing and prize of one feed player.
type ResolvedPlayerResult struct {
	PlayerID         string `json:"player_id,omitempty"`
	Name             string `json:"name"`
	ExternalID       string `json:"external_id"`
	Matched          bool   `json:"matched"`
	Position         *int   `json:"position"`
	PositionLabel    string `json:"position_label"`
	TieGroupSize     int    `json:"tie_group_size"`
	TotalScore       int    `json:"total_score"`
	TodayScore       int    `json:"today_score"`
	Thru             string `json:"thru"`
	IsAmateur        bool   `json:"is_amateur"`
	HasTeedOff       bool   `json:"has_teed_off"`
	ProjectedCutMiss bool   `json:"projected_cut_miss"`
	Prize            int64  `json:"prize"`
}
