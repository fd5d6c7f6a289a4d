package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PrizeDistribution is one row of a tournament's payout table. Amount is in
// whole currency units; Percentage is informational.
type PrizeDistribution struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TournamentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_prize_position,priority:1" json:"tournament_id"`
	Position     int       `gorm:"not null;uniqueIndex:idx_prize_position,priority:2" json:"position"`
	Percentage   *float64  `json:"percentage"`
	Amount       int64     `gorm:"not null" json:"amount"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (PrizeDistribution) TableName() string {
	return "prize_distributions"
}

// TournamentPlayerResult is the settled prize of one player, upserted by
// (tournament, player) so repeated finalization is harmless.
type TournamentPlayerResult struct {
	TournamentID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"tournament_id"`
	PlayerID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"player_id"`
	Position      *int      `json:"position"`
	PositionLabel string    `gorm:"type:varchar(10)" json:"position_label"`
	TotalScore    int       `json:"total_score"`
	Prize         int64     `gorm:"not null;default:0" json:"prize"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (TournamentPlayerResult) TableName() string {
	return "tournament_player_results"
}

// TournamentFinalResult stores the authoritative final leaderboard once a
// tournament completes. Readers use it instead of any live snapshot.
type TournamentFinalResult struct {
	TournamentID uuid.UUID      `gorm:"type:uuid;primaryKey" json:"tournament_id"`
	Source       string         `gorm:"type:varchar(20)" json:"source"`
	Leaderboard  datatypes.JSON `json:"leaderboard"`
	Purse        int64          `json:"purse"`
	FinalizedAt  time.Time      `json:"finalized_at"`
}

// TableName specifies the table name for GORM
func (TournamentFinalResult) TableName() string {
	return "tournament_final_results"
}

// AllModels lists every table managed by migrations, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&Tournament{},
		&Player{},
		&PrizeDistribution{},
		&Roster{},
		&RosterPlayer{},
		&TournamentPlayerResult{},
		&TournamentFinalResult{},
	}
}
