package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roster is one member's team of golfers for a tournament.
type Roster struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TournamentID uuid.UUID `gorm:"type:uuid;not null;index" json:"tournament_id"`
	MemberName   string    `gorm:"not null" json:"member_name"`
	HasLineup    bool      `json:"has_lineup"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Players []RosterPlayer `gorm:"foreignKey:RosterID" json:"players,omitempty"`
}

// TableName specifies the table name for GORM
func (Roster) TableName() string {
	return "rosters"
}

func (r *Roster) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RosterPlayer links a roster to an internal player. FinalPrize is written
// once the tournament result is authoritative.
type RosterPlayer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RosterID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_roster_player,priority:1" json:"roster_id"`
	PlayerID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_roster_player,priority:2;index" json:"player_id"`
	Player     *Player   `gorm:"foreignKey:PlayerID" json:"player,omitempty"`
	Cost       int       `json:"cost"`
	FinalPrize *int64    `json:"final_prize"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (RosterPlayer) TableName() string {
	return "roster_players"
}
