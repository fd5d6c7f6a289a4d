package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/stitts-dev/golf-prize-engine/internal/golf"
)

// StringList is a text array on postgres and an encoded array string elsewhere.
type StringList []string

// Value implements driver.Valuer for database storage
func (l StringList) Value() (driver.Value, error) {
	return pq.StringArray(l).Value()
}

// Scan implements sql.Scanner for database retrieval
func (l *StringList) Scan(value interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(value); err != nil {
		return err
	}
	*l = StringList(arr)
	return nil
}

// GormDBDataType picks the column type per dialect.
func (StringList) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// Feed sources a tournament can be polled from.
const (
	FeedSourceESPN     = "espn"
	FeedSourceRapidAPI = "rapidapi"
)

// Tournament is a golf event whose leaderboard is reconciled against its payout table.
type Tournament struct {
	ID           uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID   string                `gorm:"not null;uniqueIndex:idx_tournament_source_external,priority:2" json:"external_id"`
	Name         string                `gorm:"not null" json:"name"`
	FeedSource   string                `gorm:"type:varchar(20);not null;uniqueIndex:idx_tournament_source_external,priority:1" json:"feed_source"`
	Status       golf.TournamentStatus `gorm:"type:varchar(20);default:'scheduled';index" json:"status"`
	CurrentRound int                   `gorm:"default:0" json:"current_round"`
	Purse        int64                 `json:"purse"`
	StartDate    time.Time             `gorm:"index" json:"start_date"`
	EndDate      time.Time             `json:"end_date"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`

	// Associations
	PrizeDistributions []PrizeDistribution `gorm:"foreignKey:TournamentID" json:"prize_distributions,omitempty"`
	Rosters            []Roster            `gorm:"foreignKey:TournamentID" json:"rosters,omitempty"`
}

// TableName specifies the table name for GORM
func (Tournament) TableName() string {
	return "golf_tournaments"
}

func (t *Tournament) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Player is an internal golfer identity. Aliases holds alternate spellings
// seen in provider feeds.
type Player struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `gorm:"not null;index" json:"name"`
	Aliases   StringList `json:"aliases"`
	Country   string     `gorm:"type:varchar(3)" json:"country"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Player) TableName() string {
	return "golf_players"
}

func (p *Player) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
