package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stitts-dev/golf-prize-engine/internal/golf"
	"github.com/stitts-dev/golf-prize-engine/internal/models"
	"github.com/stitts-dev/golf-prize-engine/internal/standings"
	"github.com/stitts-dev/golf-prize-engine/pkg/database"
)

// RosterStore holds roster membership and the settled prizes written back to it.
type RosterStore struct {
	db *database.DB
}

func NewRosterStore(db *database.DB) *RosterStore {
	return &RosterStore{db: db}
}

// Create inserts a roster with its player links.
func (s *RosterStore) Create(ctx context.Context, roster *models.Roster) error {
	if err := s.db.WithContext(ctx).Create(roster).Error; err != nil {
		return fmt.Errorf("failed to create roster: %w", err)
	}
	return nil
}

// Rosters returns the tournament's rosters in creation order.
func (s *RosterStore) Rosters(ctx context.Context, tournamentID uuid.UUID) ([]standings.Roster, error) {
	var rows []models.Roster
	err := s.db.WithContext(ctx).
		Preload("Players", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("tournament_id = ?", tournamentID).
		Order("created_at").Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load rosters: %w", err)
	}

	rosters := make([]standings.Roster, 0, len(rows))
	for _, row := range rows {
		roster := standings.Roster{
			ID:         row.ID.String(),
			MemberName: row.MemberName,
			HasLineup:  row.HasLineup,
			PlayerIDs:  make([]string, 0, len(row.Players)),
		}
		for _, p := range row.Players {
			roster.PlayerIDs = append(roster.PlayerIDs, p.PlayerID.String())
		}
		rosters = append(rosters, roster)
	}
	return rosters, nil
}

// SaveFinalPrizes upserts each matched player's settled prize keyed by
// (tournament, player) and copies it onto the tournament's roster links.
// Running it twice with the same results leaves the same rows.
func (s *RosterStore) SaveFinalPrizes(ctx context.Context, tournamentID uuid.UUID, players []golf.ResolvedPlayerResult) error {
	now := time.Now().UTC()
	rows := make([]models.TournamentPlayerResult, 0, len(players))
	for _, p := range players {
		if !p.Matched {
			continue
		}
		playerID, err := uuid.Parse(p.PlayerID)
		if err != nil {
			return fmt.Errorf("invalid player id %q: %w", p.PlayerID, err)
		}
		rows = append(rows, models.TournamentPlayerResult{
			TournamentID:  tournamentID,
			PlayerID:      playerID,
			Position:      p.Position,
			PositionLabel: p.PositionLabel,
			TotalScore:    p.TotalScore,
			Prize:         p.Prize,
			UpdatedAt:     now,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tournament_id"}, {Name: "player_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"position", "position_label", "total_score", "prize", "updated_at"}),
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("failed to upsert player results: %w", err)
		}

		for _, row := range rows {
			rosterIDs := tx.Model(&models.Roster{}).Select("id").Where("tournament_id = ?", tournamentID)
			err := tx.Model(&models.RosterPlayer{}).
				Where("player_id = ? AND roster_id IN (?)", row.PlayerID, rosterIDs).
				Update("final_prize", row.Prize).Error
			if err != nil {
				return fmt.Errorf("failed to write roster prize: %w", err)
			}
		}
		return nil
	})
}

// PlayerResults returns the settled results for a tournament.
func (s *RosterStore) PlayerResults(ctx context.Context, tournamentID uuid.UUID) ([]models.TournamentPlayerResult, error) {
	var rows []models.TournamentPlayerResult
	err := s.db.WithContext(ctx).Where("tournament_id = ?", tournamentID).Order("prize DESC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load player results: %w", err)
	}
	return rows, nil
}
