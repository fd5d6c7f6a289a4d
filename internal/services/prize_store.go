package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stitts-dev/golf-prize-engine/internal/golf"
	"github.com/stitts-dev/golf-prize-engine/internal/models"
	"github.com/stitts-dev/golf-prize-engine/pkg/database"
)

// PrizeStore holds each tournament's payout table.
type PrizeStore struct {
	db *database.DB
}

func NewPrizeStore(db *database.DB) *PrizeStore {
	return &PrizeStore{db: db}
}

// ImportDistribution validates entries and replaces the tournament's payout
// table in one transaction. Invalid tables are rejected before any write.
func (s *PrizeStore) ImportDistribution(ctx context.Context, tournamentID uuid.UUID, entries []golf.PayoutEntry) (golf.PayoutTable, error) {
	table, err := golf.NewPayoutTable(entries)
	if err != nil {
		return golf.PayoutTable{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Tournament{}).Where("id = ?", tournamentID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: %s", ErrTournamentNotFound, tournamentID)
		}

		if err := tx.Where("tournament_id = ?", tournamentID).Delete(&models.PrizeDistribution{}).Error; err != nil {
			return err
		}

		rows := make([]models.PrizeDistribution, 0, table.PaidPositions())
		for _, entry := range table.Entries() {
			rows = append(rows, models.PrizeDistribution{
				TournamentID: tournamentID,
				Position:     entry.Position,
				Percentage:   entry.Percentage,
				Amount:       entry.Amount,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}

		return tx.Model(&models.Tournament{}).Where("id = ?", tournamentID).Update("purse", table.Purse()).Error
	})
	if err != nil {
		return golf.PayoutTable{}, fmt.Errorf("failed to import prize distribution: %w", err)
	}
	return table, nil
}

// PayoutTable loads the tournament's payout table. A tournament without one
// gets an empty table, which pays every position 0.
func (s *PrizeStore) PayoutTable(ctx context.Context, tournamentID uuid.UUID) (golf.PayoutTable, error) {
	var rows []models.PrizeDistribution
	err := s.db.WithContext(ctx).
		Where("tournament_id = ?", tournamentID).
		Order("position").
		Find(&rows).Error
	if err != nil {
		return golf.PayoutTable{}, fmt.Errorf("failed to load prize distribution: %w", err)
	}
	if len(rows) == 0 {
		return golf.PayoutTable{}, nil
	}

	entries := make([]golf.PayoutEntry, len(rows))
	for i, row := range rows {
		entries[i] = golf.PayoutEntry{Position: row.Position, Percentage: row.Percentage, Amount: row.Amount}
	}
	return golf.NewPayoutTable(entries)
}
