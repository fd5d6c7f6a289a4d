package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stitts-dev/golf-prize-engine/internal/golf"
	"github.com/stitts-dev/golf-prize-engine/internal/models"
	"github.com/stitts-dev/golf-prize-engine/internal/namematch"
	"github.com/stitts-dev/golf-prize-engine/pkg/database"
)

// TournamentStore reads and writes tournaments, players and final results.
type TournamentStore struct {
	db *database.DB
}

func NewTournamentStore(db *database.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

// Get loads a tournament by id.
func (s *TournamentStore) Get(ctx context.Context, id string) (*models.Tournament, error) {
	tournamentID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid id", ErrTournamentNotFound, id)
	}

	var tournament models.Tournament
	if err := s.db.WithContext(ctx).First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTournamentNotFound, id)
		}
		return nil, fmt.Errorf("failed to load tournament: %w", err)
	}
	return &tournament, nil
}

// Create inserts a tournament.
func (s *TournamentStore) Create(ctx context.Context, tournament *models.Tournament) error {
	if err := s.db.WithContext(ctx).Create(tournament).Error; err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

// Pollable lists tournaments whose leaderboard is not final yet.
func (s *TournamentStore) Pollable(ctx context.Context) ([]models.Tournament, error) {
	var tournaments []models.Tournament
	err := s.db.WithContext(ctx).
		Where("status IN ?", []golf.TournamentStatus{golf.TournamentScheduled, golf.TournamentInProgress}).
		Order("start_date").
		Find(&tournaments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pollable tournaments: %w", err)
	}
	return tournaments, nil
}

// UpdateProgress records the status and round a snapshot reported.
func (s *TournamentStore) UpdateProgress(ctx context.Context, id uuid.UUID, status golf.TournamentStatus, round int) error {
	err := s.db.WithContext(ctx).Model(&models.Tournament{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "current_round": round}).Error
	if err != nil {
		return fmt.Errorf("failed to update tournament progress: %w", err)
	}
	return nil
}

// CreatePlayer inserts an internal player.
func (s *TournamentStore) CreatePlayer(ctx context.Context, player *models.Player) error {
	if err := s.db.WithContext(ctx).Create(player).Error; err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

// MatchCandidates returns every internal player with its alternate spellings.
func (s *TournamentStore) MatchCandidates(ctx context.Context) ([]namematch.Candidate, error) {
	var players []models.Player
	if err := s.db.WithContext(ctx).Order("name").Find(&players).Error; err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}

	candidates := make([]namematch.Candidate, 0, len(players))
	for _, p := range players {
		candidates = append(candidates, namematch.Candidate{
			ID:      p.ID.String(),
			Name:    p.Name,
			Aliases: []string(p.Aliases),
		})
	}
	return candidates, nil
}

// SaveFinalResult stores the authoritative leaderboard, replacing any earlier one.
func (s *TournamentStore) SaveFinalResult(ctx context.Context, id uuid.UUID, result golf.Reconciliation, finalizedAt time.Time) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal final result: %w", err)
	}

	row := models.TournamentFinalResult{
		TournamentID: id,
		Source:       result.Source,
		Leaderboard:  payload,
		Purse:        result.Purse,
		FinalizedAt:  finalizedAt,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tournament_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"source", "leaderboard", "purse", "finalized_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save final result: %w", err)
	}
	return nil
}

// FinalResult loads the stored final leaderboard. ErrNoSnapshot means none was stored.
func (s *TournamentStore) FinalResult(ctx context.Context, id uuid.UUID) (golf.Reconciliation, error) {
	var row models.TournamentFinalResult
	if err := s.db.WithContext(ctx).First(&row, "tournament_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return golf.Reconciliation{}, ErrNoSnapshot
		}
		return golf.Reconciliation{}, fmt.Errorf("failed to load final result: %w", err)
	}

	var result golf.Reconciliation
	if err := json.Unmarshal(row.Leaderboard, &result); err != nil {
		return golf.Reconciliation{}, fmt.Errorf("failed to decode final result: %w", err)
	}
	return result, nil
}
