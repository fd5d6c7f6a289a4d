package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/stitts-dev/golf-prize-engine/internal/golf"
	"github.com/stitts-dev/golf-prize-engine/internal/providers"
	"github.com/stitts-dev/golf-prize-engine/internal/services"
	"github.com/stitts-dev/golf-prize-engine/pkg/utils"
)

// TournamentService is the reconciliation surface the HTTP API reads from.
type TournamentService interface {
	Leaderboard(ctx context.Context, tournamentID string) (*services.LeaderboardView, error)
	Standings(ctx context.Context, tournamentID string) (*services.StandingsView, error)
	Unmatched(ctx context.Context, tournamentID string) ([]golf.UnmatchedPlayer, error)
	Refresh(ctx context.Context, tournamentID string) (services.PollerStatus, error)
	PollerStatus(ctx context.Context, tournamentID string) (services.PollerStatus, error)
}

// TournamentHandler serves reconciled leaderboards and team standings.
type TournamentHandler struct {
	service TournamentService
	logger  *logrus.Logger
}

func NewTournamentHandler(service TournamentService, logger *logrus.Logger) *TournamentHandler {
	return &TournamentHandler{
		service: service,
		logger:  logger,
	}
}

// GetLeaderboard returns resolved players with prizes, poller status and unmatched names.
func (h *TournamentHandler) GetLeaderboard(c *gin.Context) {
	id, ok := tournamentID(c)
	if !ok {
		return
	}
	view, err := h.service.Leaderboard(c.Request.Context(), id)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, view)
}

// GetStandings returns team standings ordered by total prize money.
func (h *TournamentHandler) GetStandings(c *gin.Context) {
	id, ok := tournamentID(c)
	if !ok {
		return
	}
	view, err := h.service.Standings(c.Request.Context(), id)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, view)
}

// GetUnmatched returns feed names that could not be tied to an internal player.
func (h *TournamentHandler) GetUnmatched(c *gin.Context) {
	id, ok := tournamentID(c)
	if !ok {
		return
	}
	unmatched, err := h.service.Unmatched(c.Request.Context(), id)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, gin.H{
		"tournament_id": id,
		"count":         len(unmatched),
		"players":       unmatched,
	})
}

// GetPollerStatus returns the poller's state and countdown.
func (h *TournamentHandler) GetPollerStatus(c *gin.Context) {
	id, ok := tournamentID(c)
	if !ok {
		return
	}
	status, err := h.service.PollerStatus(c.Request.Context(), id)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, status)
}

// RefreshLeaderboard fetches the leaderboard now unless a fetch is already running.
func (h *TournamentHandler) RefreshLeaderboard(c *gin.Context) {
	id, ok := tournamentID(c)
	if !ok {
		return
	}
	status, err := h.service.Refresh(c.Request.Context(), id)
	if err != nil {
		h.sendServiceError(c, err)
		return
	}
	utils.SendSuccess(c, status)
}

// tournamentID reads the :id path parameter and rejects anything that is not a uuid.
func tournamentID(c *gin.Context) (string, bool) {
	raw := c.Param("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.SendValidationError(c, "Invalid tournament ID", err.Error())
		return "", false
	}
	return id.String(), true
}

func (h *TournamentHandler) sendServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTournamentNotFound):
		utils.SendNotFound(c, "Tournament not found")
	case errors.Is(err, services.ErrNoPoller):
		utils.SendNotFound(c, "Tournament is not being polled")
	case errors.Is(err, services.ErrNoSnapshot):
		utils.SendUpstreamUnavailable(c, "Leaderboard not yet available", err.Error())
	case errors.Is(err, services.ErrFetchInFlight):
		utils.SendConflict(c, "A leaderboard fetch is already in progress")
	case errors.Is(err, services.ErrTournamentCompleted):
		utils.SendConflict(c, "Tournament is completed; results are final")
	case errors.Is(err, services.ErrPollerStopped):
		utils.SendUpstreamUnavailable(c, "Leaderboard polling is stopped", err.Error())
	case errors.Is(err, golf.ErrInvalidPayoutTable):
		utils.SendError(c, http.StatusUnprocessableEntity, utils.NewAppError(utils.ErrCodeInvalidPayoutTable, "Prize distribution is invalid", err.Error()))
	case isUpstreamError(err):
		_ = c.Error(err)
		utils.SendUpstreamUnavailable(c, "Score provider request failed", err.Error())
	default:
		_ = c.Error(err)
		h.logger.WithError(err).WithField("tournament_id", c.Param("id")).Error("Tournament request failed")
		utils.SendInternalError(c, "Failed to load tournament data")
	}
}

func isUpstreamError(err error) bool {
	var statusErr *providers.StatusError
	return errors.As(err, &statusErr) ||
		errors.Is(err, providers.ErrEventNotFound) ||
		errors.Is(err, providers.ErrUnknownSource) ||
		errors.Is(err, providers.ErrQuotaExceeded) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests) ||
		errors.Is(err, context.DeadlineExceeded)
}
