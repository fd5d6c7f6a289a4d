package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/golf-prize-engine/internal/golf"
)

const rapidAPIHost = "live-golf-data.p.rapidapi.com"

// RapidAPIGolfClient reads the RapidAPI Live Golf Data leaderboard. Positions
// arrive as numbers with 0 for missing and no cut line is published, so
// positions are derived from totals.
type RapidAPIGolfClient struct {
	feedClient
	apiKey  string
	apiHost string
	usage   *RequestTracker
}

// RequestTracker counts provider requests per day for plans with a daily quota.
type RequestTracker struct {
	mu         sync.Mutex
	dailyCount int
	dailyLimit int
	lastReset  time.Time
}

// NewRequestTracker creates a tracker; a limit of 0 disables the quota check.
func NewRequestTracker(dailyLimit int) *RequestTracker {
	return &RequestTracker{dailyLimit: dailyLimit, lastReset: time.Now()}
}

// Track records one request, failing once the daily limit is reached.
func (t *RequestTracker) Track(now time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if now.YearDay() != t.lastReset.YearDay() || now.Year() != t.lastReset.Year() {
		t.dailyCount = 0
		t.lastReset = now
	}
	if t.dailyLimit > 0 && t.dailyCount >= t.dailyLimit {
		return fmt.Errorf("%w (%d/%d)", ErrQuotaExceeded, t.dailyCount, t.dailyLimit)
	}
	t.dailyCount++
	return nil
}

// Count returns requests made since the last daily reset.
func (t *RequestTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dailyCount
}

// NewRapidAPIGolfClient creates a new RapidAPI golf leaderboard client
func NewRapidAPIGolfClient(cfg Config, dailyLimit int, logger *logrus.Logger) *RapidAPIGolfClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://" + rapidAPIHost
	}
	return &RapidAPIGolfClient{
		feedClient: newFeedClient(SourceRapidAPI, cfg, logger),
		apiKey:     cfg.APIKey,
		apiHost:    rapidAPIHost,
		usage:      NewRequestTracker(dailyLimit),
	}
}

// RapidAPI response structures
type rapidAPILeaderboardResponse struct {
	Results struct {
		Tournament  rapidAPITournament         `json:"tournament"`
		Leaderboard []rapidAPILeaderboardEntry `json:"leaderboard"`
	} `json:"results"`
}

type rapidAPITournament struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	CurrentRound int    `json:"current_round"`
}

type rapidAPILeaderboardEntry struct {
	PlayerID      int       `json:"player_id"`
	Position      int       `json:"position"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	HoleNum       int       `json:"hole_num"`
	Score         flexScore `json:"total_to_par"`
	Today         flexScore `json:"today_to_par"`
	Status        string    `json:"status"`
	IsAmateur     bool      `json:"is_amateur"`
	RoundComplete bool      `json:"round_complete"`
	TeeTime       string    `json:"tee_time"`
}

// Name implements LeaderboardProvider.
func (c *RapidAPIGolfClient) Name() string {
	return SourceRapidAPI
}

// FetchLeaderboard fetches one tournament and normalizes it into a snapshot.
func (c *RapidAPIGolfClient) FetchLeaderboard(ctx context.Context, externalID string) (golf.Snapshot, error) {
	if err := c.usage.Track(c.now()); err != nil {
		return golf.Snapshot{}, fmt.Errorf("%s: %w", SourceRapidAPI, err)
	}

	endpoint := fmt.Sprintf("%s/leaderboard?tournament_id=%s", c.baseURL, url.QueryEscape(externalID))
	headers := http.Header{}
	headers.Set("X-RapidAPI-Key", c.apiKey)
	headers.Set("X-RapidAPI-Host", c.apiHost)

	var response rapidAPILeaderboardResponse
	if err := c.getJSON(ctx, endpoint, headers, &response); err != nil {
		return golf.Snapshot{}, fmt.Errorf("failed to fetch golf leaderboard: %w", err)
	}

	tournament := response.Results.Tournament
	if tournament.ID != 0 && strconv.Itoa(tournament.ID) != externalID {
		return golf.Snapshot{}, fmt.Errorf("%s tournament %s: %w", SourceRapidAPI, externalID, ErrEventNotFound)
	}

	snapshot := golf.Snapshot{
		Source:       SourceRapidAPI,
		Status:       mapRapidAPIStatus(tournament.Status),
		Round:        tournament.CurrentRound,
		PositionMode: golf.PositionFromScore,
		FetchedAt:    c.now(),
		Entries:      make([]golf.LeaderboardEntry, 0, len(response.Results.Leaderboard)),
	}
	for _, row := range response.Results.Leaderboard {
		snapshot.Entries = append(snapshot.Entries, row.toEntry())
	}

	c.logger.WithFields(logrus.Fields{
		"source":        SourceRapidAPI,
		"tournament_id": externalID,
		"round":         snapshot.Round,
		"players":       len(snapshot.Entries),
		"daily_count":   c.usage.Count(),
	}).Debug("Normalized RapidAPI leaderboard")

	return snapshot, nil
}

func (row rapidAPILeaderboardEntry) toEntry() golf.LeaderboardEntry {
	entry := golf.LeaderboardEntry{
		Name:          strings.TrimSpace(row.FirstName + " " + row.LastName),
		ExternalID:    strconv.Itoa(row.PlayerID),
		TotalScore:    int(row.Score),
		TodayScore:    int(row.Today),
		RoundComplete: row.RoundComplete || row.HoleNum >= 18,
		IsAmateur:     row.IsAmateur,
		TeeTime:       parseTeeTime(row.TeeTime),
	}
	if row.Position > 0 {
		entry.RawPosition = strconv.Itoa(row.Position)
	}

	switch {
	case row.HoleNum >= 18 || entry.RoundComplete:
		entry.Thru = golf.FinishedMarker
	case row.HoleNum > 0:
		entry.Thru = strconv.Itoa(row.HoleNum)
	case entry.TeeTime != nil:
		entry.Thru = entry.TeeTime.Format("3:04 PM")
	}

	switch strings.ToLower(row.Status) {
	case "cut", "mc":
		entry.RawPosition = "CUT"
	case "wd", "withdrawn":
		entry.RawPosition = "WD"
	case "dq", "disqualified":
		entry.RawPosition = "DQ"
	}
	return entry
}

func mapRapidAPIStatus(status string) golf.TournamentStatus {
	switch strings.ToLower(status) {
	case "active", "in progress", "in_progress":
		return golf.TournamentInProgress
	case "finished", "complete", "completed", "official":
		return golf.TournamentCompleted
	default:
		return golf.TournamentScheduled
	}
}
