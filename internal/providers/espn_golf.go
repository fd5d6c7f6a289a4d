package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/golf-prize-engine/internal/golf"
)

// ESPNGolfClient reads the ESPN golf leaderboard. ESPN sends positions and
// scores as text and publishes a cut line during rounds 1 and 2, so its
// positions are trusted as given.
type ESPNGolfClient struct {
	feedClient
}

// NewESPNGolfClient creates a new ESPN golf leaderboard client
func NewESPNGolfClient(cfg Config, logger *logrus.Logger) *ESPNGolfClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://site.api.espn.com/apis/site/v2/sports/golf"
	}
	return &ESPNGolfClient{feedClient: newFeedClient(SourceESPN, cfg, logger)}
}

// ESPN golf API response structures
type espnGolfLeaderboardResponse struct {
	Events []espnGolfEvent `json:"events"`
}

type espnGolfEvent struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Status       espnEventStatus `json:"status"`
	CutLine      *espnCutLine    `json:"cutLine"`
	Competitions []struct {
		ID          string               `json:"id"`
		Competitors []espnGolfCompetitor `json:"competitors"`
	} `json:"competitions"`
}

type espnEventStatus struct {
	Type struct {
		State     string `json:"state"`
		Completed bool   `json:"completed"`
	} `json:"type"`
	Period int `json:"period"`
}

type espnCutLine struct {
	Score        flexScore `json:"score"`
	PlayersCount int       `json:"playersCount"`
}

type espnGolfCompetitor struct {
	ID            string          `json:"id"`
	Athlete       espnGolfAthlete `json:"athlete"`
	Status        string          `json:"status"`
	Position      string          `json:"position"`
	Score         flexScore       `json:"score"`
	Today         flexScore       `json:"today"`
	Thru          string          `json:"thru"`
	RoundComplete bool            `json:"roundComplete"`
	TeeTime       string          `json:"teeTime"`
}

type espnGolfAthlete struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Amateur     bool   `json:"amateur"`
}

// Name implements LeaderboardProvider.
func (c *ESPNGolfClient) Name() string {
	return SourceESPN
}

// FetchLeaderboard fetches one event and normalizes it into a snapshot.
func (c *ESPNGolfClient) FetchLeaderboard(ctx context.Context, externalID string) (golf.Snapshot, error) {
	endpoint := fmt.Sprintf("%s/pga/leaderboard?event=%s", c.baseURL, url.QueryEscape(externalID))

	var leaderboard espnGolfLeaderboardResponse
	if err := c.getJSON(ctx, endpoint, nil, &leaderboard); err != nil {
		return golf.Snapshot{}, fmt.Errorf("failed to fetch golf leaderboard: %w", err)
	}

	event, ok := findESPNEvent(leaderboard.Events, externalID)
	if !ok {
		return golf.Snapshot{}, fmt.Errorf("%s event %s: %w", SourceESPN, externalID, ErrEventNotFound)
	}

	snapshot := golf.Snapshot{
		Source:       SourceESPN,
		Status:       mapESPNStatus(event.Status),
		Round:        event.Status.Period,
		PositionMode: golf.PositionFromProvider,
		FetchedAt:    c.now(),
	}
	if event.CutLine != nil {
		snapshot.CutLine = &golf.CutLine{
			Score:        int(event.CutLine.Score),
			PlayersCount: event.CutLine.PlayersCount,
		}
	}

	if len(event.Competitions) > 0 {
		for _, competitor := range event.Competitions[0].Competitors {
			snapshot.Entries = append(snapshot.Entries, competitor.toEntry())
		}
	}

	c.logger.WithFields(logrus.Fields{
		"source":   SourceESPN,
		"event_id": event.ID,
		"round":    snapshot.Round,
		"players":  len(snapshot.Entries),
	}).Debug("Normalized ESPN leaderboard")

	return snapshot, nil
}

func (comp espnGolfCompetitor) toEntry() golf.LeaderboardEntry {
	entry := golf.LeaderboardEntry{
		Name:          comp.Athlete.DisplayName,
		ExternalID:    comp.Athlete.ID,
		RawPosition:   strings.TrimSpace(comp.Position),
		TotalScore:    int(comp.Score),
		TodayScore:    int(comp.Today),
		Thru:          strings.TrimSpace(comp.Thru),
		RoundComplete: comp.RoundComplete,
		IsAmateur:     comp.Athlete.Amateur,
		TeeTime:       parseTeeTime(comp.TeeTime),
	}
	if entry.ExternalID == "" {
		entry.ExternalID = comp.ID
	}

	// withdrawn and cut players sometimes arrive with an empty position
	switch strings.ToLower(comp.Status) {
	case "cut":
		entry.RawPosition = "CUT"
	case "withdrawn", "wd":
		entry.RawPosition = "WD"
	case "disqualified", "dq":
		entry.RawPosition = "DQ"
	}
	if strings.EqualFold(entry.Thru, golf.FinishedMarker) {
		entry.RoundComplete = true
	}
	return entry
}

func findESPNEvent(events []espnGolfEvent, externalID string) (espnGolfEvent, bool) {
	for _, event := range events {
		if event.ID == externalID {
			return event, true
		}
	}
	// an empty id asks for whatever event ESPN lists as current
	if externalID == "" && len(events) > 0 {
		return events[0], true
	}
	return espnGolfEvent{}, false
}

func mapESPNStatus(status espnEventStatus) golf.TournamentStatus {
	if status.Type.Completed {
		return golf.TournamentCompleted
	}
	switch status.Type.State {
	case "in":
		return golf.TournamentInProgress
	case "post":
		return golf.TournamentCompleted
	default:
		return golf.TournamentScheduled
	}
}
