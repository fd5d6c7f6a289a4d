package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/golf-prize-engine/internal/golf"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

const espnPayload = `{
  "events": [{
    "id": "401580344",
    "name": "The Open",
    "status": {"type": {"state": "in", "completed": false}, "period": 2},
    "cutLine": {"score": "+1", "playersCount": 70},
    "competitions": [{
      "id": "401580344",
      "competitors": [
        {"id": "c1", "athlete": {"id": "9478", "displayName": "Scottie Scheffler"}, "position": "1", "score": "-8", "today": "-3", "thru": "F"},
        {"id": "c2", "athlete": {"id": "4375972", "displayName": "Ludvig Åberg"}, "position": "T2", "score": "E", "today": 1, "thru": "14"},
        {"id": "c3", "athlete": {"id": "11", "displayName": "Amateur Kid", "amateur": true}, "position": "T2", "score": 0, "thru": "F"},
        {"id": "c4", "athlete": {"id": "12", "displayName": "Gone Early"}, "position": "", "status": "withdrawn", "score": "+9", "thru": "F"},
        {"id": "c5", "athlete": {"id": "13", "displayName": "Late Group"}, "position": "T2", "score": "garbage", "thru": "2:35 PM", "teeTime": "2024-07-19T14:35:00Z"}
      ]
    }]
  }]
}`

func TestESPNGolfClient_FetchLeaderboard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pga/leaderboard", r.URL.Path)
		assert.Equal(t, "401580344", r.URL.Query().Get("event"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(espnPayload))
	}))
	defer server.Close()

	client := NewESPNGolfClient(Config{BaseURL: server.URL, RequestsPerSecond: 100}, testLogger())
	fetched := time.Date(2024, 7, 19, 15, 0, 0, 0, time.UTC)
	client.now = func() time.Time { return fetched }

	snapshot, err := client.FetchLeaderboard(context.Background(), "401580344")
	require.NoError(t, err)

	assert.Equal(t, SourceESPN, snapshot.Source)
	assert.Equal(t, golf.TournamentInProgress, snapshot.Status)
	assert.Equal(t, 2, snapshot.Round)
	assert.Equal(t, golf.PositionFromProvider, snapshot.PositionMode)
	assert.Equal(t, fetched, snapshot.FetchedAt)
	require.NotNil(t, snapshot.CutLine)
	assert.Equal(t, golf.CutLine{Score: 1, PlayersCount: 70}, *snapshot.CutLine)

	require.Len(t, snapshot.Entries, 5)
	leader := snapshot.Entries[0]
	assert.Equal(t, "9478", leader.ExternalID)
	assert.Equal(t, -8, leader.TotalScore)
	assert.Equal(t, -3, leader.TodayScore)
	assert.True(t, leader.RoundComplete)

	assert.Equal(t, 0, snapshot.Entries[1].TotalScore)
	assert.Equal(t, 1, snapshot.Entries[1].TodayScore, "numeric scores decode too")
	assert.True(t, snapshot.Entries[2].IsAmateur)
	assert.Equal(t, "WD", snapshot.Entries[3].RawPosition)
	assert.Equal(t, 0, snapshot.Entries[4].TotalScore, "bad score text is neutral")
	require.NotNil(t, snapshot.Entries[4].TeeTime)
}

func TestESPNGolfClient_Errors(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusServiceUnavailable)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if code := int(status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		_, _ = w.Write([]byte(`{"events": []}`))
	}))
	defer server.Close()

	client := NewESPNGolfClient(Config{BaseURL: server.URL, RequestsPerSecond: 100}, testLogger())

	_, err := client.FetchLeaderboard(context.Background(), "1")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)

	status.Store(http.StatusOK)
	_, err = client.FetchLeaderboard(context.Background(), "1")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestESPNGolfClient_MalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"events": [`))
	}))
	defer server.Close()

	client := NewESPNGolfClient(Config{BaseURL: server.URL, RequestsPerSecond: 100}, testLogger())
	_, err := client.FetchLeaderboard(context.Background(), "1")
	assert.ErrorContains(t, err, "failed to decode response")
}

func TestRapidAPIGolfClient_FetchLeaderboard(t *testing.T) {
	payload := map[string]interface{}{
		"results": map[string]interface{}{
			"tournament": map[string]interface{}{"id": 651, "name": "Memorial", "status": "active", "current_round": 1},
			"leaderboard": []map[string]interface{}{
				{"player_id": 1, "position": 1, "first_name": "Xander", "last_name": "Schauffele", "hole_num": 18, "total_to_par": -6, "today_to_par": -6},
				{"player_id": 2, "position": 0, "first_name": "Max", "last_name": "Homa", "hole_num": 7, "total_to_par": "-2", "today_to_par": "-2"},
				{"player_id": 3, "position": 0, "first_name": "Tee", "last_name": "Later", "hole_num": 0, "total_to_par": "E", "tee_time": "2024-06-06T13:10:00Z"},
				{"player_id": 4, "position": 0, "first_name": "Was", "last_name": "Hurt", "hole_num": 3, "total_to_par": 4, "status": "wd"},
			},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, rapidAPIHost, r.Header.Get("X-RapidAPI-Host"))
		assert.Equal(t, "651", r.URL.Query().Get("tournament_id"))
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewRapidAPIGolfClient(Config{BaseURL: server.URL, APIKey: "secret", RequestsPerSecond: 100}, 0, testLogger())

	snapshot, err := client.FetchLeaderboard(context.Background(), "651")
	require.NoError(t, err)

	assert.Equal(t, golf.PositionFromScore, snapshot.PositionMode)
	assert.Equal(t, golf.TournamentInProgress, snapshot.Status)
	assert.Nil(t, snapshot.CutLine)
	require.Len(t, snapshot.Entries, 4)

	assert.Equal(t, "Xander Schauffele", snapshot.Entries[0].Name)
	assert.Equal(t, golf.FinishedMarker, snapshot.Entries[0].Thru)
	assert.True(t, snapshot.Entries[0].RoundComplete)

	assert.Equal(t, "", snapshot.Entries[1].RawPosition, "0 means no provider position")
	assert.Equal(t, "7", snapshot.Entries[1].Thru)
	assert.Equal(t, -2, snapshot.Entries[1].TotalScore)

	assert.Equal(t, "1:10 PM", snapshot.Entries[2].Thru)
	assert.False(t, golf.HasTeedOff(snapshot.Entries[2]))

	assert.Equal(t, "WD", snapshot.Entries[3].RawPosition)
}

func TestRapidAPIGolfClient_DailyLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"results": {"tournament": {"id": 9, "status": "active", "current_round": 2}, "leaderboard": []}}`))
	}))
	defer server.Close()

	client := NewRapidAPIGolfClient(Config{BaseURL: server.URL, RequestsPerSecond: 100}, 1, testLogger())

	_, err := client.FetchLeaderboard(context.Background(), "9")
	require.NoError(t, err)

	_, err = client.FetchLeaderboard(context.Background(), "9")
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRegistry(t *testing.T) {
	espn := NewESPNGolfClient(Config{}, testLogger())
	rapid := NewRapidAPIGolfClient(Config{}, 0, testLogger())
	registry := NewRegistry(espn, rapid)

	p, err := registry.Get("ESPN")
	require.NoError(t, err)
	assert.Equal(t, SourceESPN, p.Name())

	_, err = registry.Get("datagolf")
	assert.ErrorIs(t, err, ErrUnknownSource)

	assert.Equal(t, []string{SourceESPN, SourceRapidAPI}, registry.Sources())
}

func TestFlexScore(t *testing.T) {
	var row struct {
		A flexScore `json:"a"`
		B flexScore `json:"b"`
		C flexScore `json:"c"`
		D flexScore `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": "+3", "b": -4.0, "c": null, "d": {"x": 1}}`), &row))
	assert.Equal(t, flexScore(3), row.A)
	assert.Equal(t, flexScore(-4), row.B)
	assert.Equal(t, flexScore(0), row.C)
	assert.Equal(t, flexScore(0), row.D)
}
