package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/stitts-dev/golf-prize-engine/internal/golf"
)

const (
	SourceESPN     = "espn"
	SourceRapidAPI = "rapidapi"
)

var (
	// ErrEventNotFound means the provider answered but did not list the tournament.
	ErrEventNotFound = errors.New("event not found in provider leaderboard")
	// ErrUnknownSource means no provider is registered under the requested name.
	ErrUnknownSource = errors.New("unknown leaderboard source")
	// ErrQuotaExceeded means the provider plan's daily request limit is used up.
	ErrQuotaExceeded = errors.New("daily request limit reached")
)

// LeaderboardProvider fetches one tournament's leaderboard and normalizes it.
type LeaderboardProvider interface {
	Name() string
	FetchLeaderboard(ctx context.Context, externalID string) (golf.Snapshot, error)
}

// Config holds the transport settings shared by feed clients.
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// StatusError is a non-200 provider response.
type StatusError struct {
	Source     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status code %d", e.Source, e.StatusCode)
}

// Registry resolves a tournament's feed source to its client.
type Registry struct {
	providers map[string]LeaderboardProvider
}

// NewRegistry indexes providers by Name.
func NewRegistry(providers ...LeaderboardProvider) *Registry {
	r := &Registry{providers: make(map[string]LeaderboardProvider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// Get returns the provider registered for source.
func (r *Registry) Get(source string) (LeaderboardProvider, error) {
	p, ok := r.providers[strings.ToLower(source)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	return p, nil
}

// Sources lists registered provider names in order.
func (r *Registry) Sources() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// feedClient is the HTTP plumbing shared by both feed shapes.
type feedClient struct {
	source     string
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	logger     *logrus.Logger
	now        func() time.Time
}

func newFeedClient(source string, cfg Config, logger *logrus.Logger) feedClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return feedClient{
		source:     source,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		logger:     logger,
		now:        time.Now,
	}
}

func (c *feedClient) getJSON(ctx context.Context, url string, headers http.Header, target interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limiter: %w", c.source, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", c.source, err)
	}
	req.Header.Set("Accept", "application/json")
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", c.source, err)
	}
	defer resp.Body.Close()

	c.logger.WithFields(logrus.Fields{
		"source":      c.source,
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Provider request completed")

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Source: c.source, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", c.source, err)
	}
	return nil
}

// flexScore decodes score-to-par sent either as text ("E", "+2", "-5") or as a number.
// Unparseable values decode to 0 so one bad row cannot fail a whole snapshot.
type flexScore int

func (s *flexScore) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			*s = 0
			return nil
		}
		v, _ := golf.ParseScoreToPar(text)
		*s = flexScore(v)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*s = 0
		return nil
	}
	*s = flexScore(math.Round(f))
	return nil
}

func parseTeeTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04Z", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
