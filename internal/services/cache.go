package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stitts-dev/golf-prize-engine/internal/golf"
)

// ErrCacheMiss is returned when a key is absent.
var ErrCacheMiss = errors.New("key not found")

// SnapshotCache persists the last known good leaderboard so a restarted
// process can serve it before its first successful fetch.
type SnapshotCache interface {
	SaveSnapshot(ctx context.Context, snapshot golf.Snapshot) error
	LoadSnapshot(ctx context.Context, tournamentID string) (golf.Snapshot, error)
}

type CacheService struct {
	client      *redis.Client
	snapshotTTL time.Duration
}

func NewCacheService(client *redis.Client, snapshotTTL time.Duration) *CacheService {
	return &CacheService{
		client:      client,
		snapshotTTL: snapshotTTL,
	}
}

func (s *CacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := s.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get cache: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal value: %w", err)
	}

	return nil
}

// Ping reports whether redis is reachable.
func (s *CacheService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// SaveSnapshot implements SnapshotCache.
func (s *CacheService) SaveSnapshot(ctx context.Context, snapshot golf.Snapshot) error {
	return s.Set(ctx, SnapshotCacheKey(snapshot.TournamentID), snapshot, s.snapshotTTL)
}

// LoadSnapshot implements SnapshotCache.
func (s *CacheService) LoadSnapshot(ctx context.Context, tournamentID string) (golf.Snapshot, error) {
	var snapshot golf.Snapshot
	if err := s.Get(ctx, SnapshotCacheKey(tournamentID), &snapshot); err != nil {
		return golf.Snapshot{}, err
	}
	return snapshot, nil
}

// Cache key generators
func SnapshotCacheKey(tournamentID string) string {
	return fmt.Sprintf("leaderboard:snapshot:%s", tournamentID)
}
