package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultReportCacheTTL bounds how stale a cached report may be.
const DefaultReportCacheTTL = 30 * time.Second

// Key prefixes
const (
	reportCachePrefix   = "cache:analytics:"
	reportGenerationKey = "cache:analytics:generation"
)

// CacheStore caches analytics reports in Redis.
//
// Keys embed a generation number. Invalidate bumps the generation, so every
// report computed before a write is orphaned at once and expires on its own.
// A report is stored under the generation GetReport saw before it was
// computed, never the one current at store time.
type CacheStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCacheStore creates a new CacheStore. A non-positive ttl selects DefaultReportCacheTTL.
func NewCacheStore(client *redis.Client, ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = DefaultReportCacheTTL
	}
	return &CacheStore{client: client, ttl: ttl}
}

func (s *CacheStore) generation(ctx context.Context) (int64, error) {
	gen, err := s.client.Get(ctx, reportGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func reportKey(gen int64, report, params string) string {
	return fmt.Sprintf("%s%d:%s:%s", reportCachePrefix, gen, report, params)
}

// GetReport loads a cached report into dest. Returns false on a cache miss.
// The returned generation is the one to pass to SetReport for a report
// computed after this call.
func (s *CacheStore) GetReport(ctx context.Context, report, params string, dest any) (int64, bool, error) {
	gen, err := s.generation(ctx)
	if err != nil {
		return 0, false, err
	}

	data, err := s.client.Get(ctx, reportKey(gen, report, params)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return gen, false, nil // Cache miss
		}
		return gen, false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return gen, false, err
	}
	return gen, true, nil
}

// SetReport stores a report under generation gen. If a write invalidated
// the cache since gen was read, the report lands under a dead generation
// and is never served.
func (s *CacheStore) SetReport(ctx context.Context, gen int64, report, params string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, reportKey(gen, report, params), data, s.ttl).Err()
}

// Invalidate drops every cached report.
func (s *CacheStore) Invalidate(ctx context.Context) error {
	return s.client.Incr(ctx, reportGenerationKey).Err()
}
