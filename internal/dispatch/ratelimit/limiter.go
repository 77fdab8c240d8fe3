// Package ratelimit supplies the rate-limit collaborator contract and two
// reference implementations.
package ratelimit

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"
)

// Limiter is the rate-limit collaborator contract: markRateLimited /
// isRateLimited / removeRateLimit, narrowed to this gateway's
// single-account-type usage.
type Limiter interface {
	MarkLimited(ctx context.Context, accountID string, resetAt time.Time) error
	IsLimited(ctx context.Context, accountID string) (bool, error)
	Remove(ctx context.Context, accountID string) error
}

// resetMessagePattern matches the upstream rate-limit body's embedded
// timestamp format: "YYYY-MM-DD HH:MM:SS UTC+N".
var resetMessagePattern = regexp.MustCompile(`(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}) UTC([+-]\d+)`)

// DefaultResetWindow is the fallback used when neither the message nor
// resets_in_seconds are present.
const DefaultResetWindow = 60 * time.Minute

// ParseResetTime extracts a rate-limit reset time: first the `msg` field's
// embedded timestamp, else resets_in_seconds, else a 60 minute default
// from now.
func ParseResetTime(now time.Time, msg string, resetsInSeconds *int64) time.Time {
	if match := resetMessagePattern.FindStringSubmatch(msg); match != nil {
		offsetHours, err := strconv.Atoi(match[2])
		if err == nil {
			if parsed, err := time.Parse("2006-01-02 15:04:05", match[1]); err == nil {
				return parsed.Add(-time.Duration(offsetHours) * time.Hour)
			}
		}
	}
	if resetsInSeconds != nil {
		return now.Add(time.Duration(*resetsInSeconds) * time.Second)
	}
	return now.Add(DefaultResetWindow)
}

// MemoryLimiter is an in-process Limiter backed by a map, suitable for
// single-instance deployments and tests.
type MemoryLimiter struct {
	mu       sync.Mutex
	resetsAt map[string]time.Time
}

// NewMemoryLimiter builds an empty MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{resetsAt: make(map[string]time.Time)}
}

func (l *MemoryLimiter) MarkLimited(_ context.Context, accountID string, resetAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetsAt[accountID] = resetAt
	return nil
}

func (l *MemoryLimiter) IsLimited(_ context.Context, accountID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	resetAt, ok := l.resetsAt[accountID]
	if !ok {
		return false, nil
	}
	if time.Now().After(resetAt) {
		delete(l.resetsAt, accountID)
		return false, nil
	}
	return true, nil
}

func (l *MemoryLimiter) Remove(_ context.Context, accountID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.resetsAt, accountID)
	return nil
}

// keyPrefix namespaces this gateway's keys within a shared Redis instance.
const keyPrefix = "ambergate:ratelimit:"

// RedisClient is the subset of *redis.Client RedisLimiter needs, so tests
// can substitute a fake without importing go-redis.
type RedisClient interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, key string) error
}

// RedisLimiter is a Redis-backed Limiter for multi-instance deployments:
// the rate-limit flag lives in a SETEX key whose TTL is the time-to-reset,
// so a stale flag naturally expires without a background sweep.
type RedisLimiter struct {
	client RedisClient
}

// NewRedisLimiter builds a RedisLimiter around client.
func NewRedisLimiter(client RedisClient) *RedisLimiter {
	return &RedisLimiter{client: client}
}

func (l *RedisLimiter) MarkLimited(ctx context.Context, accountID string, resetAt time.Time) error {
	ttl := time.Until(resetAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := l.client.SetNX(ctx, keyPrefix+accountID, "1", ttl); err != nil {
		return fmt.Errorf("mark account %s rate limited: %w", accountID, err)
	}
	return nil
}

func (l *RedisLimiter) IsLimited(ctx context.Context, accountID string) (bool, error) {
	exists, err := l.client.Exists(ctx, keyPrefix+accountID)
	if err != nil {
		return false, fmt.Errorf("check rate limit for account %s: %w", accountID, err)
	}
	return exists, nil
}

func (l *RedisLimiter) Remove(ctx context.Context, accountID string) error {
	if err := l.client.Del(ctx, keyPrefix+accountID); err != nil {
		return fmt.Errorf("clear rate limit for account %s: %w", accountID, err)
	}
	return nil
}
