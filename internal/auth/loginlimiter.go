package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptStore tracks consecutive failed logins per account key.
type AttemptStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
	Count(ctx context.Context, key string) (int64, error)
}

// LoginLimiterConfig tunes the throttle thresholds.
type LoginLimiterConfig struct {
	// DelayThreshold is the failure count at which progressive delay
	// starts. LockThreshold is the count at which logins are refused.
	DelayThreshold int64
	LockThreshold  int64
	DelayStep      time.Duration
	Window         time.Duration
}

// DefaultLoginLimiterConfig matches the documented throttle policy:
// delays from the third consecutive failure, lockout at the fifth.
func DefaultLoginLimiterConfig() LoginLimiterConfig {
	return LoginLimiterConfig{
		DelayThreshold: 3,
		LockThreshold:  5,
		DelayStep:      2 * time.Second,
		Window:         15 * time.Minute,
	}
}

// LoginLimiter applies progressive delay and lockout to failed logins.
type LoginLimiter struct {
	store AttemptStore
	cfg   LoginLimiterConfig
}

func NewLoginLimiter(store AttemptStore, cfg LoginLimiterConfig) *LoginLimiter {
	if cfg.DelayThreshold <= 0 {
		cfg = DefaultLoginLimiterConfig()
	}
	return &LoginLimiter{store: store, cfg: cfg}
}

// Check reports whether the account is locked and the delay to impose
// before the next attempt is processed.
func (l *LoginLimiter) Check(ctx context.Context, key string) (locked bool, delay time.Duration, err error) {
	count, err := l.store.Count(ctx, attemptKey(key))
	if err != nil {
		return false, 0, err
	}
	if count >= l.cfg.LockThreshold {
		return true, 0, nil
	}
	if count >= l.cfg.DelayThreshold {
		delay = time.Duration(count-l.cfg.DelayThreshold+1) * l.cfg.DelayStep
	}
	return false, delay, nil
}

// RecordFailure bumps the failure counter inside the rolling window.
func (l *LoginLimiter) RecordFailure(ctx context.Context, key string) error {
	_, err := l.store.Increment(ctx, attemptKey(key), l.cfg.Window)
	return err
}

// RecordSuccess clears the counter.
func (l *LoginLimiter) RecordSuccess(ctx context.Context, key string) error {
	return l.store.Reset(ctx, attemptKey(key))
}

func attemptKey(key string) string {
	return fmt.Sprintf("login_attempts:%s", key)
}

// RedisAttemptStore keeps counters in Redis so the throttle survives
// restarts and is shared across instances.
type RedisAttemptStore struct {
	client *redis.Client
}

func NewRedisAttemptStore(client *redis.Client) *RedisAttemptStore {
	return &RedisAttemptStore{client: client}
}

func (s *RedisAttemptStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

func (s *RedisAttemptStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *RedisAttemptStore) Count(ctx context.Context, key string) (int64, error) {
	count, err := s.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// MemoryAttemptStore is a single-process fallback used in tests and
// when Redis is not configured.
type MemoryAttemptStore struct {
	mu      sync.Mutex
	counts  map[string]int64
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{
		counts:  make(map[string]int64),
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *MemoryAttemptStore) Increment(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(key)
	s.counts[key]++
	if s.counts[key] == 1 {
		s.expires[key] = s.now().Add(window)
	}
	return s.counts[key], nil
}

func (s *MemoryAttemptStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counts, key)
	delete(s.expires, key)
	return nil
}

func (s *MemoryAttemptStore) Count(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(key)
	return s.counts[key], nil
}

func (s *MemoryAttemptStore) expireLocked(key string) {
	if deadline, ok := s.expires[key]; ok && s.now().After(deadline) {
		delete(s.counts, key)
		delete(s.expires, key)
	}
}
