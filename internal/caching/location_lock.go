package caching

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultLockTTL bounds how long a crashed run can keep a location locked
const DefaultLockTTL = 10 * time.Minute

// releaseScript deletes the key only while it still holds our token
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// LocationLock is a redis lease allowing one repartition run per location
type LocationLock struct {
	client   redis.UniversalClient
	ttl      time.Duration
	newToken func() string
	logger   *slog.Logger
}

type LockOption func(*LocationLock)

func WithLockTTL(ttl time.Duration) LockOption {
	return func(l *LocationLock) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

func WithTokenGenerator(fn func() string) LockOption {
	return func(l *LocationLock) {
		if fn != nil {
			l.newToken = fn
		}
	}
}

func WithLockLogger(logger *slog.Logger) LockOption {
	return func(l *LocationLock) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func NewLocationLock(client redis.UniversalClient, opts ...LockOption) *LocationLock {
	l := &LocationLock{
		client:   client,
		ttl:      DefaultLockTTL,
		newToken: func() string { return uuid.NewString() },
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire takes the lease for locationID. The returned release is a no-op when not acquired.
func (l *LocationLock) Acquire(ctx context.Context, locationID uuid.UUID) (bool, func(), error) {
	key := LocationLockKey(locationID)
	token := l.newToken()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return false, func() {}, err
	}
	if !ok {
		return false, func() {}, nil
	}

	release := func() {
		// The run context may already be cancelled; the lease must still be released
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := l.client.Eval(releaseCtx, releaseScript, []string{key}, token).Err(); err != nil {
			l.logger.Warn("failed to release location lock", "location_id", locationID, "error", err)
		}
	}
	return true, release, nil
}
