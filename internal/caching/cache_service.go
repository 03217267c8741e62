package caching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"slotwise/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix      = "slotwise"
	LastSummaryKey = keyPrefix + ":repartition:last"
	LastSummaryTTL = 24 * time.Hour
)

// SummaryCache stores the summary of the latest repartition run
type SummaryCache interface {
	SetLastSummary(ctx context.Context, summary *models.RepartitionSummary) error
	GetLastSummary(ctx context.Context) (*models.RepartitionSummary, error)
	Ping(ctx context.Context) error
}

type redisSummaryCache struct {
	client redis.UniversalClient
}

// NewRedisClient builds a client from a host:port address or a redis:// / rediss:// URL
func NewRedisClient(addr, password string, db int, logger *slog.Logger) (*redis.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts, err := redisOptions(addr, password, db)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("redis ping failed on initialization", "addr", opts.Addr, "tls", opts.TLSConfig != nil, "error", err)
	} else {
		logger.Debug("redis connection established", "addr", opts.Addr)
	}
	return client, nil
}

// redisOptions keeps the URL's TLS, password and database; password and db
// fill in only what the URL leaves unset.
func redisOptions(addr, password string, db int) (*redis.Options, error) {
	if !strings.HasPrefix(addr, "redis://") && !strings.HasPrefix(addr, "rediss://") {
		return &redis.Options{Addr: addr, Password: password, DB: db}, nil
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if opts.Password == "" {
		opts.Password = password
	}
	if opts.DB == 0 {
		opts.DB = db
	}
	return opts, nil
}

func NewSummaryCache(client redis.UniversalClient) SummaryCache {
	return &redisSummaryCache{client: client}
}

func (r *redisSummaryCache) SetLastSummary(ctx context.Context, summary *models.RepartitionSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return r.client.Set(ctx, LastSummaryKey, data, LastSummaryTTL).Err()
}

// GetLastSummary returns nil, nil on a cache miss
func (r *redisSummaryCache) GetLastSummary(ctx context.Context) (*models.RepartitionSummary, error) {
	data, err := r.client.Get(ctx, LastSummaryKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var summary models.RepartitionSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	return &summary, nil
}

func (r *redisSummaryCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// LocationLockKey is the redis key guarding runs against one location
func LocationLockKey(locationID uuid.UUID) string {
	return fmt.Sprintf("%s:lock:location:%s", keyPrefix, locationID.String())
}
