package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phuslu/log"
	"github.com/redis/go-redis/v9"

	"SilverReport/internal/model"
)

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connect opens a Redis client and verifies it with a ping.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
		PoolTimeout:  4 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis at %s: %w", opts.Addr, err)
	}

	log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("redis connected")
	return client, nil
}

// ReportCache mirrors the latest report pair into Redis so a restarted
// service can serve it before its first cycle completes.
type ReportCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewReportCache creates a cache storing the pair under key. A zero ttl never expires.
func NewReportCache(client *redis.Client, key string, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, key: key, ttl: ttl}
}

// SaveLatest stores pair as JSON.
func (c *ReportCache) SaveLatest(ctx context.Context, pair *model.ReportPair) error {
	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

// LoadLatest returns the mirrored pair, or nil on a cache miss.
func (c *ReportCache) LoadLatest(ctx context.Context) (*model.ReportPair, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	var pair model.ReportPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %w", err)
	}
	if pair.MarketData == nil {
		pair.MarketData = model.MarketSnapshot{}
	}
	if pair.NewsData == nil {
		pair.NewsData = []model.NewsItem{}
	}
	return &pair, nil
}

// Close closes the underlying client.
func (c *ReportCache) Close() error {
	return c.client.Close()
}
