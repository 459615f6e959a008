package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// Client wraps Redis operations for route health persistence.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Key helpers
func routeKey(id domain.RouteID) string {
	return fmt.Sprintf("routes:%s", id.String())
}

const routeIndexKey = "routes:index"

// SaveSnapshot persists the full route report, one JSON value per route plus
// a set of known route ids for reload.
func (c *Client) SaveSnapshot(ctx context.Context, reports []domain.RouteReport) error {
	pipe := c.rdb.TxPipeline()
	for _, rep := range reports {
		data, err := json.Marshal(rep)
		if err != nil {
			return fmt.Errorf("marshal route %s: %w", rep.Route, err)
		}
		pipe.Set(ctx, routeKey(rep.Route), data, 0)
		pipe.SAdd(ctx, routeIndexKey, rep.Route.String())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads every persisted route report. Entries that fail to parse
// are skipped; a stale or truncated record is not worth failing startup over.
func (c *Client) LoadSnapshot(ctx context.Context) ([]domain.RouteReport, error) {
	ids, err := c.rdb.SMembers(ctx, routeIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("load route index: %w", err)
	}

	reports := make([]domain.RouteReport, 0, len(ids))
	for _, raw := range ids {
		id, err := domain.ParseRouteID(raw)
		if err != nil {
			continue
		}
		data, err := c.rdb.Get(ctx, routeKey(id)).Bytes()
		if err != nil {
			continue
		}
		var rep domain.RouteReport
		if err := json.Unmarshal(data, &rep); err != nil {
			continue
		}
		reports = append(reports, rep)
	}
	return reports, nil
}
