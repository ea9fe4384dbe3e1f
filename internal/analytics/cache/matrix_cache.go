// Package cache holds computed matrix snapshots in Redis so repeated
// dashboard reads for the same pharmacy and window skip the database.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pharmalink/pharmalink-backend/internal/analytics/domain"
	"github.com/pharmalink/pharmalink-backend/pkg/config"
	"github.com/pharmalink/pharmalink-backend/pkg/logger"
)

const keyPrefix = "analytics:matrix:"

// MatrixCache stores classification snapshots keyed by pharmacy and window.
// Entries expire on their own; sale and disposal events invalidate a
// pharmacy's entries early so stale matrices never outlive the TTL.
type MatrixCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewMatrixCache creates a matrix cache backed by Redis.
func NewMatrixCache(cfg *config.RedisConfig, ttl time.Duration, log *logger.Logger) *MatrixCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &MatrixCache{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

// NewMatrixCacheWithClient wraps an existing client. Used by tests.
func NewMatrixCacheWithClient(client *redis.Client, ttl time.Duration, log *logger.Logger) *MatrixCache {
	return &MatrixCache{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

func snapshotKey(pharmacyID string, window domain.Window) string {
	return fmt.Sprintf("%s%s:%s:%s",
		keyPrefix, pharmacyID,
		window.From.UTC().Format("2006-01-02"),
		window.To.UTC().Format("2006-01-02"))
}

// Get returns the cached snapshot for the pharmacy and window, or nil on a
// miss. A broken cache never fails a read: errors are logged and reported
// as misses so the caller recomputes.
func (c *MatrixCache) Get(ctx context.Context, pharmacyID string, window domain.Window) (*domain.MatrixSnapshot, error) {
	val, err := c.client.Get(ctx, snapshotKey(pharmacyID, window)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("pharmacy_id", pharmacyID).Msg("matrix cache read failed")
		return nil, nil
	}

	var snapshot domain.MatrixSnapshot
	if err := json.Unmarshal(val, &snapshot); err != nil {
		c.logger.Warn().Err(err).Str("pharmacy_id", pharmacyID).Msg("matrix cache entry corrupt, dropping")
		c.client.Del(ctx, snapshotKey(pharmacyID, window))
		return nil, nil
	}

	return &snapshot, nil
}

// Set stores a computed snapshot with the configured TTL.
func (c *MatrixCache) Set(ctx context.Context, snapshot *domain.MatrixSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal matrix snapshot: %w", err)
	}

	key := snapshotKey(snapshot.PharmacyID, snapshot.Window)
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache matrix snapshot: %w", err)
	}
	return nil
}

// InvalidatePharmacy drops every cached window for one pharmacy. Called
// when a sale or disposal event lands, since any cached matrix may now
// undercount consumption.
func (c *MatrixCache) InvalidatePharmacy(ctx context.Context, pharmacyID string) error {
	pattern := keyPrefix + pharmacyID + ":*"

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan matrix cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate matrix cache: %w", err)
	}

	c.logger.Debug().
		Str("pharmacy_id", pharmacyID).
		Int("entries", len(keys)).
		Msg("matrix cache invalidated")
	return nil
}

// Health reports cache connectivity for the health endpoint.
func (c *MatrixCache) Health(ctx context.Context) map[string]string {
	stats := map[string]string{"status": "healthy"}
	if err := c.client.Ping(ctx).Err(); err != nil {
		stats["status"] = "unhealthy"
		stats["error"] = err.Error()
	}
	return stats
}

// Close releases the underlying client.
func (c *MatrixCache) Close() error {
	return c.client.Close()
}
