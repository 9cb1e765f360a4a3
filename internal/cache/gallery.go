package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"headshotlab/internal/domain"
)

// GalleryPage is the cached payload for one public gallery page.
type GalleryPage struct {
	Items      []domain.GalleryItem `json:"items"`
	Pagination domain.Pagination    `json:"pagination"`
}

// GalleryCache keeps recently served gallery pages in Redis for a short TTL.
// A nil *GalleryCache is a valid no-op cache, so the handler does not branch
// on whether Redis is configured.
type GalleryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGalleryCache connects to Redis at addr. An empty addr yields a nil cache.
func NewGalleryCache(ctx context.Context, addr string, ttl time.Duration) (*GalleryCache, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: ping redis: %w", err)
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &GalleryCache{client: client, ttl: ttl}, nil
}

// Get returns the cached page for the query, or nil on miss.
func (c *GalleryCache) Get(ctx context.Context, q domain.GalleryQuery) (*GalleryPage, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, pageKey(q)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get page: %w", err)
	}
	var page GalleryPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("cache: decode page: %w", err)
	}
	return &page, nil
}

// Set stores the page under the query key for the configured TTL.
func (c *GalleryCache) Set(ctx context.Context, q domain.GalleryQuery, page *GalleryPage) error {
	if c == nil || c.client == nil || page == nil {
		return nil
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("cache: encode page: %w", err)
	}
	if err := c.client.Set(ctx, pageKey(q), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: set page: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *GalleryCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func pageKey(q domain.GalleryQuery) string {
	style := q.Style
	if style == "" {
		style = "-"
	}
	return fmt.Sprintf("gallery:%s:%s:%d:%d", q.Sort, style, q.Page, q.Limit)
}
