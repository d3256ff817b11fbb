package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

const keyPrefix = "docuscan:classification:"

type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Cache stores classification results as JSON strings with a TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(options Options) *Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     options.Addr,
		Password: options.Password,
		DB:       options.DB,
	})
	return NewWithClient(client, options.TTL)
}

func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return domain.WrapError(domain.ErrTemporary, "redis ping", err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) Get(ctx context.Context, key string) (domain.ClassificationResult, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ClassificationResult{}, false, nil
	}
	if err != nil {
		return domain.ClassificationResult{}, false, domain.WrapError(domain.ErrTemporary, "redis get", err)
	}
	var result domain.ClassificationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return domain.ClassificationResult{}, false, fmt.Errorf("decode cached classification: %w", err)
	}
	return result, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, result domain.ClassificationResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode classification: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, raw, c.ttl).Err(); err != nil {
		return domain.WrapError(domain.ErrTemporary, "redis set", err)
	}
	return nil
}
