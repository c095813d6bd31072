package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ukydev/farm-maintenance/internal/models"
)

// ErrMiss is returned when no cached assessment exists.
var ErrMiss = errors.New("cache miss")

const keyPrefix = "farm:health:"

// Connect initializes a Redis client from URL or host:port input and pings it.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// AssessmentCache stores computed health assessments per machine.
type AssessmentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAssessmentCache creates a cache whose entries expire after ttl.
func NewAssessmentCache(client *redis.Client, ttl time.Duration) *AssessmentCache {
	return &AssessmentCache{client: client, ttl: ttl}
}

// Get returns the cached assessment for a machine or ErrMiss.
func (c *AssessmentCache) Get(ctx context.Context, machineID string) (*models.HealthAssessment, error) {
	data, err := c.client.Get(ctx, keyPrefix+machineID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}

	var a models.HealthAssessment
	if err := json.Unmarshal(data, &a); err != nil {
		// Drop entries written by an incompatible version.
		_ = c.client.Del(ctx, keyPrefix+machineID).Err()
		return nil, ErrMiss
	}
	return &a, nil
}

// Set stores an assessment under its machine ID.
func (c *AssessmentCache) Set(ctx context.Context, a models.HealthAssessment) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode assessment: %w", err)
	}
	return c.client.Set(ctx, keyPrefix+a.MachineID, data, c.ttl).Err()
}

// Invalidate removes the cached assessment for a machine.
func (c *AssessmentCache) Invalidate(ctx context.Context, machineID string) error {
	return c.client.Del(ctx, keyPrefix+machineID).Err()
}

// InvalidateAll removes every cached assessment, e.g. after a catalog reload.
func (c *AssessmentCache) InvalidateAll(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
