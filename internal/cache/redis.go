// Package cache holds the Redis-backed patient cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"healthcare-risk-platform/internal/models"
)

const patientKeyPrefix = "patient:"

// NewRedisClient connects to the Redis server named by url
// (redis://[:password@]host:port/db) and checks it answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// PatientCache stores patients as JSON under patient:<id>.
type PatientCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPatientCache returns a cache whose entries expire after ttl.
// A zero ttl keeps entries until they are invalidated.
func NewPatientCache(client *redis.Client, ttl time.Duration) *PatientCache {
	return &PatientCache{client: client, ttl: ttl}
}

func patientKey(id string) string {
	return patientKeyPrefix + id
}

// Get returns the cached patient. ok is false on a miss.
func (c *PatientCache) Get(ctx context.Context, id string) (*models.Patient, bool, error) {
	raw, err := c.client.Get(ctx, patientKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var p models.Patient
	if err := json.Unmarshal(raw, &p); err != nil {
		// A corrupt entry counts as a miss and is dropped.
		_ = c.client.Del(ctx, patientKey(id)).Err()
		return nil, false, nil
	}
	return &p, true, nil
}

// Set stores p, replacing any cached copy.
func (c *PatientCache) Set(ctx context.Context, p *models.Patient) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode patient: %w", err)
	}
	return c.client.Set(ctx, patientKey(p.ID), raw, c.ttl).Err()
}

// Invalidate removes the cached copy of a patient, if any.
func (c *PatientCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, patientKey(id)).Err()
}

// Ping checks the Redis server answers.
func (c *PatientCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
