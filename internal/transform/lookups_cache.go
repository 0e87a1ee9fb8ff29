package transform

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// cacheTTL bounds staleness of cached reference data. The lookup tables
// change on administrative timescales, not per request.
const cacheTTL = time.Hour

const cacheMissMarker = "\x00miss"

// CachedLookups is a read-through redis cache in front of another facade.
// Cache failures fall back to the underlying lookup; the cache is an
// optimization, never a source of truth.
type CachedLookups struct {
	next  LookupFacade
	redis *redis.Client
}

func NewCachedLookups(next LookupFacade, client *redis.Client) *CachedLookups {
	return &CachedLookups{next: next, redis: client}
}

func (c *CachedLookups) ValidOutcode(ctx context.Context, outcode string) (bool, error) {
	_, err := c.BSOCodeByOutcode(ctx, outcode)
	if errors.Is(err, ErrLookupMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *CachedLookups) BSOCodeByOutcode(ctx context.Context, outcode string) (string, error) {
	return c.through(ctx, "cohortd:lkp:outcode:"+outcode, func() (string, error) {
		return c.next.BSOCodeByOutcode(ctx, outcode)
	})
}

func (c *CachedLookups) BSOCodeByProvider(ctx context.Context, gpPracticeCode string) (string, error) {
	return c.through(ctx, "cohortd:lkp:gp:"+gpPracticeCode, func() (string, error) {
		return c.next.BSOCodeByProvider(ctx, gpPracticeCode)
	})
}

func (c *CachedLookups) through(ctx context.Context, key string, fetch func() (string, error)) (string, error) {
	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		if cached == cacheMissMarker {
			return "", ErrLookupMiss
		}
		return cached, nil
	}

	value, err := fetch()
	if errors.Is(err, ErrLookupMiss) {
		// Negative entries keep repeated unknown keys off the database.
		c.redis.Set(ctx, key, cacheMissMarker, cacheTTL)
		return "", ErrLookupMiss
	}
	if err != nil {
		return "", err
	}

	c.redis.Set(ctx, key, value, cacheTTL)
	return value, nil
}
