package dataset

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/chainsight/measures/pkg/observability"
)

const cacheKeyPrefix = "measures:dataset:"

// CachedClient decorates a Client with a Redis record cache. Cache failures
// are logged and fall through to the inner client; the cache never turns a
// fetchable dataset into an error.
type CachedClient struct {
	inner  Client
	client *redis.Client
	ttl    time.Duration
	log    logrus.FieldLogger
}

// NewCachedClient wraps inner with a Redis cache
func NewCachedClient(inner Client, redisClient *redis.Client, ttl time.Duration, log logrus.FieldLogger) *CachedClient {
	return &CachedClient{
		inner:  inner,
		client: redisClient,
		ttl:    ttl,
		log:    log.WithField("component", "dataset-cache"),
	}
}

// FetchRecords implements Client
func (c *CachedClient) FetchRecords(ctx context.Context, query Query) ([]Record, error) {
	key := cacheKeyPrefix + query.Fingerprint()

	cached, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var records []Record
		if unmarshalErr := json.Unmarshal(cached, &records); unmarshalErr == nil {
			observability.CacheRequestsTotal.WithLabelValues("hit").Inc()
			return records, nil
		}
		c.log.WithField("key", key).Warn("Discarding undecodable cache entry")
		observability.CacheRequestsTotal.WithLabelValues("error").Inc()
	case err == redis.Nil:
		observability.CacheRequestsTotal.WithLabelValues("miss").Inc()
	default:
		c.log.WithError(err).Warn("Cache fetch failed, falling through to source")
		observability.CacheRequestsTotal.WithLabelValues("error").Inc()
	}

	records, err := c.inner.FetchRecords(ctx, query)
	if err != nil {
		return nil, err
	}

	if payload, marshalErr := json.Marshal(records); marshalErr == nil {
		if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.log.WithError(setErr).Warn("Failed to store records in cache")
		}
	}

	return records, nil
}

var _ Client = (*CachedClient)(nil)
