// Package dedup short-circuits duplicate webhook deliveries with a Redis
// first-delivery marker. Reconciliation is idempotent on its own; this only
// saves the repeated work, so the cache fails open.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Key layout: dedup:payment:{event_id}
const keyFormat = "dedup:payment:%s"

var ttl = 48 * time.Hour

// NewRedisClient connects a client for the dedup cache.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// Deduper marks webhook events as seen. A nil Deduper is valid and treats
// every delivery as the first.
type Deduper struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Deduper {
	return &Deduper{rdb: rdb}
}

// FirstDelivery atomically marks the event as seen and reports whether this
// delivery was the first. Cache errors count as first delivery.
func (d *Deduper) FirstDelivery(ctx context.Context, eventID string) bool {
	if d == nil || d.rdb == nil {
		return true
	}

	ok, err := d.rdb.SetNX(ctx, fmt.Sprintf(keyFormat, eventID), 1, ttl).Result()
	if err != nil {
		log.Warn().Err(err).Str("event_id", eventID).Msg("dedup: cache unavailable, treating delivery as first")
		return true
	}
	return ok
}
