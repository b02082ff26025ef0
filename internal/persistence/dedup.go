package persistence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// AlertDeduper remembers which alerts were already emitted for a while.
type AlertDeduper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewAlertDeduper builds a deduper whose marks expire after ttl.
func NewAlertDeduper(client *redis.Client, prefix string, ttl time.Duration) *AlertDeduper {
	return &AlertDeduper{client: client, prefix: prefix, ttl: ttl}
}

// MarkIfNew records key and reports true if it was not already recorded.
func (d *AlertDeduper) MarkIfNew(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.prefix+key, time.Now().UTC().Format(time.RFC3339), d.ttl).Result()
	if err != nil {
		return false, eris.Wrapf(err, "dedup: mark %s", key)
	}
	return ok, nil
}
