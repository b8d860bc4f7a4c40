package counter

import (
	"context"
	"strconv"

	"github.com/crafthaven/crafthaven/internal/pkg/cache"
)

const (
	sentKey   = "push:counters:sent"
	goneKey   = "push:counters:gone"
	failedKey = "push:counters:failed"
)

// AddSent increments the pending sent counter for a notification type in Redis
func AddSent(notificationType string) error {
	return cache.GetClient().HIncrBy(context.Background(), sentKey, notificationType, 1).Err()
}

// AddGone increments the gone-endpoint counter for a notification type in Redis
func AddGone(notificationType string) error {
	return cache.GetClient().HIncrBy(context.Background(), goneKey, notificationType, 1).Err()
}

// AddFailed increments the failed-delivery counter for a notification type in Redis
func AddFailed(notificationType string) error {
	return cache.GetClient().HIncrBy(context.Background(), failedKey, notificationType, 1).Err()
}

// Snapshot reads all delivery counters grouped by outcome. Counters are
// cumulative since the cache was last flushed; they are operational signals,
// not an audit source.
func Snapshot() (map[string]map[string]int64, error) {
	ctx := context.Background()
	rdb := cache.GetClient()

	out := map[string]map[string]int64{}
	for name, key := range map[string]string{
		"sent":   sentKey,
		"gone":   goneKey,
		"failed": failedKey,
	} {
		data, err := rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		byType := make(map[string]int64, len(data))
		for field, raw := range data {
			n, perr := strconv.ParseInt(raw, 10, 64)
			if perr != nil {
				continue
			}
			byType[field] = n
		}
		out[name] = byType
	}
	return out, nil
}
