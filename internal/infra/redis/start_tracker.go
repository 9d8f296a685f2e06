package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// StartTracker keeps per-user test start times in Redis so that any
// instance can resolve them at submit time.
type StartTracker struct {
	client *redis.Client
}

func NewStartTracker(client *redis.Client) *StartTracker {
	return &StartTracker{client: client}
}

func (t *StartTracker) MarkStarted(ctx context.Context, testID, userID string, at time.Time, ttl time.Duration) error {
	return t.client.Set(ctx, startKey(testID, userID), at.UTC().Format(time.RFC3339Nano), ttl).Err()
}

func (t *StartTracker) StartedAt(ctx context.Context, testID, userID string) (time.Time, bool, error) {
	raw, err := t.client.Get(ctx, startKey(testID, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}

func (t *StartTracker) Clear(ctx context.Context, testID, userID string) error {
	return t.client.Del(ctx, startKey(testID, userID)).Err()
}

func startKey(testID, userID string) string {
	return "test:" + testID + ":started:" + userID
}
