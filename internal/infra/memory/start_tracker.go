package memory

import (
	"context"
	"sync"
	"time"
)

// StartTracker is an in-memory implementation of app.StartTracker.
type StartTracker struct {
	clock func() time.Time

	mu      sync.Mutex
	started map[startKey]startEntry
}

type startKey struct {
	testID string
	userID string
}

type startEntry struct {
	at        time.Time
	expiresAt time.Time
}

func NewStartTracker() *StartTracker {
	return &StartTracker{
		clock:   time.Now,
		started: make(map[startKey]startEntry),
	}
}

func (t *StartTracker) MarkStarted(_ context.Context, testID, userID string, at time.Time, ttl time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started[startKey{testID, userID}] = startEntry{at: at, expiresAt: t.clock().Add(ttl)}
	return nil
}

func (t *StartTracker) StartedAt(_ context.Context, testID, userID string) (time.Time, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := startKey{testID, userID}
	entry, ok := t.started[key]
	if !ok {
		return time.Time{}, false, nil
	}
	if !entry.expiresAt.After(t.clock()) {
		delete(t.started, key)
		return time.Time{}, false, nil
	}
	return entry.at, true, nil
}

func (t *StartTracker) Clear(_ context.Context, testID, userID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.started, startKey{testID, userID})
	return nil
}
