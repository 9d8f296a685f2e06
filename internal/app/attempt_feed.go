package app

import (
	"sync"

	"quiz-testing-service/internal/domain"
)

const feedBuffer = 8

// AttemptFeed fans submitted attempt summaries out to per-test subscribers.
// Slow subscribers lose their oldest pending update instead of blocking
// the submitter.
type AttemptFeed struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.AttemptSummary]struct{}
}

func NewAttemptFeed() *AttemptFeed {
	return &AttemptFeed{
		subscribers: make(map[string]map[chan domain.AttemptSummary]struct{}),
	}
}

// Subscribe returns a channel of summaries for testID. The caller must invoke
// the returned cancel function to avoid leaks.
func (f *AttemptFeed) Subscribe(testID string) (<-chan domain.AttemptSummary, func()) {
	ch := make(chan domain.AttemptSummary, feedBuffer)

	f.mu.Lock()
	subs, ok := f.subscribers[testID]
	if !ok {
		subs = make(map[chan domain.AttemptSummary]struct{})
		f.subscribers[testID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		subs, ok := f.subscribers[testID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(f.subscribers, testID)
		}
	}
	return ch, cancel
}

// Publish never blocks.
func (f *AttemptFeed) Publish(summary domain.AttemptSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subscribers[summary.TestID] {
		select {
		case ch <- summary:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- summary
		}
	}
}

// SubscriberCount reports how many listeners testID has.
func (f *AttemptFeed) SubscriberCount(testID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers[testID])
}
