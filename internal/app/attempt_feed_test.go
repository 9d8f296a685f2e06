package app_test

import (
	"testing"

	"quiz-testing-service/internal/app"
	"quiz-testing-service/internal/domain"
)

func TestFeedDeliversPerTest(t *testing.T) {
	feed := app.NewAttemptFeed()
	ch1, cancel1 := feed.Subscribe("test-1")
	defer cancel1()
	ch2, cancel2 := feed.Subscribe("test-2")
	defer cancel2()

	feed.Publish(domain.AttemptSummary{AttemptID: "a1", TestID: "test-1"})

	if got := <-ch1; got.AttemptID != "a1" {
		t.Fatalf("expected a1, got %+v", got)
	}
	select {
	case got := <-ch2:
		t.Fatalf("test-2 subscriber received %+v", got)
	default:
	}
}

func TestFeedDropsOldestForSlowSubscriber(t *testing.T) {
	feed := app.NewAttemptFeed()
	ch, cancel := feed.Subscribe("test-1")
	defer cancel()

	for i := 0; i < 20; i++ {
		feed.Publish(domain.AttemptSummary{TestID: "test-1", Score: i})
	}

	var last domain.AttemptSummary
	count := 0
	for len(ch) > 0 {
		last = <-ch
		count++
	}
	if count == 0 || count > 20 {
		t.Fatalf("unexpected buffered count %d", count)
	}
	if last.Score != 19 {
		t.Fatalf("expected newest update kept, got %d", last.Score)
	}
}

func TestFeedCancelClosesChannel(t *testing.T) {
	feed := app.NewAttemptFeed()
	ch, cancel := feed.Subscribe("test-1")
	if feed.SubscriberCount("test-1") != 1 {
		t.Fatalf("expected one subscriber")
	}

	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	if feed.SubscriberCount("test-1") != 0 {
		t.Fatalf("expected subscriber removed")
	}
	feed.Publish(domain.AttemptSummary{TestID: "test-1"})
}
