package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-testing-service/internal/app"
	"quiz-testing-service/internal/domain"
)

func TestSubmitScoresAgainstFullQuestionSet(t *testing.T) {
	ctx := context.Background()
	store, _ := fixture(t, 2, 1, 4)
	service := app.NewSubmissionService(store, store, store)

	attempt, err := service.Submit(ctx, app.SubmitRequest{
		TestID:    "test-1",
		UserID:    "alice",
		Answers:   answers("q1", 2, "q2", 3, "q3", 4),
		StartTime: t0,
		EndTime:   t0.Add(5 * time.Minute),
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if attempt.Score != 2 || attempt.TotalQuestions != 3 {
		t.Fatalf("expected 2/3, got %d/%d", attempt.Score, attempt.TotalQuestions)
	}
	if len(attempt.Answers) != 3 {
		t.Fatalf("expected 3 answers, got %d", len(attempt.Answers))
	}
	for i, a := range attempt.Answers {
		if a.AttemptID != attempt.ID || a.ID == "" {
			t.Fatalf("answer %d not linked to attempt: %+v", i, a)
		}
	}

	stored, err := store.GetAttempt(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if stored.Score != 2 || len(stored.Answers) != 3 || stored.Answers[1].SelectedOption != 3 {
		t.Fatalf("unexpected stored attempt %+v", stored)
	}
}

func TestSubmitPartialAnswers(t *testing.T) {
	store, _ := fixture(t, 3, 2)
	service := app.NewSubmissionService(store, store, store)

	attempt, err := service.Submit(context.Background(), app.SubmitRequest{
		TestID:    "test-1",
		UserID:    "alice",
		Answers:   answers("q1", 3),
		StartTime: t0,
		EndTime:   t0,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if attempt.Score != 1 || attempt.TotalQuestions != 2 {
		t.Fatalf("expected 1/2, got %d/%d", attempt.Score, attempt.TotalQuestions)
	}
	if len(attempt.Answers) != 1 {
		t.Fatalf("unsupplied questions must not produce answers, got %d", len(attempt.Answers))
	}
}

func TestSubmitRecordsUnansweredSentinel(t *testing.T) {
	store, _ := fixture(t, 1, 1)
	service := app.NewSubmissionService(store, store, store)

	attempt, err := service.Submit(context.Background(), app.SubmitRequest{
		TestID:    "test-1",
		UserID:    "alice",
		Answers:   answers("q1", domain.Unanswered, "q2", 1),
		StartTime: t0,
		EndTime:   t0.Add(time.Second),
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if attempt.Score != 1 {
		t.Fatalf("expected score 1, got %d", attempt.Score)
	}
	if len(attempt.Answers) != 2 || attempt.Answers[0].SelectedOption != domain.Unanswered {
		t.Fatalf("expected unanswered record kept, got %+v", attempt.Answers)
	}
}

func TestSubmitScoreBounds(t *testing.T) {
	store, test := fixture(t, 1, 2, 3, 4)
	service := app.NewSubmissionService(store, store, store)

	cases := []struct {
		name    string
		answers []domain.AnswerSubmission
		score   int
	}{
		{"none", nil, 0},
		{"all correct", answers("q1", 1, "q2", 2, "q3", 3, "q4", 4), 4},
		{"all wrong", answers("q1", 4, "q2", 3, "q3", 2, "q4", 1), 0},
		{"mixed subset", answers("q4", 4, "q2", 1), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			attempt, err := service.Submit(context.Background(), app.SubmitRequest{
				TestID:    test.ID,
				UserID:    "bob",
				Answers:   tc.answers,
				StartTime: t0,
				EndTime:   t0.Add(time.Minute),
			})
			if err != nil {
				t.Fatalf("submit failed: %v", err)
			}
			if attempt.TotalQuestions != len(test.Questions) {
				t.Fatalf("expected total %d, got %d", len(test.Questions), attempt.TotalQuestions)
			}
			if attempt.Score != tc.score || attempt.Score < 0 || attempt.Score > attempt.TotalQuestions {
				t.Fatalf("expected score %d, got %d", tc.score, attempt.Score)
			}
		})
	}
}

func TestSubmitTwiceCreatesDistinctAttempts(t *testing.T) {
	store, _ := fixture(t, 2, 1)
	service := app.NewSubmissionService(store, store, store)
	req := app.SubmitRequest{
		TestID:    "test-1",
		UserID:    "alice",
		Answers:   answers("q1", 2, "q2", 2),
		StartTime: t0,
		EndTime:   t0.Add(time.Minute),
	}

	first, err := service.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := service.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("expected distinct attempt ids")
	}
	if first.Score != second.Score {
		t.Fatalf("expected identical scores, got %d and %d", first.Score, second.Score)
	}
	stored, _ := store.ListAttemptsByUser(context.Background(), "alice")
	if len(stored) != 2 {
		t.Fatalf("expected 2 stored attempts, got %d", len(stored))
	}
}

func TestSubmitValidation(t *testing.T) {
	cases := []struct {
		name   string
		req    app.SubmitRequest
		target error
		kind   domain.Kind
	}{
		{
			name:   "unknown test",
			req:    app.SubmitRequest{TestID: "missing", UserID: "alice", StartTime: t0, EndTime: t0},
			target: domain.ErrTestNotFound,
			kind:   domain.KindNotFound,
		},
		{
			name:   "unknown user",
			req:    app.SubmitRequest{TestID: "test-1", UserID: "mallory", StartTime: t0, EndTime: t0},
			target: domain.ErrUserNotFound,
			kind:   domain.KindNotFound,
		},
		{
			name:   "orphan question",
			req:    app.SubmitRequest{TestID: "test-1", UserID: "alice", Answers: answers("q1", 2, "q9", 1), StartTime: t0, EndTime: t0},
			target: domain.ErrQuestionNotInTest,
			kind:   domain.KindInvalidArgument,
		},
		{
			name:   "duplicate question",
			req:    app.SubmitRequest{TestID: "test-1", UserID: "alice", Answers: answers("q1", 2, "q1", 3), StartTime: t0, EndTime: t0},
			target: domain.ErrDuplicateAnswer,
			kind:   domain.KindInvalidArgument,
		},
		{
			name:   "option out of range",
			req:    app.SubmitRequest{TestID: "test-1", UserID: "alice", Answers: answers("q1", 5), StartTime: t0, EndTime: t0},
			target: domain.ErrInvalidOption,
			kind:   domain.KindInvalidArgument,
		},
		{
			name:   "negative option",
			req:    app.SubmitRequest{TestID: "test-1", UserID: "alice", Answers: answers("q1", -1), StartTime: t0, EndTime: t0},
			target: domain.ErrInvalidOption,
			kind:   domain.KindInvalidArgument,
		},
		{
			name:   "end before start",
			req:    app.SubmitRequest{TestID: "test-1", UserID: "alice", Answers: answers("q1", 2), StartTime: t0, EndTime: t0.Add(-time.Second)},
			target: domain.ErrInvalidTimeWindow,
			kind:   domain.KindInvalidArgument,
		},
		{
			name:   "orphan wins over duplicate",
			req:    app.SubmitRequest{TestID: "test-1", UserID: "alice", Answers: answers("q1", 2, "q1", 2, "q9", 1), StartTime: t0, EndTime: t0},
			target: domain.ErrQuestionNotInTest,
			kind:   domain.KindInvalidArgument,
		},
		{
			name:   "duplicate wins over time window",
			req:    app.SubmitRequest{TestID: "test-1", UserID: "alice", Answers: answers("q2", 1, "q2", 1), StartTime: t0, EndTime: t0.Add(-time.Hour)},
			target: domain.ErrDuplicateAnswer,
			kind:   domain.KindInvalidArgument,
		},
		{
			name:   "unknown user wins over bad answers",
			req:    app.SubmitRequest{TestID: "test-1", UserID: "mallory", Answers: answers("q9", 7), StartTime: t0, EndTime: t0.Add(-time.Hour)},
			target: domain.ErrUserNotFound,
			kind:   domain.KindNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			store, _ := fixture(t, 2, 1)
			service := app.NewSubmissionService(store, store, store)

			_, err := service.Submit(ctx, tc.req)
			if !errors.Is(err, tc.target) {
				t.Fatalf("expected %v, got %v", tc.target, err)
			}
			if kind := domain.KindOf(err); kind != tc.kind {
				t.Fatalf("expected kind %v, got %v", tc.kind, kind)
			}

			for _, user := range []string{"alice", "bob", "mallory"} {
				stored, _ := store.ListAttemptsByUser(ctx, user)
				if len(stored) != 0 {
					t.Fatalf("rejected submission persisted %d attempts for %s", len(stored), user)
				}
			}
		})
	}
}

func TestSubmitTestWithoutQuestions(t *testing.T) {
	store, _ := fixture(t)
	service := app.NewSubmissionService(store, store, store)

	_, err := service.Submit(context.Background(), app.SubmitRequest{
		TestID:    "test-1",
		UserID:    "mallory",
		StartTime: t0,
		EndTime:   t0,
	})
	if !errors.Is(err, domain.ErrTestHasNoQuestions) {
		t.Fatalf("expected no-questions error before user lookup, got %v", err)
	}
	if domain.KindOf(err) != domain.KindInvalidState {
		t.Fatalf("expected invalid state, got %v", domain.KindOf(err))
	}
}

func TestSubmitConcurrentUsers(t *testing.T) {
	store, _ := fixture(t, 1, 2, 3)
	service := app.NewSubmissionService(store, store, store)

	submissions := map[string][]domain.AnswerSubmission{
		"alice": answers("q1", 1, "q2", 2, "q3", 3),
		"bob":   answers("q1", 4, "q2", 2),
	}
	want := map[string]int{"alice": 3, "bob": 1}

	var wg sync.WaitGroup
	results := make(map[string]domain.TestAttempt)
	var mu sync.Mutex
	errs := make(chan error, 2*20)
	for i := 0; i < 20; i++ {
		for user, ans := range submissions {
			wg.Add(1)
			go func(user string, ans []domain.AnswerSubmission) {
				defer wg.Done()
				attempt, err := service.Submit(context.Background(), app.SubmitRequest{
					TestID:    "test-1",
					UserID:    user,
					Answers:   ans,
					StartTime: t0,
					EndTime:   t0.Add(time.Minute),
				})
				if err != nil {
					errs <- err
					return
				}
				mu.Lock()
				results[attempt.ID] = attempt
				mu.Unlock()
			}(user, ans)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent submit failed: %v", err)
	}

	if len(results) != 40 {
		t.Fatalf("expected 40 distinct attempts, got %d", len(results))
	}
	for _, attempt := range results {
		if attempt.Score != want[attempt.UserID] {
			t.Fatalf("user %s scored %d, want %d", attempt.UserID, attempt.Score, want[attempt.UserID])
		}
	}
	for user, score := range want {
		stored, _ := store.ListAttemptsByUser(context.Background(), user)
		if len(stored) != 20 {
			t.Fatalf("expected 20 attempts for %s, got %d", user, len(stored))
		}
		for _, a := range stored {
			if a.Score != score {
				t.Fatalf("stored attempt for %s scored %d, want %d", user, a.Score, score)
			}
		}
	}
}

func TestSubmitSurfacesStoreFailureAsTransient(t *testing.T) {
	store, _ := fixture(t, 1)
	service := app.NewSubmissionService(store, store, failingStore{err: errors.New("connection reset")})

	_, err := service.Submit(context.Background(), app.SubmitRequest{
		TestID:    "test-1",
		UserID:    "alice",
		Answers:   answers("q1", 1),
		StartTime: t0,
		EndTime:   t0,
	})
	if domain.KindOf(err) != domain.KindTransient {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestSubmitCancelledContextPersistsNothing(t *testing.T) {
	store, _ := fixture(t, 1)
	service := app.NewSubmissionService(store, store, store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.Submit(ctx, app.SubmitRequest{
		TestID:    "test-1",
		UserID:    "alice",
		Answers:   answers("q1", 1),
		StartTime: t0,
		EndTime:   t0,
	})
	if domain.KindOf(err) != domain.KindTransient {
		t.Fatalf("expected transient error, got %v", err)
	}
	stored, _ := store.ListAttemptsByUser(context.Background(), "alice")
	if len(stored) != 0 {
		t.Fatalf("cancelled submit persisted %d attempts", len(stored))
	}
}

func TestSubmitPublishesToFeed(t *testing.T) {
	store, _ := fixture(t, 1)
	feed := app.NewAttemptFeed()
	service := app.NewSubmissionService(store, store, store).WithFeed(feed)

	ch, cancel := feed.Subscribe("test-1")
	defer cancel()

	attempt, err := service.Submit(context.Background(), app.SubmitRequest{
		TestID:    "test-1",
		UserID:    "bob",
		Answers:   answers("q1", 1),
		StartTime: t0,
		EndTime:   t0.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	select {
	case summary := <-ch:
		if summary.AttemptID != attempt.ID || summary.Score != 1 || summary.UserID != "bob" {
			t.Fatalf("unexpected summary %+v", summary)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected feed update")
	}
}

type failingStore struct {
	err error
}

func (s failingStore) SaveAtomic(context.Context, domain.TestAttempt) (domain.TestAttempt, error) {
	return domain.TestAttempt{}, s.err
}
