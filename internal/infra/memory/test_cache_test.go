package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"quiz-testing-service/internal/domain"
)

func TestTestCacheCaches(t *testing.T) {
	loader := &countingLoader{TestLoader: seededStore(t)}
	cache := NewTestCache(loader, time.Minute)

	if _, err := cache.GetTest(context.Background(), "test-1"); err != nil {
		t.Fatalf("get test: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader once, got %d", loader.count())
	}

	if _, err := cache.GetTest(context.Background(), "test-1"); err != nil {
		t.Fatalf("get test 2: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.count())
	}
}

func TestTestCacheExpiresAndInvalidates(t *testing.T) {
	loader := &countingLoader{TestLoader: seededStore(t)}
	cache := NewTestCache(loader, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }
	ctx := context.Background()

	if _, err := cache.GetTest(ctx, "test-1"); err != nil {
		t.Fatalf("get test: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := cache.GetTest(ctx, "test-1"); err != nil {
		t.Fatalf("get test after ttl: %v", err)
	}
	if loader.count() != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.count())
	}

	if err := cache.Invalidate(ctx, "test-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := cache.GetTest(ctx, "test-1"); err != nil {
		t.Fatalf("get test after invalidate: %v", err)
	}
	if loader.count() != 3 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.count())
	}
}

func TestTestCacheReturnsCopies(t *testing.T) {
	cache := NewTestCache(seededStore(t), time.Minute)
	ctx := context.Background()

	first, err := cache.GetTest(ctx, "test-1")
	if err != nil {
		t.Fatalf("get test: %v", err)
	}
	first.Questions[0].CorrectOption = 4

	second, err := cache.GetTest(ctx, "test-1")
	if err != nil {
		t.Fatalf("get test 2: %v", err)
	}
	if second.Questions[0].CorrectOption != 2 {
		t.Fatalf("cached snapshot was mutated: %+v", second.Questions[0])
	}
}

func TestTestCacheExists(t *testing.T) {
	cache := NewTestCache(seededStore(t), time.Minute)

	ok, err := cache.TestExists(context.Background(), "test-1")
	if err != nil || !ok {
		t.Fatalf("expected test-1 to exist, got %v %v", ok, err)
	}
	ok, err = cache.TestExists(context.Background(), "missing")
	if err != nil || ok {
		t.Fatalf("expected missing test, got %v %v", ok, err)
	}
}

type countingLoader struct {
	TestLoader
	mu    sync.Mutex
	calls int
}

func (l *countingLoader) LoadTest(ctx context.Context, testID string) (domain.Test, error) {
	l.mu.Lock()
	l.calls++
	l.mu.Unlock()
	return l.TestLoader.LoadTest(ctx, testID)
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func seededStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore()
	ctx := context.Background()
	if err := store.CreateUser(ctx, domain.User{ID: "admin", Name: "Admin", Email: "admin@example.com", IsAdmin: true}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := store.CreateTest(ctx, sampleTest()); err != nil {
		t.Fatalf("create test: %v", err)
	}
	return store
}

func sampleTest() domain.Test {
	return domain.Test{
		ID:        "test-1",
		Title:     "Arithmetic",
		TimeLimit: 10,
		CreatedBy: "admin",
		Questions: []domain.Question{
			{
				ID:            "q1",
				TestID:        "test-1",
				QuestionNo:    1,
				Text:          "What is 2 + 2?",
				Options:       [domain.OptionCount]string{"3", "4", "5", "6"},
				CorrectOption: 2,
			},
		},
	}
}
