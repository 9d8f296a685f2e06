package app

import (
	"context"
	"time"

	"quiz-testing-service/internal/domain"
)

// TestRepository returns test snapshots (question set included) by id.
type TestRepository interface {
	GetTest(ctx context.Context, testID string) (domain.Test, error)
	TestExists(ctx context.Context, testID string) (bool, error)
}

// UserRepository looks users up by id.
type UserRepository interface {
	GetUser(ctx context.Context, userID string) (domain.User, error)
}

// AttemptStore persists an attempt together with its answers, all or nothing.
type AttemptStore interface {
	SaveAtomic(ctx context.Context, attempt domain.TestAttempt) (domain.TestAttempt, error)
}

// AttemptReader serves the attempt history.
type AttemptReader interface {
	GetAttempt(ctx context.Context, attemptID string) (domain.TestAttempt, error)
	ListAttemptsByUser(ctx context.Context, userID string) ([]domain.TestAttempt, error)
	ListAttemptsByTest(ctx context.Context, testID string) ([]domain.TestAttempt, error)
}

// TestStore owns test definitions. DeleteTest removes the questions and the
// test in one transaction and refuses when attempts reference the test.
type TestStore interface {
	CreateTest(ctx context.Context, test domain.Test) error
	ListTests(ctx context.Context) ([]domain.Test, error)
	DeleteTest(ctx context.Context, testID string) error
}

// UserStore is the account storage used by signup and login.
type UserStore interface {
	UserRepository
	CreateUser(ctx context.Context, user domain.User) error
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
}

// TestCacheInvalidator drops a cached test snapshot.
type TestCacheInvalidator interface {
	Invalidate(ctx context.Context, testID string) error
}

// StartTracker remembers when a user opened a test.
type StartTracker interface {
	MarkStarted(ctx context.Context, testID, userID string, at time.Time, ttl time.Duration) error
	StartedAt(ctx context.Context, testID, userID string) (time.Time, bool, error)
	Clear(ctx context.Context, testID, userID string) error
}

// AttemptPublisher receives summaries of freshly stored attempts.
type AttemptPublisher interface {
	Publish(summary domain.AttemptSummary)
}
