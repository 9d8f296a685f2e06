package app

import (
	"context"
	"time"

	"quiz-testing-service/internal/domain"

	"github.com/rs/zerolog/log"
)

// AttemptService drives the start/submit flow of a test and serves the
// attempt history.
type AttemptService struct {
	tests      TestRepository
	attempts   AttemptReader
	tracker    StartTracker
	submission *SubmissionService
	grace      time.Duration
	now        func() time.Time
}

func NewAttemptService(tests TestRepository, attempts AttemptReader, tracker StartTracker, submission *SubmissionService, grace time.Duration) *AttemptService {
	return &AttemptService{
		tests:      tests,
		attempts:   attempts,
		tracker:    tracker,
		submission: submission,
		grace:      grace,
		now:        time.Now,
	}
}

// WithClock swaps the time source; used by tests.
func (s *AttemptService) WithClock(now func() time.Time) *AttemptService {
	s.now = now
	return s
}

// Start records when userID opened testID. The record outlives the time
// limit by the configured grace period.
func (s *AttemptService) Start(ctx context.Context, testID, userID string) (time.Time, error) {
	test, err := s.tests.GetTest(ctx, testID)
	if err != nil {
		return time.Time{}, err
	}
	if len(test.Questions) == 0 {
		return time.Time{}, domain.ErrTestHasNoQuestions
	}

	startedAt := s.now()
	ttl := time.Duration(test.TimeLimit)*time.Minute + s.grace
	if err := s.tracker.MarkStarted(ctx, testID, userID, startedAt, ttl); err != nil {
		return time.Time{}, domain.Transient("mark started", err)
	}
	return startedAt, nil
}

// Finish submits answers for userID. The start time comes from the tracker
// when present, then from clientStart, then from the current time.
func (s *AttemptService) Finish(ctx context.Context, testID, userID string, answers []domain.AnswerSubmission, clientStart *time.Time) (domain.TestAttempt, error) {
	end := s.now()
	start := end

	recorded, ok, err := s.tracker.StartedAt(ctx, testID, userID)
	switch {
	case err != nil:
		log.Warn().Err(err).Str("testID", testID).Str("userID", userID).Msg("start tracker lookup failed")
		if clientStart != nil {
			start = *clientStart
		}
	case ok:
		start = recorded
	case clientStart != nil:
		start = *clientStart
	}

	attempt, err := s.submission.Submit(ctx, SubmitRequest{
		TestID:    testID,
		UserID:    userID,
		Answers:   answers,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		return domain.TestAttempt{}, err
	}

	if err := s.tracker.Clear(ctx, testID, userID); err != nil {
		log.Warn().Err(err).Str("testID", testID).Str("userID", userID).Msg("start tracker clear failed")
	}
	return attempt, nil
}

// Get returns an attempt visible to the caller: its owner or an admin.
func (s *AttemptService) Get(ctx context.Context, attemptID, callerID string, admin bool) (domain.TestAttempt, error) {
	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return domain.TestAttempt{}, err
	}
	if !admin && attempt.UserID != callerID {
		// hide existence from other users
		return domain.TestAttempt{}, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

func (s *AttemptService) ListByUser(ctx context.Context, userID string) ([]domain.TestAttempt, error) {
	return s.attempts.ListAttemptsByUser(ctx, userID)
}

func (s *AttemptService) ListByTest(ctx context.Context, testID string) ([]domain.TestAttempt, error) {
	exists, err := s.tests.TestExists(ctx, testID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrTestNotFound
	}
	return s.attempts.ListAttemptsByTest(ctx, testID)
}
