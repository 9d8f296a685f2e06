package app

import (
	"context"
	"fmt"
	"time"

	"quiz-testing-service/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SubmitRequest carries one raw submission.
type SubmitRequest struct {
	TestID    string
	UserID    string
	Answers   []domain.AnswerSubmission
	StartTime time.Time
	EndTime   time.Time
}

// SubmissionService validates, scores and records test submissions.
type SubmissionService struct {
	tests    TestRepository
	users    UserRepository
	attempts AttemptStore
	feed     AttemptPublisher
	newID    func() string
}

func NewSubmissionService(tests TestRepository, users UserRepository, attempts AttemptStore) *SubmissionService {
	return &SubmissionService{
		tests:    tests,
		users:    users,
		attempts: attempts,
		newID:    uuid.NewString,
	}
}

// WithFeed publishes every stored attempt to feed.
func (s *SubmissionService) WithFeed(feed AttemptPublisher) *SubmissionService {
	s.feed = feed
	return s
}

// Submit validates req against the test snapshot, scores it and stores the
// resulting attempt. Nothing is written unless every check passes.
func (s *SubmissionService) Submit(ctx context.Context, req SubmitRequest) (domain.TestAttempt, error) {
	test, err := s.tests.GetTest(ctx, req.TestID)
	if err != nil {
		return domain.TestAttempt{}, err
	}
	if len(test.Questions) == 0 {
		return domain.TestAttempt{}, fmt.Errorf("%w: %s", domain.ErrTestHasNoQuestions, test.ID)
	}
	if _, err := s.users.GetUser(ctx, req.UserID); err != nil {
		return domain.TestAttempt{}, err
	}

	selected, err := indexAnswers(test, req.Answers)
	if err != nil {
		return domain.TestAttempt{}, err
	}
	if req.EndTime.Before(req.StartTime) {
		return domain.TestAttempt{}, domain.ErrInvalidTimeWindow
	}

	attempt := domain.TestAttempt{
		ID:             s.newID(),
		TestID:         test.ID,
		UserID:         req.UserID,
		Score:          scoreAnswers(test, selected),
		TotalQuestions: len(test.Questions),
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Answers:        make([]domain.Answer, 0, len(req.Answers)),
	}
	for _, a := range req.Answers {
		attempt.Answers = append(attempt.Answers, domain.Answer{
			ID:             s.newID(),
			AttemptID:      attempt.ID,
			QuestionID:     a.QuestionID,
			SelectedOption: a.SelectedOption,
		})
	}

	saved, err := s.attempts.SaveAtomic(ctx, attempt)
	if err != nil {
		log.Error().Err(err).Str("testID", test.ID).Str("userID", req.UserID).Msg("store attempt failed")
		if domain.KindOf(err) == domain.KindUnknown {
			err = domain.Transient("save attempt", err)
		}
		return domain.TestAttempt{}, err
	}

	log.Info().
		Str("attemptID", saved.ID).
		Str("testID", saved.TestID).
		Str("userID", saved.UserID).
		Int("score", saved.Score).
		Int("total", saved.TotalQuestions).
		Msg("attempt recorded")

	if s.feed != nil {
		s.feed.Publish(saved.Summary())
	}
	return saved, nil
}

// indexAnswers maps question id to selected option. Orphan questions are
// reported before duplicates, duplicates before option range problems.
func indexAnswers(test domain.Test, answers []domain.AnswerSubmission) (map[string]int, error) {
	known := make(map[string]struct{}, len(test.Questions))
	for _, q := range test.Questions {
		known[q.ID] = struct{}{}
	}

	for _, a := range answers {
		if _, ok := known[a.QuestionID]; !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrQuestionNotInTest, a.QuestionID)
		}
	}

	selected := make(map[string]int, len(answers))
	for _, a := range answers {
		if _, dup := selected[a.QuestionID]; dup {
			return nil, fmt.Errorf("%w: %q", domain.ErrDuplicateAnswer, a.QuestionID)
		}
		selected[a.QuestionID] = a.SelectedOption
	}

	for _, a := range answers {
		if a.SelectedOption != domain.Unanswered && (a.SelectedOption < 1 || a.SelectedOption > domain.OptionCount) {
			return nil, fmt.Errorf("%w: question %q selected %d", domain.ErrInvalidOption, a.QuestionID, a.SelectedOption)
		}
	}
	return selected, nil
}

// scoreAnswers walks the full question set; missing and unanswered questions
// earn nothing.
func scoreAnswers(test domain.Test, selected map[string]int) int {
	score := 0
	for _, q := range test.Questions {
		opt, ok := selected[q.ID]
		if !ok || opt == domain.Unanswered {
			continue
		}
		if opt == q.CorrectOption {
			score++
		}
	}
	return score
}
