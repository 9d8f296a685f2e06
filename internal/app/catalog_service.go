package app

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"quiz-testing-service/internal/csvimport"
	"quiz-testing-service/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// QuestionInput is one question of a test being created.
type QuestionInput struct {
	QuestionNo    int
	Text          string
	Options       [domain.OptionCount]string
	CorrectOption int
}

// CreateTestInput describes a new test.
type CreateTestInput struct {
	Title       string
	Description string
	TimeLimit   int
	CreatedBy   string
	Questions   []QuestionInput
}

// ImportInput describes a test whose questions come from a CSV upload.
type ImportInput struct {
	Title       string
	Description string
	TimeLimit   int
	CreatedBy   string
	CSV         io.Reader
}

// CatalogService manages test definitions.
type CatalogService struct {
	store TestStore
	tests TestRepository
	users UserRepository
	cache TestCacheInvalidator
	now   func() time.Time
	newID func() string
}

func NewCatalogService(store TestStore, tests TestRepository, users UserRepository, cache TestCacheInvalidator) *CatalogService {
	return &CatalogService{
		store: store,
		tests: tests,
		users: users,
		cache: cache,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Create validates and stores a test with its questions ordered by number.
func (s *CatalogService) Create(ctx context.Context, in CreateTestInput) (domain.Test, error) {
	if err := validateTestInput(in); err != nil {
		return domain.Test{}, err
	}
	if _, err := s.users.GetUser(ctx, in.CreatedBy); err != nil {
		return domain.Test{}, err
	}

	test := domain.Test{
		ID:          s.newID(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		TimeLimit:   in.TimeLimit,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   s.now().UTC(),
		Questions:   make([]domain.Question, 0, len(in.Questions)),
	}
	for _, q := range in.Questions {
		question := domain.Question{
			ID:            s.newID(),
			TestID:        test.ID,
			QuestionNo:    q.QuestionNo,
			Text:          strings.TrimSpace(q.Text),
			CorrectOption: q.CorrectOption,
		}
		for i, opt := range q.Options {
			question.Options[i] = strings.TrimSpace(opt)
		}
		test.Questions = append(test.Questions, question)
	}
	sort.Slice(test.Questions, func(i, j int) bool {
		return test.Questions[i].QuestionNo < test.Questions[j].QuestionNo
	})

	if err := s.store.CreateTest(ctx, test); err != nil {
		return domain.Test{}, err
	}
	log.Info().Str("testID", test.ID).Int("questions", len(test.Questions)).Msg("test created")
	return test, nil
}

func (s *CatalogService) Get(ctx context.Context, testID string) (domain.Test, error) {
	return s.tests.GetTest(ctx, testID)
}

func (s *CatalogService) List(ctx context.Context) ([]domain.Test, error) {
	return s.store.ListTests(ctx)
}

// Delete removes a test that has no recorded attempts.
func (s *CatalogService) Delete(ctx context.Context, testID string) error {
	if err := s.store.DeleteTest(ctx, testID); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, testID); err != nil {
			log.Warn().Err(err).Str("testID", testID).Msg("cache invalidation failed")
		}
	}
	log.Info().Str("testID", testID).Msg("test deleted")
	return nil
}

// Import parses a question CSV and creates the test when every row is valid.
// The row report is returned in both cases.
func (s *CatalogService) Import(ctx context.Context, in ImportInput) (domain.Test, *csvimport.Report, error) {
	questions, report, err := csvimport.Parse(in.CSV)
	if err != nil {
		return domain.Test{}, report, err
	}
	if !report.OK() {
		return domain.Test{}, report, fmt.Errorf("%w: %d of %d rows rejected", domain.ErrInvalidCSV, len(report.Errors), report.TotalRows)
	}

	input := CreateTestInput{
		Title:       in.Title,
		Description: in.Description,
		TimeLimit:   in.TimeLimit,
		CreatedBy:   in.CreatedBy,
		Questions:   make([]QuestionInput, 0, len(questions)),
	}
	for _, q := range questions {
		input.Questions = append(input.Questions, QuestionInput{
			QuestionNo:    q.QuestionNo,
			Text:          q.Text,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
		})
	}
	test, err := s.Create(ctx, input)
	return test, report, err
}

func validateTestInput(in CreateTestInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidTest)
	}
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: description is required", domain.ErrInvalidTest)
	}
	if in.TimeLimit <= 0 {
		return fmt.Errorf("%w: time limit must be positive", domain.ErrInvalidTest)
	}
	if len(in.Questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", domain.ErrInvalidTest)
	}

	seen := make(map[int]struct{}, len(in.Questions))
	for _, q := range in.Questions {
		if q.QuestionNo < 1 {
			return fmt.Errorf("%w: question number %d must be positive", domain.ErrInvalidTest, q.QuestionNo)
		}
		if _, dup := seen[q.QuestionNo]; dup {
			return fmt.Errorf("%w: duplicate question number %d", domain.ErrInvalidTest, q.QuestionNo)
		}
		seen[q.QuestionNo] = struct{}{}

		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("%w: question %d has no text", domain.ErrInvalidTest, q.QuestionNo)
		}
		for i, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return fmt.Errorf("%w: question %d option %d is empty", domain.ErrInvalidTest, q.QuestionNo, i+1)
			}
		}
		if q.CorrectOption < 1 || q.CorrectOption > domain.OptionCount {
			return fmt.Errorf("%w: question %d correct option %d", domain.ErrInvalidOption, q.QuestionNo, q.CorrectOption)
		}
	}
	return nil
}
