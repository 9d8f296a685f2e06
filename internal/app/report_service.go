package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"quiz-testing-service/internal/domain"

	"github.com/shopspring/decimal"
)

// TestLister lists every stored test.
type TestLister interface {
	ListTests(ctx context.Context) ([]domain.Test, error)
}

// StudentResult is one attempt row of a report.
type StudentResult struct {
	AttemptID      string          `json:"attemptId"`
	UserID         string          `json:"userId"`
	UserName       string          `json:"userName"`
	Score          int             `json:"score"`
	TotalQuestions int             `json:"totalQuestions"`
	Percentage     decimal.Decimal `json:"percentage"`
	CompletionTime string          `json:"completionTime"`
}

// TestReport aggregates all attempts of one test.
type TestReport struct {
	TestID         string          `json:"testId"`
	TestTitle      string          `json:"testTitle"`
	TotalAttempts  int             `json:"totalAttempts"`
	AverageScore   decimal.Decimal `json:"averageScore"`
	StudentResults []StudentResult `json:"studentResults"`
}

// ReportService builds per-test result reports.
type ReportService struct {
	tests    TestLister
	snapshot TestRepository
	attempts AttemptReader
	users    UserRepository
}

func NewReportService(tests TestLister, snapshot TestRepository, attempts AttemptReader, users UserRepository) *ReportService {
	return &ReportService{tests: tests, snapshot: snapshot, attempts: attempts, users: users}
}

// Reports returns one report per test in catalog order.
func (s *ReportService) Reports(ctx context.Context) ([]TestReport, error) {
	tests, err := s.tests.ListTests(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string)
	reports := make([]TestReport, 0, len(tests))
	for _, test := range tests {
		report, err := s.build(ctx, test, names)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Report returns the report of a single test.
func (s *ReportService) Report(ctx context.Context, testID string) (TestReport, error) {
	test, err := s.snapshot.GetTest(ctx, testID)
	if err != nil {
		return TestReport{}, err
	}
	return s.build(ctx, test, make(map[string]string))
}

func (s *ReportService) build(ctx context.Context, test domain.Test, names map[string]string) (TestReport, error) {
	attempts, err := s.attempts.ListAttemptsByTest(ctx, test.ID)
	if err != nil {
		return TestReport{}, err
	}
	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].EndTime.Before(attempts[j].EndTime)
	})

	report := TestReport{
		TestID:         test.ID,
		TestTitle:      test.Title,
		TotalAttempts:  len(attempts),
		AverageScore:   decimal.Zero,
		StudentResults: make([]StudentResult, 0, len(attempts)),
	}
	sum := int64(0)
	for _, a := range attempts {
		name, err := s.userName(ctx, a.UserID, names)
		if err != nil {
			return TestReport{}, err
		}
		sum += int64(a.Score)
		report.StudentResults = append(report.StudentResults, StudentResult{
			AttemptID:      a.ID,
			UserID:         a.UserID,
			UserName:       name,
			Score:          a.Score,
			TotalQuestions: a.TotalQuestions,
			Percentage:     Percentage(a.Score, a.TotalQuestions),
			CompletionTime: CompletionTime(a.EndTime.Sub(a.StartTime)),
		})
	}
	if len(attempts) > 0 {
		report.AverageScore = decimal.NewFromInt(sum).DivRound(decimal.NewFromInt(int64(len(attempts))), 2)
	}
	return report, nil
}

func (s *ReportService) userName(ctx context.Context, userID string, names map[string]string) (string, error) {
	if name, ok := names[userID]; ok {
		return name, nil
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return "", err
		}
		user.Name = "Unknown"
	}
	names[userID] = user.Name
	return user.Name, nil
}

// Percentage returns score/total as a percentage rounded to two places.
func Percentage(score, total int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(score)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(total)), 2)
}

// CompletionTime formats d as minutes:seconds, truncating sub-second parts.
func CompletionTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
