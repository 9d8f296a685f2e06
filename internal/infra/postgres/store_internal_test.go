package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"quiz-testing-service/internal/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want domain.Kind
	}{
		{"no rows with sentinel", sql.ErrNoRows, domain.KindNotFound},
		{"domain error kept", domain.ErrTestHasAttempts, domain.KindConflict},
		{"driver failure", errors.New("broken pipe"), domain.KindTransient},
		{"cancelled", context.Canceled, domain.KindTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := domain.KindOf(classify("op", tc.err, domain.ErrTestNotFound)); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
	if classify("op", nil, nil) != nil {
		t.Fatalf("nil must stay nil")
	}
	if got := classify("op", fmt.Errorf("wrap: %w", sql.ErrNoRows), nil); domain.KindOf(got) != domain.KindTransient {
		t.Fatalf("no rows without sentinel should be transient, got %v", got)
	}
}

func TestRowMappingKeepsOptionOrder(t *testing.T) {
	test := domain.Test{
		ID:        "11111111-1111-1111-1111-111111111111",
		Title:     "t",
		TimeLimit: 5,
		Questions: []domain.Question{{
			ID:            "22222222-2222-2222-2222-222222222222",
			QuestionNo:    1,
			Text:          "pick c",
			Options:       [domain.OptionCount]string{"a", "b", "c", "d"},
			CorrectOption: 3,
		}},
	}
	row, questions := testToRows(test)
	back := row.toDomain(questions)
	q := back.Questions[0]
	if q.TestID != test.ID || q.Options != test.Questions[0].Options || q.CorrectOption != 3 {
		t.Fatalf("unexpected mapped question %+v", q)
	}
}

func TestAttemptRowsKeepAnswerPositions(t *testing.T) {
	attempt := domain.TestAttempt{
		ID:        "a",
		StartTime: time.Unix(0, 0),
		EndTime:   time.Unix(60, 0),
		Answers: []domain.Answer{
			{ID: "x", QuestionID: "q2", SelectedOption: 1},
			{ID: "y", QuestionID: "q1", SelectedOption: domain.Unanswered},
		},
	}
	_, answers := attemptToRows(attempt)
	if answers[0].Position != 0 || answers[1].Position != 1 || answers[1].AttemptID != "a" {
		t.Fatalf("unexpected answer rows %+v", answers)
	}
}

func TestValidID(t *testing.T) {
	if validID("not-a-uuid") {
		t.Fatalf("expected invalid id")
	}
	if !validID("11111111-1111-1111-1111-111111111111") {
		t.Fatalf("expected valid id")
	}
}
