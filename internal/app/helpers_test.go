package app_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"quiz-testing-service/internal/domain"
	"quiz-testing-service/internal/infra/memory"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// fixture seeds a memory store with an admin, two students and a test whose
// correct options are given by correct.
func fixture(t *testing.T, correct ...int) (*memory.Store, domain.Test) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	for _, u := range []domain.User{
		{ID: "admin", Name: "Admin", Email: "admin@example.com", IsAdmin: true},
		{ID: "alice", Name: "Alice", Email: "alice@example.com"},
		{ID: "bob", Name: "Bob", Email: "bob@example.com"},
	} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("create user %s: %v", u.ID, err)
		}
	}

	test := domain.Test{
		ID:          "test-1",
		Title:       "General knowledge",
		Description: "warm up",
		TimeLimit:   15,
		CreatedBy:   "admin",
		CreatedAt:   t0,
	}
	for i, c := range correct {
		test.Questions = append(test.Questions, domain.Question{
			ID:            fmt.Sprintf("q%d", i+1),
			TestID:        test.ID,
			QuestionNo:    i + 1,
			Text:          fmt.Sprintf("Question %d", i+1),
			Options:       [domain.OptionCount]string{"a", "b", "c", "d"},
			CorrectOption: c,
		})
	}
	if err := store.CreateTest(ctx, test); err != nil {
		t.Fatalf("create test: %v", err)
	}
	return store, test
}

func answers(pairs ...interface{}) []domain.AnswerSubmission {
	out := make([]domain.AnswerSubmission, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, domain.AnswerSubmission{
			QuestionID:     pairs[i].(string),
			SelectedOption: pairs[i+1].(int),
		})
	}
	return out
}
