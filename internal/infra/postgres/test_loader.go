package postgres

import (
	"context"
	"errors"
	"fmt"

	"quiz-testing-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// TestLoader reads a test and its questions from Postgres in one
// repeatable-read snapshot.
type TestLoader struct {
	pool *pgxpool.Pool
}

func NewTestLoader(pool *pgxpool.Pool) *TestLoader {
	return &TestLoader{pool: pool}
}

func (l *TestLoader) LoadTest(ctx context.Context, testID string) (domain.Test, error) {
	if !validID(testID) {
		return domain.Test{}, domain.ErrTestNotFound
	}

	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return domain.Test{}, domain.Transient("load test", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var test domain.Test
	err = tx.QueryRow(ctx,
		`SELECT id::text, title, description, time_limit, created_by::text, created_at
		   FROM tests WHERE id = $1`, testID,
	).Scan(&test.ID, &test.Title, &test.Description, &test.TimeLimit, &test.CreatedBy, &test.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Test{}, domain.ErrTestNotFound
		}
		return domain.Test{}, domain.Transient("load test", err)
	}

	rows, err := tx.Query(ctx,
		`SELECT id::text, question_no, question, option1, option2, option3, option4, correct_option
		   FROM questions WHERE test_id = $1 ORDER BY question_no`, testID)
	if err != nil {
		return domain.Test{}, domain.Transient("load questions", err)
	}
	defer rows.Close()

	test.Questions = []domain.Question{}
	for rows.Next() {
		q := domain.Question{TestID: test.ID}
		if err := rows.Scan(&q.ID, &q.QuestionNo, &q.Text,
			&q.Options[0], &q.Options[1], &q.Options[2], &q.Options[3], &q.CorrectOption); err != nil {
			return domain.Test{}, fmt.Errorf("scan question: %w", err)
		}
		test.Questions = append(test.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Test{}, domain.Transient("load questions", err)
	}
	rows.Close()

	if err := tx.Commit(ctx); err != nil {
		return domain.Test{}, domain.Transient("load test", err)
	}
	return test, nil
}
