package postgres

import (
	"context"
	"database/sql"
	"errors"

	"quiz-testing-service/internal/domain"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Store persists users, tests and attempts through bun. Multi-row writes
// run in one transaction bound to the caller's context.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	row := userToRow(user)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		if pgCode(err) == codeUniqueViolation {
			return domain.ErrEmailTaken
		}
		return classify("create user", err, nil)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (domain.User, error) {
	if !validID(userID) {
		return domain.User{}, domain.ErrUserNotFound
	}
	var row userRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", userID).Scan(ctx); err != nil {
		return domain.User{}, classify("get user", err, domain.ErrUserNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var row userRow
	if err := s.db.NewSelect().Model(&row).Where("email = ?", email).Scan(ctx); err != nil {
		return domain.User{}, classify("get user by email", err, domain.ErrUserNotFound)
	}
	return row.toDomain(), nil
}

// CreateTest inserts the test and its questions in one transaction.
func (s *Store) CreateTest(ctx context.Context, test domain.Test) error {
	if !validID(test.CreatedBy) {
		return domain.ErrUserNotFound
	}
	testRec, questions := testToRows(test)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&testRec).Exec(ctx); err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&questions).Exec(ctx)
		return err
	})
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return domain.ErrUserNotFound
		}
		return classify("create test", err, nil)
	}
	return nil
}

// ListTests returns every test with ordered questions, oldest first.
func (s *Store) ListTests(ctx context.Context) ([]domain.Test, error) {
	var tests []testRow
	if err := s.db.NewSelect().Model(&tests).Order("created_at ASC", "id ASC").Scan(ctx); err != nil {
		return nil, classify("list tests", err, nil)
	}
	if len(tests) == 0 {
		return []domain.Test{}, nil
	}

	ids := make([]string, 0, len(tests))
	for _, t := range tests {
		ids = append(ids, t.ID)
	}
	var questions []questionRow
	err := s.db.NewSelect().
		Model(&questions).
		Where("test_id IN (?)", bun.In(ids)).
		Order("test_id ASC", "question_no ASC").
		Scan(ctx)
	if err != nil {
		return nil, classify("list questions", err, nil)
	}

	byTest := make(map[string][]questionRow, len(tests))
	for _, q := range questions {
		byTest[q.TestID] = append(byTest[q.TestID], q)
	}
	out := make([]domain.Test, 0, len(tests))
	for _, t := range tests {
		out = append(out, t.toDomain(byTest[t.ID]))
	}
	return out, nil
}

// DeleteTest locks the test row, refuses when attempts reference it and
// otherwise removes the questions before the test itself.
func (s *Store) DeleteTest(ctx context.Context, testID string) error {
	if !validID(testID) {
		return domain.ErrTestNotFound
	}
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var row testRow
		if err := tx.NewSelect().Model(&row).Where("id = ?", testID).For("UPDATE").Scan(ctx); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrTestNotFound
			}
			return err
		}

		attempts, err := tx.NewSelect().Model((*attemptRow)(nil)).Where("test_id = ?", testID).Count(ctx)
		if err != nil {
			return err
		}
		if attempts > 0 {
			return domain.ErrTestHasAttempts
		}

		if _, err := tx.NewDelete().Model((*questionRow)(nil)).Where("test_id = ?", testID).Exec(ctx); err != nil {
			return err
		}
		_, err = tx.NewDelete().Model((*testRow)(nil)).Where("id = ?", testID).Exec(ctx)
		return err
	})
	return classify("delete test", err, nil)
}

// SaveAtomic writes the attempt and its answers; a failure or cancellation
// rolls both back.
func (s *Store) SaveAtomic(ctx context.Context, attempt domain.TestAttempt) (domain.TestAttempt, error) {
	if !validID(attempt.TestID) {
		return domain.TestAttempt{}, domain.ErrTestNotFound
	}
	if !validID(attempt.UserID) {
		return domain.TestAttempt{}, domain.ErrUserNotFound
	}
	row, answers := attemptToRows(attempt)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return err
		}
		if len(answers) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&answers).Exec(ctx)
		return err
	})
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			if pgConstraint(err) == "test_attempts_user_id_fkey" {
				return domain.TestAttempt{}, domain.ErrUserNotFound
			}
			return domain.TestAttempt{}, domain.ErrTestNotFound
		}
		return domain.TestAttempt{}, classify("save attempt", err, nil)
	}
	return row.toDomain(answers), nil
}

func (s *Store) GetAttempt(ctx context.Context, attemptID string) (domain.TestAttempt, error) {
	if !validID(attemptID) {
		return domain.TestAttempt{}, domain.ErrAttemptNotFound
	}
	var row attemptRow
	if err := s.db.NewSelect().Model(&row).Where("id = ?", attemptID).Scan(ctx); err != nil {
		return domain.TestAttempt{}, classify("get attempt", err, domain.ErrAttemptNotFound)
	}
	attempts, err := s.withAnswers(ctx, []attemptRow{row})
	if err != nil {
		return domain.TestAttempt{}, err
	}
	return attempts[0], nil
}

func (s *Store) ListAttemptsByUser(ctx context.Context, userID string) ([]domain.TestAttempt, error) {
	return s.listAttempts(ctx, "user_id", userID)
}

func (s *Store) ListAttemptsByTest(ctx context.Context, testID string) ([]domain.TestAttempt, error) {
	return s.listAttempts(ctx, "test_id", testID)
}

func (s *Store) listAttempts(ctx context.Context, column, id string) ([]domain.TestAttempt, error) {
	if !validID(id) {
		return []domain.TestAttempt{}, nil
	}
	var rows []attemptRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("? = ?", bun.Ident(column), id).
		Order("end_time ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, classify("list attempts", err, nil)
	}
	return s.withAnswers(ctx, rows)
}

func (s *Store) withAnswers(ctx context.Context, rows []attemptRow) ([]domain.TestAttempt, error) {
	if len(rows) == 0 {
		return []domain.TestAttempt{}, nil
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	var answers []answerRow
	err := s.db.NewSelect().
		Model(&answers).
		Where("test_attempt_id IN (?)", bun.In(ids)).
		Order("test_attempt_id ASC", "position ASC").
		Scan(ctx)
	if err != nil {
		return nil, classify("list answers", err, nil)
	}

	byAttempt := make(map[string][]answerRow, len(rows))
	for _, a := range answers {
		byAttempt[a.AttemptID] = append(byAttempt[a.AttemptID], a)
	}
	out := make([]domain.TestAttempt, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain(byAttempt[r.ID]))
	}
	return out, nil
}

// classify keeps domain errors, maps sql.ErrNoRows to notFound and marks
// everything else retryable.
func classify(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	if domain.KindOf(err) != domain.KindUnknown {
		return err
	}
	return domain.Transient(op, err)
}

func pgCode(err error) string {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C')
	}
	return ""
}

func pgConstraint(err error) string {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('n')
	}
	return ""
}

// validID filters ids the uuid columns would reject with a cast error.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
