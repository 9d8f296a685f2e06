package postgres

import (
	"time"

	"quiz-testing-service/internal/domain"

	"github.com/uptrace/bun"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string    `bun:"id,pk"`
	Name         string    `bun:"name,notnull"`
	Email        string    `bun:"email,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	IsAdmin      bool      `bun:"is_admin,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

type testRow struct {
	bun.BaseModel `bun:"table:tests,alias:t"`

	ID          string    `bun:"id,pk"`
	Title       string    `bun:"title,notnull"`
	Description string    `bun:"description,notnull"`
	TimeLimit   int       `bun:"time_limit,notnull"`
	CreatedBy   string    `bun:"created_by,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID            string `bun:"id,pk"`
	TestID        string `bun:"test_id,notnull"`
	QuestionNo    int    `bun:"question_no,notnull"`
	Question      string `bun:"question,notnull"`
	Option1       string `bun:"option1,notnull"`
	Option2       string `bun:"option2,notnull"`
	Option3       string `bun:"option3,notnull"`
	Option4       string `bun:"option4,notnull"`
	CorrectOption int    `bun:"correct_option,notnull"`
}

type attemptRow struct {
	bun.BaseModel `bun:"table:test_attempts,alias:ta"`

	ID             string    `bun:"id,pk"`
	TestID         string    `bun:"test_id,notnull"`
	UserID         string    `bun:"user_id,notnull"`
	Score          int       `bun:"score,notnull"`
	TotalQuestions int       `bun:"total_questions,notnull"`
	StartTime      time.Time `bun:"start_time,notnull"`
	EndTime        time.Time `bun:"end_time,notnull"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:answers,alias:a"`

	ID             string `bun:"id,pk"`
	AttemptID      string `bun:"test_attempt_id,notnull"`
	QuestionID     string `bun:"question_id,notnull"`
	Position       int    `bun:"position,notnull"`
	SelectedOption int    `bun:"selected_option,notnull"`
}

func userToRow(u domain.User) userRow {
	return userRow{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		IsAdmin:      u.IsAdmin,
		CreatedAt:    u.CreatedAt,
	}
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		IsAdmin:      r.IsAdmin,
		CreatedAt:    r.CreatedAt,
	}
}

func testToRows(t domain.Test) (testRow, []questionRow) {
	questions := make([]questionRow, 0, len(t.Questions))
	for _, q := range t.Questions {
		questions = append(questions, questionRow{
			ID:            q.ID,
			TestID:        t.ID,
			QuestionNo:    q.QuestionNo,
			Question:      q.Text,
			Option1:       q.Options[0],
			Option2:       q.Options[1],
			Option3:       q.Options[2],
			Option4:       q.Options[3],
			CorrectOption: q.CorrectOption,
		})
	}
	return testRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		TimeLimit:   t.TimeLimit,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
	}, questions
}

func (r testRow) toDomain(questions []questionRow) domain.Test {
	t := domain.Test{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		TimeLimit:   r.TimeLimit,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		Questions:   make([]domain.Question, 0, len(questions)),
	}
	for _, q := range questions {
		t.Questions = append(t.Questions, q.toDomain())
	}
	return t
}

func (r questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:            r.ID,
		TestID:        r.TestID,
		QuestionNo:    r.QuestionNo,
		Text:          r.Question,
		Options:       [domain.OptionCount]string{r.Option1, r.Option2, r.Option3, r.Option4},
		CorrectOption: r.CorrectOption,
	}
}

func attemptToRows(a domain.TestAttempt) (attemptRow, []answerRow) {
	answers := make([]answerRow, 0, len(a.Answers))
	for i, ans := range a.Answers {
		answers = append(answers, answerRow{
			ID:             ans.ID,
			AttemptID:      a.ID,
			QuestionID:     ans.QuestionID,
			Position:       i,
			SelectedOption: ans.SelectedOption,
		})
	}
	return attemptRow{
		ID:             a.ID,
		TestID:         a.TestID,
		UserID:         a.UserID,
		Score:          a.Score,
		TotalQuestions: a.TotalQuestions,
		StartTime:      a.StartTime,
		EndTime:        a.EndTime,
	}, answers
}

func (r attemptRow) toDomain(answers []answerRow) domain.TestAttempt {
	a := domain.TestAttempt{
		ID:             r.ID,
		TestID:         r.TestID,
		UserID:         r.UserID,
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		Answers:        make([]domain.Answer, 0, len(answers)),
	}
	for _, ans := range answers {
		a.Answers = append(a.Answers, domain.Answer{
			ID:             ans.ID,
			AttemptID:      ans.AttemptID,
			QuestionID:     ans.QuestionID,
			SelectedOption: ans.SelectedOption,
		})
	}
	return a
}
