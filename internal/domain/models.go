package domain

import "time"

// Unanswered is the selected-option sentinel for a question the user skipped.
const Unanswered = 0

// OptionCount is the fixed number of options per question.
const OptionCount = 4

// User is an account. PasswordHash never leaves the service layer.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Question is a four-option multiple choice question owned by a test.
// TestID is a lookup back-reference only.
type Question struct {
	ID            string              `json:"id"`
	TestID        string              `json:"testId"`
	QuestionNo    int                 `json:"questionNo"`
	Text          string              `json:"question"`
	Options       [OptionCount]string `json:"options"`
	CorrectOption int                 `json:"correctOption"`
}

// Test is a timed quiz with an ordered question set.
type Test struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	TimeLimit   int        `json:"timeLimit"` // minutes
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	Questions   []Question `json:"questions"`
}

// Answer records the option a user picked for one question of an attempt.
type Answer struct {
	ID             string `json:"id"`
	AttemptID      string `json:"attemptId"`
	QuestionID     string `json:"questionId"`
	SelectedOption int    `json:"selectedOption"`
}

// TestAttempt is the immutable record of one scored submission.
type TestAttempt struct {
	ID             string    `json:"id"`
	TestID         string    `json:"testId"`
	UserID         string    `json:"userId"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	Answers        []Answer  `json:"answers"`
}

// AnswerSubmission is one (question, option) pair from a client.
type AnswerSubmission struct {
	QuestionID     string `json:"questionId"`
	SelectedOption int    `json:"selectedOption"`
}

// AttemptSummary is the feed-friendly view of a submitted attempt.
type AttemptSummary struct {
	AttemptID      string    `json:"attemptId"`
	TestID         string    `json:"testId"`
	UserID         string    `json:"userId"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// Summary derives the feed view of an attempt.
func (a TestAttempt) Summary() AttemptSummary {
	return AttemptSummary{
		AttemptID:      a.ID,
		TestID:         a.TestID,
		UserID:         a.UserID,
		Score:          a.Score,
		TotalQuestions: a.TotalQuestions,
		SubmittedAt:    a.EndTime,
	}
}

// QuestionByID returns the question with the given id from the test snapshot.
func (t Test) QuestionByID(id string) (Question, bool) {
	for _, q := range t.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
