package memory

import (
	"context"
	"fmt"
	"sync"

	"quiz-testing-service/internal/domain"
)

// Store keeps users, tests and attempts in process memory. It implements
// every storage interface of the app layer and doubles as a TestLoader.
type Store struct {
	mu sync.RWMutex

	users   map[string]domain.User
	byEmail map[string]string

	tests     map[string]domain.Test
	testOrder []string

	attempts     map[string]domain.TestAttempt
	attemptOrder []string
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]domain.User),
		byEmail:  make(map[string]string),
		tests:    make(map[string]domain.Test),
		attempts: make(map[string]domain.TestAttempt),
	}
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	if err := ctx.Err(); err != nil {
		return domain.Transient("create user", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[user.Email]; ok {
		return domain.ErrEmailTaken
	}
	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("user %s already exists", user.ID)
	}
	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *Store) GetUser(_ context.Context, userID string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.users[id], nil
}

func (s *Store) CreateTest(ctx context.Context, test domain.Test) error {
	if err := ctx.Err(); err != nil {
		return domain.Transient("create test", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[test.CreatedBy]; !ok {
		return domain.ErrUserNotFound
	}
	if _, ok := s.tests[test.ID]; ok {
		return fmt.Errorf("test %s already exists", test.ID)
	}
	s.tests[test.ID] = cloneTest(test)
	s.testOrder = append(s.testOrder, test.ID)
	return nil
}

// LoadTest returns a copy of the stored test.
func (s *Store) LoadTest(_ context.Context, testID string) (domain.Test, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	test, ok := s.tests[testID]
	if !ok {
		return domain.Test{}, domain.ErrTestNotFound
	}
	return cloneTest(test), nil
}

func (s *Store) GetTest(ctx context.Context, testID string) (domain.Test, error) {
	return s.LoadTest(ctx, testID)
}

func (s *Store) TestExists(_ context.Context, testID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tests[testID]
	return ok, nil
}

func (s *Store) ListTests(_ context.Context) ([]domain.Test, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Test, 0, len(s.testOrder))
	for _, id := range s.testOrder {
		out = append(out, cloneTest(s.tests[id]))
	}
	return out, nil
}

// DeleteTest refuses while attempts reference the test.
func (s *Store) DeleteTest(ctx context.Context, testID string) error {
	if err := ctx.Err(); err != nil {
		return domain.Transient("delete test", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tests[testID]; !ok {
		return domain.ErrTestNotFound
	}
	for _, a := range s.attempts {
		if a.TestID == testID {
			return domain.ErrTestHasAttempts
		}
	}
	delete(s.tests, testID)
	for i, id := range s.testOrder {
		if id == testID {
			s.testOrder = append(s.testOrder[:i], s.testOrder[i+1:]...)
			break
		}
	}
	return nil
}

// SaveAtomic stores the attempt and its answers under one lock. A cancelled
// context leaves the store untouched.
func (s *Store) SaveAtomic(ctx context.Context, attempt domain.TestAttempt) (domain.TestAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return domain.TestAttempt{}, domain.Transient("save attempt", err)
	}
	if _, ok := s.tests[attempt.TestID]; !ok {
		return domain.TestAttempt{}, domain.ErrTestNotFound
	}
	if _, ok := s.users[attempt.UserID]; !ok {
		return domain.TestAttempt{}, domain.ErrUserNotFound
	}
	if _, ok := s.attempts[attempt.ID]; ok {
		return domain.TestAttempt{}, fmt.Errorf("attempt %s already exists", attempt.ID)
	}
	stored := cloneAttempt(attempt)
	s.attempts[attempt.ID] = stored
	s.attemptOrder = append(s.attemptOrder, attempt.ID)
	return cloneAttempt(stored), nil
}

func (s *Store) GetAttempt(_ context.Context, attemptID string) (domain.TestAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attempts[attemptID]
	if !ok {
		return domain.TestAttempt{}, domain.ErrAttemptNotFound
	}
	return cloneAttempt(a), nil
}

func (s *Store) ListAttemptsByUser(_ context.Context, userID string) ([]domain.TestAttempt, error) {
	return s.filterAttempts(func(a domain.TestAttempt) bool { return a.UserID == userID }), nil
}

func (s *Store) ListAttemptsByTest(_ context.Context, testID string) ([]domain.TestAttempt, error) {
	return s.filterAttempts(func(a domain.TestAttempt) bool { return a.TestID == testID }), nil
}

func (s *Store) filterAttempts(keep func(domain.TestAttempt) bool) []domain.TestAttempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.TestAttempt, 0)
	for _, id := range s.attemptOrder {
		if a := s.attempts[id]; keep(a) {
			out = append(out, cloneAttempt(a))
		}
	}
	return out
}

func cloneTest(t domain.Test) domain.Test {
	t.Questions = append([]domain.Question(nil), t.Questions...)
	return t
}

func cloneAttempt(a domain.TestAttempt) domain.TestAttempt {
	a.Answers = append([]domain.Answer(nil), a.Answers...)
	return a
}
