package app

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"quiz-testing-service/internal/domain"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// UserServiceConfig tunes account handling.
type UserServiceConfig struct {
	BcryptCost  int
	AdminEmails []string
}

// UserService handles signup and login.
type UserService struct {
	users  UserStore
	cost   int
	admins map[string]struct{}
	now    func() time.Time
}

func NewUserService(users UserStore, cfg UserServiceConfig) *UserService {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, email := range cfg.AdminEmails {
		admins[normalizeEmail(email)] = struct{}{}
	}
	return &UserService{users: users, cost: cost, admins: admins, now: time.Now}
}

// Signup registers a new account. Emails are unique case-insensitively.
func (s *UserService) Signup(ctx context.Context, name, email, password string) (domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.User{}, fmt.Errorf("%w: name is required", domain.ErrInvalidUser)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return domain.User{}, fmt.Errorf("%w: malformed email", domain.ErrInvalidUser)
	}
	if len(password) < minPasswordLen {
		return domain.User{}, fmt.Errorf("%w: password must have at least %d characters", domain.ErrInvalidUser, minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		// bcrypt rejects passwords longer than 72 bytes
		return domain.User{}, fmt.Errorf("%w: %v", domain.ErrInvalidUser, err)
	}

	normalized := normalizeEmail(addr.Address)
	_, admin := s.admins[normalized]
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        normalized,
		PasswordHash: string(hash),
		IsAdmin:      admin,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	log.Info().Str("userID", user.ID).Bool("admin", user.IsAdmin).Msg("user registered")
	return user, nil
}

// Login checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, userID string) (domain.User, error) {
	return s.users.GetUser(ctx, userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
