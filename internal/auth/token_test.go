package auth_test

import (
	"errors"
	"testing"
	"time"

	"quiz-testing-service/internal/auth"
	"quiz-testing-service/internal/domain"
)

func TestIssueAndParse(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)

	token, err := issuer.Issue(domain.User{ID: "u1", IsAdmin: true})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	for _, raw := range []string{token, "Bearer " + token, "bearer  " + token} {
		id, err := issuer.Parse(raw)
		if err != nil {
			t.Fatalf("parse %q failed: %v", raw, err)
		}
		if id.UserID != "u1" || !id.Admin {
			t.Fatalf("unexpected identity %+v", id)
		}
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := auth.NewTokenIssuer("secret", time.Minute).WithClock(func() time.Time { return now })

	token, err := issuer.Issue(domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := issuer.Parse(token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestParseRejectsForeignSignature(t *testing.T) {
	token, err := auth.NewTokenIssuer("other", time.Hour).Issue(domain.User{ID: "u1"})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := auth.NewTokenIssuer("secret", time.Hour).Parse(token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestParseMissingToken(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret", time.Hour)
	for _, raw := range []string{"", "   ", "Bearer "} {
		if _, err := issuer.Parse(raw); !errors.Is(err, auth.ErrMissingToken) {
			t.Fatalf("parse %q: expected missing token, got %v", raw, err)
		}
	}
}
