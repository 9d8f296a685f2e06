package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindUnknown},
		{name: "sentinel", err: ErrTestNotFound, want: KindNotFound},
		{name: "wrapped sentinel", err: fmt.Errorf("%w: q9", ErrQuestionNotInTest), want: KindInvalidArgument},
		{name: "invalid state", err: ErrTestHasNoQuestions, want: KindInvalidState},
		{name: "conflict", err: ErrEmailTaken, want: KindConflict},
		{name: "transient", err: Transient("save attempt", errors.New("connection reset")), want: KindTransient},
		{name: "canceled", err: fmt.Errorf("save: %w", context.Canceled), want: KindTransient},
		{name: "plain", err: errors.New("boom"), want: KindUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := KindOf(tc.err); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestTransientKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Transient("save attempt", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved")
	}
	if Transient("noop", nil) != nil {
		t.Fatalf("expected nil for nil cause")
	}
}
