package aggregates

import (
	"errors"
	"testing"
)

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "unused"); err != nil {
		t.Fatalf("successful CAS must not error: %v", err)
	}
	err := RequireCASSuccess(false, "row changed")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("failed CAS must be a conflict, got %v", err)
	}
}

func TestRequireVersionMatch(t *testing.T) {
	if err := RequireVersionMatch(3, 3); err != nil {
		t.Fatalf("matching versions must not error: %v", err)
	}
	if err := RequireVersionMatch(4, 3); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale version must be a conflict, got %v", err)
	}
	if err := RequireVersionMatch(1, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing expected version must be a validation error, got %v", err)
	}
}
