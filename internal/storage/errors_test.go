package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestDupOrMapsUniqueViolation(t *testing.T) {
	pqErr := &pq.Error{Code: "23505", Constraint: "seekers_phone_key"}

	if got := dupOr(pqErr); !errors.Is(got, ErrDuplicate) {
		t.Errorf("dupOr(unique violation) = %v, want ErrDuplicate", got)
	}
	wrapped := fmt.Errorf("create seeker: %w", pqErr)
	if got := dupOr(wrapped); !errors.Is(got, ErrDuplicate) {
		t.Errorf("dupOr(wrapped unique violation) = %v, want ErrDuplicate", got)
	}
}

func TestDupOrPassesOtherErrorsThrough(t *testing.T) {
	for _, err := range []error{
		&pq.Error{Code: "23503"}, // foreign key
		errors.New("connection reset"),
	} {
		got := dupOr(err)
		if !errors.Is(got, err) {
			t.Errorf("dupOr(%v) = %v, want the error unchanged", err, got)
		}
		if errors.Is(got, ErrDuplicate) {
			t.Errorf("dupOr(%v) reported a duplicate", err)
		}
	}
	if dupOr(nil) != nil {
		t.Error("dupOr(nil) != nil")
	}
}
