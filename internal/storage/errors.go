package storage

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("storage: not found")
	// ErrDuplicate is returned when a unique value is already taken
	// in either the seeker or employer collection.
	ErrDuplicate = errors.New("storage: duplicate value")
)

// uniqueViolation is the Postgres error code for a violated unique
// constraint.
const uniqueViolation = "23505"

// dupOr maps a Postgres unique-violation to ErrDuplicate, so callers
// can branch on errors.Is without knowing the driver. Any other error
// passes through unchanged.
func dupOr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}
