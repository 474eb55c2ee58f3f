package records

import "errors"

var (
	// ErrRecordNotFound indicates no canonical record exists for the lookup.
	ErrRecordNotFound = errors.New("canonical record not found")
	// ErrStoreUnreachable indicates the record store could not be reached.
	ErrStoreUnreachable = errors.New("record store unreachable")
)
