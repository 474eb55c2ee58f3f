package index

import "errors"

var (
	// ErrEntryNotFound indicates no index entry exists for the given hash.
	ErrEntryNotFound = errors.New("index entry not found")
)
