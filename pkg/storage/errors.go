package storage

import "errors"

// ErrNotFound is returned when a record with the given id does not exist.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a compare-and-swap on a record's revision
// fails because the record was mutated concurrently. The write is never
// silently applied; the caller requeues and reapplies.
var ErrConflict = errors.New("revision conflict")

// ErrInvalidTransition is returned when a status change violates the
// transition table for that status field.
var ErrInvalidTransition = errors.New("invalid status transition")
