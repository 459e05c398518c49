// Package apperr defines the error kinds surfaced by the persistence layer.
// Callers match them with errors.As to distinguish user-correctable failures
// from storage faults.
package apperr

import "fmt"

// ValidationError reports a missing or malformed field on a write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UniquenessConflict reports a write rejected by a unique constraint.
type UniquenessConflict struct {
	Entity string
	Field  string
	Value  string
}

func (e *UniquenessConflict) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Field, e.Value)
}

// ReferentialConflict reports a delete blocked by a live reference.
// Referencer names the blocking relation so the caller can explain it.
type ReferentialConflict struct {
	Entity     string
	ID         string
	Referencer string
}

func (e *ReferentialConflict) Error() string {
	return fmt.Sprintf("cannot delete %s %s: still referenced by %s", e.Entity, e.ID, e.Referencer)
}

// CapacityError reports a write rejected by a concurrency cap, such as the
// limit on simultaneously in-progress tasks.
type CapacityError struct {
	Resource string
	Limit    int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s limit of %d reached", e.Resource, e.Limit)
}

// StorageError wraps an underlying database failure. It is propagated as-is
// and never retried at this layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
