package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the store error taxonomy. Typed errors below unwrap to
// one of these so callers can branch with errors.Is.
var (
	ErrNotFound          = errors.New("entity not found")
	ErrDuplicateIdentity = errors.New("duplicate identity")
	ErrInvalidEnum       = errors.New("invalid enum value")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrPersistence       = errors.New("persistence failure")
)

// NotFoundError reports an operation targeting an absent id.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// Unwrap returns ErrNotFound.
func (e NotFoundError) Unwrap() error { return ErrNotFound }

// DuplicateIdentityError reports an add with an id already in the collection.
type DuplicateIdentityError struct {
	Entity EntityType
	ID     string
}

func (e DuplicateIdentityError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Entity, e.ID)
}

// Unwrap returns ErrDuplicateIdentity.
func (e DuplicateIdentityError) Unwrap() error { return ErrDuplicateIdentity }

// EnumError reports a field value outside its declared finite set.
type EnumError struct {
	Entity EntityType
	ID     string
	Field  string
	Value  string
}

func (e EnumError) Error() string {
	return fmt.Sprintf("%s %q: invalid %s %q", e.Entity, e.ID, e.Field, e.Value)
}

// Unwrap returns ErrInvalidEnum.
func (e EnumError) Unwrap() error { return ErrInvalidEnum }

// ValidationError reports a missing required field or a broken entity invariant.
type ValidationError struct {
	Entity EntityType
	ID     string
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %s %s", e.Entity, e.ID, e.Field, e.Reason)
}

// Unwrap returns ErrValidation.
func (e ValidationError) Unwrap() error { return ErrValidation }

// TransitionError reports a state change rejected by a transition table.
type TransitionError struct {
	Entity EntityType
	ID     string
	From   string
	To     string
	Result Result
}

func (e TransitionError) Error() string {
	if e.From == "" && e.To == "" {
		return fmt.Sprintf("%s %q: %s", e.Entity, e.ID, e.Result.Summary())
	}
	return fmt.Sprintf("%s %q: cannot move from %s to %s", e.Entity, e.ID, e.From, e.To)
}

// Unwrap returns ErrInvalidTransition and, when rules blocked the change, the
// RuleViolationError carrying their result.
func (e TransitionError) Unwrap() []error {
	if !e.Result.HasBlocking() {
		return []error{ErrInvalidTransition}
	}
	return []error{ErrInvalidTransition, RuleViolationError{Result: e.Result}}
}

// PersistenceError reports a failed read or write against the durable medium.
// When returned from a mutating store operation the in-memory change has
// already been applied and published.
type PersistenceError struct {
	Collection string
	Op         string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s (%s): %v", e.Collection, e.Op, e.Err)
}

// Unwrap exposes both ErrPersistence and the underlying medium error.
func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// IsWarning reports whether err only signals a best-effort persistence
// failure, meaning the requested mutation itself succeeded.
func IsWarning(err error) bool {
	var pErr *PersistenceError
	return errors.As(err, &pErr)
}
