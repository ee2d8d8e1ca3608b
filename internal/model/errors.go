package model

import "errors"

// Sentinel error kinds. Callers classify failures with errors.Is and
// services wrap these with context via fmt.Errorf("...: %w", ...).
var (
	// ErrNotFound reports an unresolvable id reference (category,
	// account, rule, or transaction).
	ErrNotFound = errors.New("not found")

	// ErrInvalidState reports an operation that would violate a model
	// invariant, such as assigning a non-leaf category to a transaction
	// or deleting a category that transactions still reference.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidAccount reports an import target that is not a leaf
	// category flagged as a bank account.
	ErrInvalidAccount = errors.New("invalid account")

	// ErrIntegrityViolation reports a hierarchy rewrite that would
	// produce a colliding id.
	ErrIntegrityViolation = errors.New("integrity violation")
)
