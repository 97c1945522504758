package core

import (
	"fmt"
	"strings"
)

// ValidationError reports caller-supplied data violating field rules. It
// always carries every violated rule, not just the first, so the caller can
// surface the complete list at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// NewValidationError returns nil when there are no violations, which lets
// validators be written as plain collect-and-return functions.
func NewValidationError(violations []string) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

// DomainError is a business-rule violation distinct from field validation,
// raised before any write happens.
type DomainError struct {
	Reason string
}

func (e *DomainError) Error() string { return e.Reason }

func NewDomainError(format string, args ...any) *DomainError {
	return &DomainError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError means a referenced worker, pair or ledger entity does not
// exist.
type NotFoundError struct {
	Kind string
	Ref  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Ref)
}

// DatabaseError wraps a store failure with the attempted operation name for
// diagnostics. It is always propagated, never swallowed, and the engine
// performs no automatic retry.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("store operation %s failed: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }
