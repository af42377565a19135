package agg

import (
	"errors"
	"fmt"
)

// ProcedureNotFoundError is returned when a dispatched path has no registered
// procedure. Lookup is exact; there is no prefix matching.
type ProcedureNotFoundError struct {
	Path string
}

func (e *ProcedureNotFoundError) Error() string {
	return fmt.Sprintf("Error: Procedure '%s' not found\n  Context: No handler or aggregation is registered under this path\n  Fix: Check the proc path for typos, or register the procedure at startup", e.Path)
}

// NewProcedureNotFoundError creates a ProcedureNotFoundError.
func NewProcedureNotFoundError(path string) *ProcedureNotFoundError {
	return &ProcedureNotFoundError{Path: path}
}

// AlreadyRegisteredError is returned when registering over an existing path
// without the replace flag.
type AlreadyRegisteredError struct {
	Path string
}

func (e *AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("Error: Procedure '%s' is already registered\n  Context: Registrations are write-once after process start\n  Fix: Pass the replace option to overwrite intentionally", e.Path)
}

// AggregationTooDeepError is returned when step nesting exceeds the
// interpreter's depth bound.
type AggregationTooDeepError struct {
	Path     string
	MaxDepth int
}

func (e *AggregationTooDeepError) Error() string {
	return fmt.Sprintf("Error: Aggregation nesting exceeds %d levels\n  Context: While executing '%s'; circular procedure references terminate here instead of exhausting the stack\n  Fix: Break the recursion with a conditional, or flatten the aggregation", e.MaxDepth, e.Path)
}

// RefRuleViolationError is returned when a step parameter violates the value
// rules (e.g. a traversal visit that is neither a procedure path nor a
// deferred step).
type RefRuleViolationError struct {
	Param   string
	Message string
}

func (e *RefRuleViolationError) Error() string {
	return fmt.Sprintf("Error: Invalid aggregation parameter '%s'\n  Context: %s\n  Fix: Pass a procedure path or a step tagged when=parent", e.Param, e.Message)
}

// ThrowError is the failure raised by the client.throw operator.
type ThrowError struct {
	Message string
}

func (e *ThrowError) Error() string {
	return e.Message
}

// IsProcedureNotFound returns true if err is a ProcedureNotFoundError.
func IsProcedureNotFound(err error) bool {
	var e *ProcedureNotFoundError
	return errors.As(err, &e)
}

// IsAggregationTooDeep returns true if err is an AggregationTooDeepError.
func IsAggregationTooDeep(err error) bool {
	var e *AggregationTooDeepError
	return errors.As(err, &e)
}

// IsRefRuleViolation returns true if err is a RefRuleViolationError.
func IsRefRuleViolation(err error) bool {
	var e *RefRuleViolationError
	return errors.As(err, &e)
}

// IsThrow returns true if err is a ThrowError.
func IsThrow(err error) bool {
	var e *ThrowError
	return errors.As(err, &e)
}
