package shared

import (
	"errors"
	"fmt"
)

// Code is a stable machine-readable error category. Handlers map codes to HTTP
// statuses; callers must never string-match messages.
type Code string

const (
	CodeValidation            Code = "VALIDATION"
	CodeImbalancedEntry       Code = "IMBALANCED_ENTRY"
	CodeInsufficientStock     Code = "INSUFFICIENT_STOCK"
	CodeReferentialIntegrity  Code = "REFERENTIAL_INTEGRITY"
	CodeNotFound              Code = "NOT_FOUND"
	CodeMissingAccountMapping Code = "MISSING_ACCOUNT_MAPPING"
	CodeDuplicate             Code = "DUPLICATE"
	CodeUnauthorized          Code = "UNAUTHORIZED"
)

// Error is the domain error carried across package boundaries.
type Error struct {
	Code    Code
	Message string
	Fields  map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

// Is lets errors.Is match two domain errors by code.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// CodeOf extracts the machine code from an error chain, or "" for infrastructure errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Validation builds a caller-facing validation error.
func Validation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity by identifier.
func NotFound(entity string, id any) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %v not found", entity, id),
		Fields:  map[string]any{"entity": entity, "id": id},
	}
}

// ImbalancedEntry reports a journal whose debits and credits diverge beyond tolerance.
func ImbalancedEntry(debit, credit float64) *Error {
	return &Error{
		Code:    CodeImbalancedEntry,
		Message: fmt.Sprintf("journal entry is imbalanced: debit %.2f, credit %.2f", debit, credit),
		Fields:  map[string]any{"debit": debit, "credit": credit},
	}
}

// InsufficientStock names the item and warehouse that cannot cover the requested quantity.
func InsufficientStock(item, warehouse string, available, requested float64) *Error {
	return &Error{
		Code: CodeInsufficientStock,
		Message: fmt.Sprintf("insufficient stock for %s at %s: available %.2f, requested %.2f",
			item, warehouse, available, requested),
		Fields: map[string]any{
			"item":      item,
			"warehouse": warehouse,
			"available": available,
			"requested": requested,
		},
	}
}

// MissingAccountMapping reports an unresolvable posting account.
func MissingAccountMapping(kind, detail string) *Error {
	return &Error{
		Code:    CodeMissingAccountMapping,
		Message: fmt.Sprintf("no %s account configured for %s", kind, detail),
		Fields:  map[string]any{"kind": kind, "detail": detail},
	}
}

// ReferentialIntegrity blocks a deletion while dependents still exist.
func ReferentialIntegrity(format string, args ...any) *Error {
	return &Error{Code: CodeReferentialIntegrity, Message: fmt.Sprintf(format, args...)}
}

// Duplicate reports a uniqueness conflict.
func Duplicate(format string, args ...any) *Error {
	return &Error{Code: CodeDuplicate, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized reports a failed credential or session check.
func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message}
}
