// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
)

// Stable numeric error codes surfaced to API callers. Code 0 means
// success in the response envelope; anything non-zero is a domain error.
const (
	CodeInternal      = 1000
	CodeValidation    = 1001
	CodeNotFound      = 1002
	CodeStateConflict = 1003
	CodeRender        = 1004
	CodePersistence   = 1005
)

// DomainError is a domain failure with a stable numeric code. Use the
// constructor helpers below; match with errors.Is against the sentinel
// for each code.
type DomainError struct {
	Code      int
	Message   string
	Retryable bool
	wrapped   error
}

func (e *DomainError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.wrapped)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.wrapped }

// Is matches any DomainError carrying the same code, so
// errors.Is(err, ErrNotFound) works for constructed errors.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if !errors.As(target, &de) {
		return false
	}
	return de.Code == e.Code
}

// Sentinel errors, one per code.
var (
	ErrValidation    = &DomainError{Code: CodeValidation, Message: "validation failed"}
	ErrNotFound      = &DomainError{Code: CodeNotFound, Message: "not found"}
	ErrStateConflict = &DomainError{Code: CodeStateConflict, Message: "state conflict"}
	ErrRender        = &DomainError{Code: CodeRender, Message: "render failed"}
	ErrPersistence   = &DomainError{Code: CodePersistence, Message: "persistence failure", Retryable: true}
)

// NewValidationError returns a validation failure with a caller message.
func NewValidationError(format string, args ...any) error {
	return &DomainError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NewNotFoundError returns a not-found failure for the named entity.
func NewNotFoundError(entity, id string) error {
	return &DomainError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// NewStateConflictError returns a disallowed-transition failure.
func NewStateConflictError(format string, args ...any) error {
	return &DomainError{Code: CodeStateConflict, Message: fmt.Sprintf(format, args...)}
}

// NewPersistenceError wraps a storage failure. Persistence errors are
// retryable by the caller with backoff.
func NewPersistenceError(op string, err error) error {
	return &DomainError{
		Code:      CodePersistence,
		Message:   fmt.Sprintf("persistence: %s", op),
		Retryable: true,
		wrapped:   err,
	}
}

// IsRetryable reports whether the error is a retryable domain error.
func IsRetryable(err error) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Retryable
	}
	return false
}

// CodeOf extracts the stable numeric code from err, or CodeInternal for
// unexpected failures so internals never leak to callers.
func CodeOf(err error) int {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
