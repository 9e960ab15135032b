// Package errors provides error handling for kgmap.
//
// It re-exports github.com/cockroachdb/errors so callers get stack traces,
// wrapping and user hints from one import:
//
//	if err := dec.Decode(&snap); err != nil {
//	    return errors.Wrapf(err, "failed to decode %s", path)
//	}
//
//	return errors.WithHint(err, "check the [graph] section of am.toml")
//
// Render diagnostics are not errors in this sense; see graph/error.
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New       = crdb.New
	Newf      = crdb.Newf
	Wrap      = crdb.Wrap
	Wrapf     = crdb.Wrapf
	WithStack = crdb.WithStack
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is            = crdb.Is
	IsAny         = crdb.IsAny
	As            = crdb.As
	Unwrap        = crdb.Unwrap
	UnwrapAll     = crdb.UnwrapAll
	GetAllHints   = crdb.GetAllHints
	GetAllDetails = crdb.GetAllDetails
	FlattenHints  = crdb.FlattenHints
)

// Common sentinel errors for use across kgmap.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrNotFound indicates a snapshot, diff or version does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates a malformed client message or HTTP request
	ErrInvalidRequest = New("invalid request")

	// ErrUnsupportedFormat indicates a file extension no decoder handles
	ErrUnsupportedFormat = New("unsupported format")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrapf(ErrNotFound, format, args...)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrapf(ErrInvalidRequest, format, args...)
}
