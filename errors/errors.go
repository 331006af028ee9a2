// Package errors provides error handling for xsgen.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Assertion errors for internal invariant violations
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Internal invariant violation (aborts the current unit)
//	return errors.AssertionFailedf("param %q has both init override and no_init", name)
//
//	// Check errors
//	if errors.Is(err, errors.ErrNoTypemapEntry) {
//	    // handle missing typemap
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
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
	Is         = crdb.Is
	IsAny      = crdb.IsAny
	As         = crdb.As
	Unwrap     = crdb.Unwrap
	UnwrapOnce = crdb.UnwrapOnce
	UnwrapAll  = crdb.UnwrapAll
)

// Assertions. Use these for invariant violations that indicate a bug in
// xsgen itself rather than a problem with the input file. They abort the
// current run and carry a stack trace.
var (
	AssertionFailedf                 = crdb.AssertionFailedf
	HasAssertionFailure              = crdb.HasAssertionFailure
	NewAssertionErrorWithWrappedErrf = crdb.NewAssertionErrorWithWrappedErrf
)

// Common sentinel errors for use across xsgen.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrUnparseableParameter indicates a signature fragment that did not
	// match the parameter grammar
	ErrUnparseableParameter = New("unparseable parameter")

	// ErrDuplicateParameter indicates a parameter name declared twice in
	// one signature
	ErrDuplicateParameter = New("duplicate parameter")

	// ErrNoTypemapEntry indicates a C type with no typemap entry
	ErrNoTypemapEntry = New("no typemap entry")

	// ErrNoInputTemplate indicates an xstype tag with no input template
	ErrNoInputTemplate = New("no input template")

	// ErrNotSupported indicates a construct disabled by feature flags
	ErrNotSupported = New("construct not supported")
)

// IsTypemapError checks whether an error stems from a failed typemap or
// input-template lookup.
func IsTypemapError(err error) bool {
	return err != nil && IsAny(err, ErrNoTypemapEntry, ErrNoInputTemplate)
}

// WrapNoTypemap wraps an error as a missing-typemap error for a C type
func WrapNoTypemap(ctype string) error {
	return Wrapf(ErrNoTypemapEntry, "could not find a typemap for C type '%s'", ctype)
}

// WrapNoInputTemplate wraps an error as a missing-input-template error for
// an xstype tag
func WrapNoInputTemplate(xstype string) error {
	return Wrapf(ErrNoInputTemplate, "no INPUT definition for type '%s'", xstype)
}
