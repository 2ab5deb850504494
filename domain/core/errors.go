package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors - rejected at construction
	ErrInvalidSpec      = errors.New("invalid specification")
	ErrInvalidDie       = fmt.Errorf("%w: die", ErrInvalidSpec)
	ErrInvalidPool      = fmt.Errorf("%w: pool", ErrInvalidSpec)
	ErrInvalidExplosion = fmt.Errorf("%w: explosion depth", ErrInvalidSpec)

	// Invariant violations - programming-error signals, abort loudly
	ErrWeightOverflow       = errors.New("exclusive branch weights exceed unit mass")
	ErrMassInvariant        = errors.New("convolution mass invariant violated")
	ErrSplitInvariant       = errors.New("first-success split does not cover unit mass")
	ErrSubsetExceedsSuccess = errors.New("subset probability exceeds success probability")

	// Provenance errors
	ErrNoProvenance = errors.New("per-event provenance no longer available")
)

// NewSpecError builds a construction-time configuration error.
func NewSpecError(sentinel error, detail string) error {
	return fmt.Errorf("%w: %s", sentinel, detail)
}

// NewInvariantError attaches the offending construction's signature so that
// callers can surface which sub-expression violated the invariant.
func NewInvariantError(sentinel error, sig Signature, detail string) error {
	return fmt.Errorf("%w [%s]: %s", sentinel, sig, detail)
}

// IsSpecError reports whether err is a construction-time configuration error.
func IsSpecError(err error) bool {
	return errors.Is(err, ErrInvalidSpec)
}

// IsInvariantError reports whether err signals a violated numeric invariant.
func IsInvariantError(err error) bool {
	return errors.Is(err, ErrWeightOverflow) ||
		errors.Is(err, ErrMassInvariant) ||
		errors.Is(err, ErrSplitInvariant) ||
		errors.Is(err, ErrSubsetExceedsSuccess)
}
