package core

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Source errors
	ErrSourceUnreadable  = errors.New("source unreadable")
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported format", ErrSourceUnreadable)

	// Validation errors
	ErrRowRejected   = errors.New("row rejected")
	ErrHeaderMissing = errors.New("required header missing")

	// Store errors
	ErrStoreTransient  = errors.New("transient store fault")
	ErrStoreStructural = errors.New("structural store fault")

	// Run errors
	ErrRetriesExhausted = errors.New("retries exhausted")
	ErrRunAborted       = errors.New("run aborted")
)

// Error constructors with context
func NewSourceError(path string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, path, err)
}

func NewHeaderError(sheet string, columns []string) error {
	return fmt.Errorf("%w: sheet %s is missing %v", ErrHeaderMissing, sheet, columns)
}

func NewExhaustionError(table string, attempts int, err error) error {
	return fmt.Errorf("%w: batch for %s failed after %d attempts: %v", ErrRetriesExhausted, table, attempts, err)
}

// Error checking helpers
func IsSourceError(err error) bool {
	return errors.Is(err, ErrSourceUnreadable)
}

func IsRejectError(err error) bool {
	return errors.Is(err, ErrRowRejected)
}

func IsTransientError(err error) bool {
	return errors.Is(err, ErrStoreTransient)
}

func IsStructuralError(err error) bool {
	return errors.Is(err, ErrStoreStructural)
}

func IsFatalError(err error) bool {
	return errors.Is(err, ErrRetriesExhausted) ||
		errors.Is(err, ErrRunAborted) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
