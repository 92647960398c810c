package query

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed indicates query text that cannot be decomposed into groups
	// and evaluations.
	ErrMalformed = errors.New("malformed query")
	// ErrInvalidComparator indicates a comparator outside the supported set.
	ErrInvalidComparator = errors.New("invalid comparator")
)

// SyntaxError describes a fragment of query text that could not be parsed.
type SyntaxError struct {
	Fragment string
	Reason   string
}

func (e *SyntaxError) Error() string {
	if e.Fragment == "" {
		return fmt.Sprintf("malformed query: %s", e.Reason)
	}
	return fmt.Sprintf("malformed query: %s in %q", e.Reason, e.Fragment)
}

// Unwrap lets errors.Is match ErrMalformed.
func (e *SyntaxError) Unwrap() error { return ErrMalformed }

// ComparatorError reports an unknown comparator token.
type ComparatorError struct {
	Comparator string
}

func (e *ComparatorError) Error() string {
	return fmt.Sprintf("invalid comparator %q (expected one of = != . > >= < <= sw)", e.Comparator)
}

// Unwrap lets errors.Is match ErrInvalidComparator.
func (e *ComparatorError) Unwrap() error { return ErrInvalidComparator }
