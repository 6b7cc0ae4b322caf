package core

import (
	"errors"
	"fmt"
)

// Feed-level and invariant errors abort the run. Row-level errors are
// wrapped in a RowError and only skip the offending row.
var (
	ErrHeaderTimestamp    = errors.New("invalid header timestamp")
	ErrFeedNotFound       = errors.New("feed file not found")
	ErrInvalidLayout      = errors.New("invalid feed layout")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrShortRow           = errors.New("row too short")
	ErrInvalidPrice       = errors.New("invalid price")
	ErrResolverInvariant  = errors.New("resolver invariant violated")
	ErrUnknownFuelType    = errors.New("unknown fuel type")
	ErrMissingPrice       = errors.New("missing price")
)

// RowError describes a data row rejected at the validation gate.
type RowError struct {
	Line    int    // 1-based line number in the feed
	Address string // address column, for traceability
	Reason  string
	Err     error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s (address %q)", e.Line, e.Reason, e.Address)
}

func (e *RowError) Unwrap() error { return e.Err }

// IsRowError reports whether err only invalidates a single row.
func IsRowError(err error) bool {
	var re *RowError
	return errors.As(err, &re)
}
