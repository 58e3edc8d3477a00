package tle

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord marks a single line pair that failed field extraction
	// or epoch matching. It is recoverable: the pair is skipped.
	ErrMalformedRecord = errors.New("malformed TLE record")

	// ErrNoRecordsFound is returned when an input yields no usable record.
	ErrNoRecordsFound = errors.New("no TLE records found")
)

// RecordError describes why one line pair could not be decoded.
type RecordError struct {
	LineNumber int
	Field      string
	Line       string
	Err        error
}

func (e *RecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: field %s: %v", e.LineNumber, e.Field, e.Err)
	}
	return fmt.Sprintf("line %d: field %s", e.LineNumber, e.Field)
}

// Unwrap exposes both ErrMalformedRecord and the underlying cause.
func (e *RecordError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedRecord}
	}
	return []error{ErrMalformedRecord, e.Err}
}
