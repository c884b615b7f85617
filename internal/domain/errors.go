package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord indicates a required top-level record field is absent.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrDimensionMismatch indicates a vector whose length differs from the
	// dimension established by the first embedding.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrNotInitialized indicates a query was issued before any build completed.
	ErrNotInitialized = errors.New("index not initialized")
)

// MalformedRecordError names the missing required field.
type MalformedRecordError struct {
	Field string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record: missing required field %q", e.Field)
}

func (e *MalformedRecordError) Unwrap() error { return ErrMalformedRecord }

// DimensionMismatchError reports the committed and observed vector lengths.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: want %d, got %d", e.Want, e.Got)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }
