package importer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEncoding    = errors.New("no candidate encoding could decode the punch log")
	ErrEmptyResult = errors.New("punch log contains no valid punch records")
)

// EncodingError is returned when every candidate encoding failed to decode the payload.
type EncodingError struct {
	Candidates []string
	Causes     []error
}

func (e *EncodingError) Error() string {
	parts := make([]string, 0, len(e.Causes))
	for i, cause := range e.Causes {
		name := ""
		if i < len(e.Candidates) {
			name = e.Candidates[i]
		}
		parts = append(parts, fmt.Sprintf("%s: %v", name, cause))
	}
	if len(parts) == 0 {
		return ErrEncoding.Error()
	}
	return fmt.Sprintf("%s (%s)", ErrEncoding.Error(), strings.Join(parts, "; "))
}

func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}

// EmptyResultError is returned when parsing succeeded but no line produced a record.
type EmptyResultError struct {
	LinesRead int
	Malformed int
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%s (lines read: %d, malformed: %d)", ErrEmptyResult.Error(), e.LinesRead, e.Malformed)
}

func (e *EmptyResultError) Is(target error) bool {
	return target == ErrEmptyResult
}

// MalformedLineError describes one dropped line. It is collected, never returned as fatal.
type MalformedLineError struct {
	Line   int
	Reason string
	Err    error
}

func (e *MalformedLineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Reason, e.Err)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

func (e *MalformedLineError) Unwrap() error {
	return e.Err
}
