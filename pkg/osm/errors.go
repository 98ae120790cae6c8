package osm

import (
	"errors"
	"fmt"
)

// Status is the outcome class of a parse or of a single element.
type Status int

const (
	StatusOK Status = iota
	StatusNotFound
	StatusIO
	StatusFormat
	StatusOutOfMemory
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not_found"
	case StatusIO:
		return "io"
	case StatusFormat:
		return "format"
	case StatusOutOfMemory:
		return "out_of_memory"
	default:
		return "unknown"
	}
}

// Message returns a human-readable description of the status.
func (s Status) Message() string {
	switch s {
	case StatusOK:
		return "No error here, success!"
	case StatusNotFound:
		return "File not found"
	case StatusIO:
		return "IO error"
	case StatusFormat:
		return "OSM format error"
	case StatusOutOfMemory:
		return "Capacity exceeded"
	default:
		return "Unknown error code"
	}
}

// Sentinel errors, one per status class.
var (
	ErrNotFound = errors.New("source not found")
	ErrIO       = errors.New("i/o failure")
	ErrFormat   = errors.New("format error")
	ErrCapacity = errors.New("capacity exceeded")
)

// Element-level format errors.
var (
	ErrDuplicateID   = fmt.Errorf("duplicate id: %w", ErrFormat)
	ErrDanglingRef   = fmt.Errorf("reference to unknown node: %w", ErrFormat)
	ErrMisplaced     = fmt.Errorf("element in wrong context: %w", ErrFormat)
	ErrMissingAttr   = fmt.Errorf("missing attribute: %w", ErrFormat)
	ErrInvalidAttr   = fmt.Errorf("invalid attribute: %w", ErrFormat)
	ErrMalformedTag  = fmt.Errorf("malformed tag: %w", ErrFormat)
	ErrUnterminated  = fmt.Errorf("unterminated element: %w", ErrFormat)
	ErrOffProjection = fmt.Errorf("coordinates outside projection: %w", ErrFormat)
	ErrLineTooLong   = fmt.Errorf("line too long: %w", ErrFormat)
)

// StatusOf maps an error to its status class. nil maps to StatusOK;
// errors outside the taxonomy, including context cancellation, map to
// StatusIO since they stop further reading.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrNotFound):
		return StatusNotFound
	case errors.Is(err, ErrCapacity):
		return StatusOutOfMemory
	case errors.Is(err, ErrFormat):
		return StatusFormat
	default:
		return StatusIO
	}
}

// ElementError describes a problem with one element of the input. The
// element is dropped and parsing continues.
type ElementError struct {
	Line    int    // 1-based physical line where the problem was detected
	Element string // element name, e.g. "node", "way", "nd"
	ID      ID     // element id when known, otherwise 0
	Err     error  // wraps one of the sentinel errors
}

// Error implements the error interface
func (e *ElementError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("line %d: %s %d: %v", e.Line, e.Element, e.ID, e.Err)
	}
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Element, e.Err)
}

// Unwrap returns the underlying error
func (e *ElementError) Unwrap() error {
	return e.Err
}

// Status returns the status class of the error.
func (e *ElementError) Status() Status {
	return StatusOf(e.Err)
}

// DiagnosticSink receives element-level errors as they are found.
type DiagnosticSink interface {
	Report(err *ElementError)
}

// SinkFunc adapts a function to DiagnosticSink.
type SinkFunc func(err *ElementError)

// Report calls f(err).
func (f SinkFunc) Report(err *ElementError) { f(err) }

// Collector is a DiagnosticSink that keeps every error it receives.
type Collector struct {
	Errors []*ElementError
}

// Report appends err.
func (c *Collector) Report(err *ElementError) {
	c.Errors = append(c.Errors, err)
}

// Len returns the number of collected errors.
func (c *Collector) Len() int {
	return len(c.Errors)
}
