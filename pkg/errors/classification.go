package errors

import (
	"context"
	"errors"
	"io"
	"net"
)

// Category buckets an error for handling purposes
type Category int

const (
	// Retriable errors are worth retrying with backoff
	Retriable Category = iota
	// Fatal errors require intervention and must not be retried
	Fatal
)

func (c Category) String() string {
	if c == Retriable {
		return "retriable"
	}
	return "fatal"
}

// ClassifiedError carries an explicit category through error wrapping
type ClassifiedError struct {
	Err      error
	Category Category
}

func (ce *ClassifiedError) Error() string {
	return ce.Err.Error()
}

func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// AsFatal marks an error as non-retriable
func AsFatal(err error) error {
	return &ClassifiedError{Err: err, Category: Fatal}
}

// AsRetriable marks an error as retriable
func AsRetriable(err error) error {
	return &ClassifiedError{Err: err, Category: Retriable}
}

// Classify categorizes an error. Explicit classifications win; context
// cancellation is fatal; I/O and network timeouts are retriable. Unknown
// errors default to retriable so transient sink failures survive the
// bounded retry budget.
func Classify(err error) Category {
	if err == nil {
		return Fatal
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Category
	}

	if errors.Is(err, context.Canceled) {
		return Fatal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Retriable
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return Retriable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return Retriable
	}

	return Retriable
}

// IsRetriable reports whether the error is worth retrying
func IsRetriable(err error) bool {
	return Classify(err) == Retriable
}
