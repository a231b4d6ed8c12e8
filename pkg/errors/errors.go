// Package errors defines the error categories of a WebDex build and maps
// them to process exit codes.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrCrawlNotFound   = errors.New("crawl data not found")
	ErrInvalidCrawl    = errors.New("invalid crawl data")
	ErrOutput          = errors.New("output write failed")
	ErrSinkUnavailable = errors.New("publish sink unavailable")
	ErrCanceled        = errors.New("build canceled")
)

// Exit codes returned by the webdex command.
const (
	ExitOK       = 0
	ExitInternal = 1
	ExitConfig   = 2
	ExitInput    = 3
	ExitOutput   = 4
	ExitCanceled = 130
)

// AppError ties a sentinel category to the operation that failed.
type AppError struct {
	Err     error
	Op      string
	Message string
}

func (e *AppError) Error() string {
	msg := e.Err.Error()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, op string, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Op:      op,
		Message: message,
	}
}

func Newf(sentinel error, op string, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches a sentinel category to an underlying error while keeping
// both reachable through errors.Is.
func Wrap(sentinel error, op string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Err: fmt.Errorf("%w: %w", sentinel, err),
		Op:  op,
	}
}

// ExitCode maps an error returned by a build to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrCanceled):
		return ExitCanceled
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfig
	case errors.Is(err, ErrCrawlNotFound), errors.Is(err, ErrInvalidCrawl):
		return ExitInput
	case errors.Is(err, ErrOutput):
		return ExitOutput
	default:
		return ExitInternal
	}
}
