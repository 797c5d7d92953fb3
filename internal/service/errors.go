// Package service holds the storefront use cases the bot handlers call:
// access checks, catalog browsing and search, bids and orders.
package service

import "fmt"

// ErrorCode classifies use case failures for handlers and logs.
type ErrorCode string

const (
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	ErrorNotFound     ErrorCode = "NOT_FOUND"
	ErrorInternal     ErrorCode = "INTERNAL_ERROR"
)

// Error is returned by services with a code the router reports as err_code.
type Error struct {
	Kind   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("service: %s (%s)", e.Kind, e.Reason)
	}
	return fmt.Sprintf("service: %s (%s): %v", e.Kind, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Code implements the router's error coder.
func (e *Error) Code() string {
	if e == nil {
		return ""
	}
	return string(e.Kind)
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Kind: code, Reason: reason, Err: err}
}
