// Package serrors provides coded errors used as the closed result set for
// request handling: callers match on the sentinel values with errors.Is and
// transports map Code to a protocol status.
package serrors

import "fmt"

type Base struct {
	Code    string
	Message string
	Details string
}

func NewError(code, message, details string) *Base {
	return &Base{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func (e *Base) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Details)
}

// WithDetails returns a copy carrying extra context. The copy wraps the
// original so errors.Is against the sentinel still matches.
func (e *Base) WithDetails(details string) error {
	return &withDetails{base: e, details: details}
}

type withDetails struct {
	base    *Base
	details string
}

func (e *withDetails) Error() string {
	return fmt.Sprintf("%s: %s", e.base.Message, e.details)
}

func (e *withDetails) Unwrap() error {
	return e.base
}
