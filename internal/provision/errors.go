package provision

import (
	"errors"
	"fmt"
	"strings"

	"github.com/edvin/agentdesk/internal/model"
)

// Error is a terminal provisioning failure of a given kind.
type Error struct {
	Kind    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// ValidationError lists every missing or invalid request field.
type ValidationError struct {
	Fields []model.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + " " + f.Reason
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// KindOf returns the error kind of a provisioning error, or "" if err is not one.
func KindOf(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return model.ErrorKindValidation
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ""
}
