// Package apperror defines the coded errors the registration pipeline returns.
// Codes are strings so they serialize directly into API responses and batch reports.
package apperror

import (
	"errors"
	"fmt"
	"strings"

	"regportal/internal/model"
)

type Code string

const (
	// CodeValidation marks caller input that fails a precondition.
	CodeValidation Code = "VALIDATION"
	// CodeMissingDocuments is the validation failure of the completeness gate.
	CodeMissingDocuments Code = "MISSING_DOCUMENTS"
	// CodeInvalidTransition marks a status change outside the legal graph.
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	// CodeStaleState marks a lost optimistic-concurrency race.
	CodeStaleState Code = "STALE_STATE"
	// CodeRenderFailure marks a credential that could not be laid out or delivered.
	CodeRenderFailure Code = "RENDER_FAILURE"
	// CodePersistFailure marks a rendered credential whose status commit failed.
	CodePersistFailure Code = "PERSIST_FAILURE"
	CodeNotFound       Code = "NOT_FOUND"
	CodeUnauthorized   Code = "UNAUTHORIZED"
	CodeInternal       Code = "INTERNAL_ERROR"
)

// Error is a coded pipeline error. The status fields are set for
// INVALID_TRANSITION and STALE_STATE, Missing for MISSING_DOCUMENTS.
type Error struct {
	Code      Code
	Message   string
	Current   model.Status
	Requested model.Status
	Missing   []string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(CodeValidation, message)
}

func MissingDocuments(missing []string) *Error {
	return &Error{
		Code:    CodeMissingDocuments,
		Message: "required documents missing: " + strings.Join(missing, ", "),
		Missing: append([]string(nil), missing...),
	}
}

func InvalidTransition(from, to model.Status) *Error {
	return &Error{
		Code:      CodeInvalidTransition,
		Message:   fmt.Sprintf("cannot move from %s to %s", from, to),
		Current:   from,
		Requested: to,
	}
}

// StaleState reports that the stored status differs from what the caller observed.
func StaleState(observed, current model.Status) *Error {
	return &Error{
		Code:      CodeStaleState,
		Message:   fmt.Sprintf("request changed: expected %s, found %s", observed, current),
		Current:   current,
		Requested: observed,
	}
}

func RenderFailure(message string, err error) *Error {
	return Wrap(err, CodeRenderFailure, message)
}

func PersistFailure(err error) *Error {
	return Wrap(err, CodePersistFailure, "credential rendered but status commit failed")
}

func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

// CodeOf returns the code of the outermost *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsValidation reports whether err belongs to the validation class.
func IsValidation(err error) bool {
	c := CodeOf(err)
	return err != nil && (c == CodeValidation || c == CodeMissingDocuments)
}

// As extracts the outermost *Error from err.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
