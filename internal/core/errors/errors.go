package errors

import (
	"errors"
	"fmt"
)

// CliError is the single error type surfaced to users. What is the short
// headline, Why the cause, Suggestion a next step and Context an optional
// detail such as the offending path.
type CliError struct {
	Code       ErrorCode
	What       string
	Why        string
	Suggestion string
	Context    string
	Err        error
}

func (e *CliError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.What, e.Why)
	if e.Context != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Context)
	}
	return msg
}

func (e *CliError) Unwrap() error {
	return e.Err
}

// Category reports which range the error code falls in.
func (e *CliError) Category() Category {
	return CategoryOf(e.Code)
}

// TypeName is the stable machine-readable name of the error code.
func (e *CliError) TypeName() string {
	return TypeName(e.Code)
}

// New builds a CliError with the default suggestion for code.
func New(code ErrorCode, what, why string) *CliError {
	return &CliError{
		Code:       code,
		What:       what,
		Why:        why,
		Suggestion: DefaultSuggestion(code),
	}
}

// WithContext returns a copy carrying ctx.
func (e *CliError) WithContext(ctx string) *CliError {
	cp := *e
	cp.Context = ctx
	return &cp
}

// WithSuggestion returns a copy with the suggestion replaced.
func (e *CliError) WithSuggestion(suggestion string) *CliError {
	cp := *e
	cp.Suggestion = suggestion
	return &cp
}

// WithCause returns a copy that unwraps to err.
func (e *CliError) WithCause(err error) *CliError {
	cp := *e
	cp.Err = err
	return &cp
}

// Classify returns the CliError carried by err. Anything else is wrapped as
// an unknown error so callers always work with the closed set of categories.
func Classify(err error) *CliError {
	if err == nil {
		return nil
	}
	var ce *CliError
	if errors.As(err, &ce) {
		return ce
	}
	return &CliError{
		Code:       CodeUnknown,
		What:       "Unexpected error",
		Why:        err.Error(),
		Suggestion: DefaultSuggestion(CodeUnknown),
		Err:        err,
	}
}

func IsCode(err error, code ErrorCode) bool {
	var ce *CliError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}
