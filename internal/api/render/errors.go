package render

import (
	"errors"
	"fmt"
)

// ErrorCode classifies render failures for the transport layer.
type ErrorCode string

const (
	// CodeValidation marks requests the generators could not turn into a
	// document (unresolved references, rejected expressions).
	CodeValidation ErrorCode = "VALIDATION"
	// CodeNotReady marks requests that arrived before the engine finished
	// initializing, or after it was closed. Not retryable per request.
	CodeNotReady ErrorCode = "NOT_READY"
	// CodeTimeout marks renders whose completion signal never appeared
	// within the configured window.
	CodeTimeout ErrorCode = "TIMEOUT"
	// CodeRender marks failures signaled by the executing document itself.
	CodeRender ErrorCode = "RENDER_FAILED"
	// CodeResource marks page or browser allocation failures.
	CodeResource ErrorCode = "RESOURCE"
)

// RenderError is the single failure shape every renderer surfaces.
// Diagnostics captured from the executing document are attached to
// render and timeout failures, never swallowed.
type RenderError struct {
	Code        ErrorCode
	Message     string
	Details     string
	Diagnostics []string
	cause       error
}

func (slf *RenderError) Error() string {
	if slf.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", slf.Code, slf.Message, slf.Details)
	}
	return fmt.Sprintf("%s: %s", slf.Code, slf.Message)
}

func (slf *RenderError) Unwrap() error {
	return slf.cause
}

// AsRenderError unwraps err into a *RenderError when possible.
func AsRenderError(err error) (*RenderError, bool) {
	var re *RenderError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

func validationError(format string, args ...interface{}) *RenderError {
	return &RenderError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func notReadyError(message string, cause error) *RenderError {
	e := &RenderError{Code: CodeNotReady, Message: message, cause: cause}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

func timeoutError(tool string, diagnostics []string) *RenderError {
	return &RenderError{
		Code:        CodeTimeout,
		Message:     fmt.Sprintf("%s render did not complete within the configured timeout", tool),
		Diagnostics: diagnostics,
	}
}

func renderFailure(tool string, message string, details string, diagnostics []string) *RenderError {
	return &RenderError{
		Code:        CodeRender,
		Message:     fmt.Sprintf("%s render failed: %s", tool, message),
		Details:     details,
		Diagnostics: diagnostics,
	}
}

func resourceError(message string, cause error) *RenderError {
	e := &RenderError{Code: CodeResource, Message: message, cause: cause}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}
