package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Domain error constructors. Handlers map these straight onto the wire.

func Validation(err error) *Error {
	return New(http.StatusBadRequest, "validation_failed", err)
}

func Unauthorized(err error) *Error {
	return New(http.StatusUnauthorized, "unauthorized", err)
}

func UnknownActivityType(category, activityType string) *Error {
	return New(http.StatusBadRequest, "unknown_activity_type",
		fmt.Errorf("no emission factor for %s/%s", category, activityType))
}

func NotFound(what string) *Error {
	return New(http.StatusNotFound, "not_found", errors.New(what+" not found"))
}

func AnalysisUnavailable(err error) *Error {
	return New(http.StatusBadGateway, "analysis_unavailable", err)
}

// From extracts an *Error if err carries one; otherwise it wraps err as a
// 500 with the given fallback code.
func From(err error, fallbackCode string) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return New(http.StatusInternalServerError, fallbackCode, err)
}
