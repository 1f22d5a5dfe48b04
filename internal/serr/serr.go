// Package serr carries errors that know which HTTP status they map to.
package serr

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

type ServiceError struct {
	Err        error
	Msg        string
	StackTrace string
	StatusCode int
	Env        map[string]string
}

func NewServiceError(err error, statusCode int, msg string, args ...any) *ServiceError {
	return &ServiceError{
		Err:        err,
		Msg:        fmt.Sprintf(msg, args...),
		StatusCode: statusCode,
		StackTrace: string(debug.Stack()),
		Env:        make(map[string]string),
	}
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func Unauthorized(msg string, args ...any) *ServiceError {
	return NewServiceError(nil, http.StatusUnauthorized, msg, args...)
}

func Forbidden(msg string, args ...any) *ServiceError {
	return NewServiceError(nil, http.StatusForbidden, msg, args...)
}

func NotFound(msg string, args ...any) *ServiceError {
	return NewServiceError(nil, http.StatusNotFound, msg, args...)
}

func BadRequest(msg string, args ...any) *ServiceError {
	return NewServiceError(nil, http.StatusBadRequest, msg, args...)
}

// StatusCode returns the status carried by err, or 500 when err is not a
// ServiceError.
func StatusCode(err error) int {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return http.StatusInternalServerError
}
