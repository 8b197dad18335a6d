package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeInvalidFormat           = "INVALID_FORMAT"
	CodeInvalidDate             = "INVALID_DATE"
	CodeInvalidDuration         = "INVALID_DURATION"
	CodeDurationCrossesMidnight = "DURATION_CROSSES_MIDNIGHT"
	CodeOverlappingIntervals    = "OVERLAPPING_INTERVALS"
	CodeOutsideAvailability     = "OUTSIDE_AVAILABILITY"
	CodeSlotTaken               = "SLOT_TAKEN"
	CodeInvalidTransition       = "INVALID_TRANSITION"
	CodeUnauthenticated         = "UNAUTHENTICATED"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeNotFound                = "NOT_FOUND"
	CodeValidation              = "VALIDATION_ERROR"
	CodeInvalidInput            = "INVALID_INPUT"
	CodeStorageUnavailable      = "STORAGE_UNAVAILABLE"
	CodeTooManyRequests         = "TOO_MANY_REQUESTS"
	CodeTimeout                 = "TIMEOUT"
	CodeInternal                = "INTERNAL_ERROR"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Retryable  bool           `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(ErrorResponse{
		OK:      false,
		Error:   e.Code,
		Message: e.Message,
		Details: e.Details,
	})
	return data
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	OK      bool           `json:"ok"`
	Error   string         `json:"error"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

func InvalidFormat(message string) *AppError {
	return New(CodeInvalidFormat, message, http.StatusBadRequest)
}

func InvalidDate(message string) *AppError {
	return New(CodeInvalidDate, message, http.StatusBadRequest)
}

func InvalidDuration(message string) *AppError {
	return New(CodeInvalidDuration, message, http.StatusBadRequest)
}

func DurationCrossesMidnight(message string) *AppError {
	return New(CodeDurationCrossesMidnight, message, http.StatusBadRequest)
}

func OverlappingIntervals(message string) *AppError {
	return New(CodeOverlappingIntervals, message, http.StatusBadRequest)
}

func OutsideAvailability(message string) *AppError {
	return New(CodeOutsideAvailability, message, http.StatusBadRequest)
}

func SlotTaken(message string) *AppError {
	return New(CodeSlotTaken, message, http.StatusConflict)
}

func InvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("cannot move booking from %s to %s", from, to),
		HTTPStatus: http.StatusConflict,
		Details: map[string]any{
			"from": from,
			"to":   to,
		},
	}
}

func Unauthenticated(message string) *AppError {
	return New(CodeUnauthenticated, message, http.StatusUnauthorized)
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message, http.StatusForbidden)
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message, http.StatusBadRequest)
}

// StorageUnavailable marks a transient persistence failure. Callers may retry.
func StorageUnavailable(message string, err error) *AppError {
	return &AppError{
		Code:       CodeStorageUnavailable,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Retryable:  true,
		Err:        err,
	}
}

func TooManyRequests(message string) *AppError {
	return New(CodeTooManyRequests, message, http.StatusTooManyRequests)
}

func Timeout(message string) *AppError {
	return New(CodeTimeout, message, http.StatusGatewayTimeout)
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// HasCode reports whether err carries an AppError with the given code anywhere in its chain.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsRetryable(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Retryable
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
