package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to callers. Store errors are always wrapped
// behind one of these; callers never see raw driver errors.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeDistanceOutOfRange  = "DISTANCE_OUT_OF_RANGE"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeAlreadyAssigned     = "ALREADY_ASSIGNED"
	CodeNonCancellableState = "NON_CANCELLABLE_STATE"
	CodePromoIneligible     = "PROMO_INELIGIBLE"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeNotFound            = "NOT_FOUND"
	CodeInternal            = "INTERNAL_ERROR"
)

// AppError is the typed error returned by core services.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Reason     string `json:"reason,omitempty"` // machine-readable detail, e.g. promo ineligibility reason
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// AsAppError extracts an *AppError from an error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is an AppError with the given code
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message, HTTPStatus: http.StatusBadRequest}
}

// NewBadRequestError creates a generic bad-request error
func NewBadRequestError(message string, err error) *AppError {
	return &AppError{Code: CodeValidation, Message: message, HTTPStatus: http.StatusBadRequest, Err: err}
}

// NewDistanceOutOfRangeError creates an error for trips outside a vehicle's allowed range
func NewDistanceOutOfRangeError(distanceKm, minKm, maxKm float64) *AppError {
	return &AppError{
		Code:       CodeDistanceOutOfRange,
		Message:    fmt.Sprintf("distance %.2f km is outside the allowed range [%.2f, %.2f]", distanceKm, minKm, maxKm),
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInvalidTransitionError creates an error for an illegal status transition
func NewInvalidTransitionError(from, to string) *AppError {
	return &AppError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("cannot transition booking from %s to %s", from, to),
		HTTPStatus: http.StatusConflict,
	}
}

// NewAlreadyAssignedError creates an error for a lost driver-assignment race
func NewAlreadyAssignedError() *AppError {
	return &AppError{
		Code:       CodeAlreadyAssigned,
		Message:    "booking has already been assigned to another driver",
		HTTPStatus: http.StatusConflict,
	}
}

// NewNonCancellableStateError creates an error for cancelling a booking whose
// goods are already in the driver's custody
func NewNonCancellableStateError(status string) *AppError {
	return &AppError{
		Code:       CodeNonCancellableState,
		Message:    fmt.Sprintf("booking in status %s can no longer be cancelled", status),
		HTTPStatus: http.StatusConflict,
	}
}

// NewPromoIneligibleError creates a promo ineligibility error with a reason code
func NewPromoIneligibleError(reason, message string) *AppError {
	return &AppError{
		Code:       CodePromoIneligible,
		Message:    message,
		Reason:     reason,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewConcurrencyConflictError creates an optimistic-lock failure error.
// Callers should retry the whole operation, not merge partial state.
func NewConcurrencyConflictError(err error) *AppError {
	return &AppError{
		Code:       CodeConcurrencyConflict,
		Message:    "booking was modified concurrently, retry the operation",
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(what string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", what),
		HTTPStatus: http.StatusNotFound,
	}
}

// NewInternalError creates an internal error wrapping a store/provider failure
func NewInternalError(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, HTTPStatus: http.StatusInternalServerError, Err: err}
}
