package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrNotFound               = errors.New("resource not found")
	ErrForbidden              = errors.New("acting party does not own this resource")
	ErrFeatureDisabled        = errors.New("installment financing is disabled")
	ErrValueOutOfRange        = errors.New("requested value is out of the allowed range")
	ErrDurationOutOfRange     = errors.New("requested duration is out of the allowed range")
	ErrNotAllowedForSuppliers = errors.New("request is not allowed to be forwarded to suppliers")
	ErrInvalidTransition      = errors.New("invalid status transition")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeRequestNotFound        = "REQUEST_NOT_FOUND"
	ErrCodeOfferNotFound          = "OFFER_NOT_FOUND"
	ErrCodeSettingsNotFound       = "SETTINGS_NOT_FOUND"
	ErrCodeForbidden              = "FORBIDDEN"
	ErrCodeFeatureDisabled        = "FEATURE_DISABLED"
	ErrCodeValueOutOfRange        = "VALUE_OUT_OF_RANGE"
	ErrCodeDurationOutOfRange     = "DURATION_OUT_OF_RANGE"
	ErrCodeNotAllowedForSuppliers = "NOT_ALLOWED_FOR_SUPPLIERS"
	ErrCodeInvalidTransition      = "INVALID_TRANSITION"
	ErrCodeDatabaseError          = "DATABASE_ERROR"
)

// Wrap common errors with business context
func WrapRequestNotFound(requestID string) *BusinessError {
	return NewBusinessError(
		ErrCodeRequestNotFound,
		fmt.Sprintf("installment request %s not found", requestID),
		ErrNotFound,
	)
}

func WrapOfferNotFound(offerID string) *BusinessError {
	return NewBusinessError(
		ErrCodeOfferNotFound,
		fmt.Sprintf("installment offer %s not found", offerID),
		ErrNotFound,
	)
}

func WrapSettingsNotFound() *BusinessError {
	return NewBusinessError(
		ErrCodeSettingsNotFound,
		"installment settings record not found",
		ErrNotFound,
	)
}

func WrapForbidden(action string) *BusinessError {
	return NewBusinessError(
		ErrCodeForbidden,
		fmt.Sprintf("acting party may not %s", action),
		ErrForbidden,
	)
}

func WrapFeatureDisabled() *BusinessError {
	return NewBusinessError(
		ErrCodeFeatureDisabled,
		"installment financing is currently disabled",
		ErrFeatureDisabled,
	)
}

func WrapValueOutOfRange(value, min, max string) *BusinessError {
	return NewBusinessError(
		ErrCodeValueOutOfRange,
		fmt.Sprintf("requested value %s is outside the allowed range [%s, %s]", value, min, max),
		ErrValueOutOfRange,
	)
}

func WrapDurationOutOfRange(months, min, max int) *BusinessError {
	return NewBusinessError(
		ErrCodeDurationOutOfRange,
		fmt.Sprintf("requested duration of %d months is outside the allowed range [%d, %d]", months, min, max),
		ErrDurationOutOfRange,
	)
}

func WrapNotAllowedForSuppliers(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotAllowedForSuppliers,
		reason,
		ErrNotAllowedForSuppliers,
	)
}

// WrapInvalidTransition names both the current and the requested status
// so callers can diagnose which state-machine rule was violated.
func WrapInvalidTransition(current, requested string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidTransition,
		fmt.Sprintf("cannot transition from %s to %s", current, requested),
		ErrInvalidTransition,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}
