package services

import (
	"errors"

	"energynexus/internal/utils"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrConflict             = errors.New("user already exists with this email or phone number")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrVerificationRequired = errors.New("account not verified")
	ErrNotFound             = errors.New("user not found")
	ErrInvalidOrExpired     = errors.New("invalid or expired OTP")
	ErrAlreadyVerified      = errors.New("user already verified")
	ErrUnauthorized         = errors.New("invalid token")
	ErrTooManyRequests      = errors.New("too many OTP requests; please try again later")
	ErrWrongPassword        = errors.New("current password is incorrect")
	ErrInternal             = errors.New("internal server error")
)

// ValidationError carries per-field details and matches ErrValidation.
type ValidationError struct {
	Message string
	Details []utils.FieldError
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return ErrValidation.Error()
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func validationFailed(details []utils.FieldError) error {
	return &ValidationError{Message: "Validation failed", Details: details}
}

func invalidInput(msg string) error {
	return &ValidationError{Message: msg}
}

// VerificationRequiredError tells the client which account still needs its
// OTP confirmed.
type VerificationRequiredError struct {
	UserID string
}

func (e *VerificationRequiredError) Error() string { return ErrVerificationRequired.Error() }

func (e *VerificationRequiredError) Unwrap() error { return ErrVerificationRequired }
