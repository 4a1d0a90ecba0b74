package domain

import "errors"

var (
	// repository errors
	ErrNotFound   = errors.New("not found")
	ErrEmailTaken = errors.New("email already registered")

	// service errors
	ErrValidation         = errors.New("validation failed")
	ErrInviteInvalid      = errors.New("invalid or already used invite code")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
)

// ValidationError carries a message that is safe to return to the caller.
// It matches ErrValidation under errors.Is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid returns a ValidationError with msg
func Invalid(msg string) error {
	return &ValidationError{Message: msg}
}
