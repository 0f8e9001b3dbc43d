package auth

import (
	"errors"
	"fmt"
)

// Messages surfaced to clients. Credential failures share one message so
// a caller cannot tell an unknown email from a wrong password.
const (
	MessageInvalidCredentials = "Email or password is incorrect"
	MessageNotActivated       = "Account is not activated. Please check your email for the activation link."
	MessagePleaseLogin        = "Please login"
	MessageInvalidToken       = "Invalid JWT Token"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("email or password is incorrect")

	// ErrNotActivated is returned only after the password has matched.
	ErrNotActivated = errors.New("account is not activated")

	// ErrUnauthorized is returned by the request gate for every denial.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidToken is returned when a session token cannot be reissued.
	ErrInvalidToken = errors.New("invalid token")
)

// denied wraps ErrUnauthorized with the gate step that rejected the
// request. The reason is for logs only; clients always see MessagePleaseLogin.
func denied(reason string) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, reason)
}
