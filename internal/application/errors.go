package application

import "errors"

// Flow-level failure taxonomy. Handlers map these onto HTTP statuses;
// anything else that escapes a flow is treated as internal and logged with
// full detail server-side.
var (
	ErrValidation            = errors.New("validation failed")
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailNotVerified      = errors.New("email not verified")
	ErrTokenInvalidOrExpired = errors.New("token invalid or expired")
	ErrAccountNotFound       = errors.New("account not found")
)
