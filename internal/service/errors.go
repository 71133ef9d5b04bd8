package service

import "errors"

// Operation-boundary error taxonomy. Handlers map these to HTTP codes;
// anything else coming out of the service layer is a server fault whose
// detail stays in the logs.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrConflict           = errors.New("email already registered")
	ErrNotFound           = errors.New("user not found")
	ErrConfig             = errors.New("service misconfigured")
)
