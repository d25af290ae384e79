package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound             = errors.New("domain: not found")
	ErrForbidden            = errors.New("domain: forbidden")
	ErrActionNotAllowed     = errors.New("domain: action not allowed for status")
	ErrConfirmationRequired = errors.New("domain: confirmation required")
)
