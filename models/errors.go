package models

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by every layer. Handlers translate them to
// HTTP statuses; the store wraps backend failures in ErrTransientStore
// so callers can tell "retry later" from "you asked for nonsense".
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrTransientStore     = errors.New("store unavailable")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
