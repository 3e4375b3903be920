// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Data errors.
	ErrNotFound     = errors.New("not found")
	ErrEmptyResult  = errors.New("stage produced zero rows")
	ErrNoInvoices   = errors.New("no invoices to process")
	ErrNotTabular   = errors.New("input has no recognizable tabular structure")
	ErrDuplicateRow = errors.New("duplicate entry")

	// Model errors.
	ErrModelUnavailable = errors.New("no trained model available")
	ErrSchemaEmpty      = errors.New("feature schema is empty")
	ErrTrainingFailed   = errors.New("model training failed")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
