// Package apperr defines the error kinds surfaced by pocket operations.
package apperr

import "errors"

var (
	// ErrAlreadyExists reports an insert whose id is already stored.
	ErrAlreadyExists = errors.New("already exists")
	// ErrFileNotFound reports an add-file path that is not an existing regular file.
	ErrFileNotFound = errors.New("file not found")
	// ErrInvalidInput reports a command that failed validation.
	ErrInvalidInput = errors.New("invalid input")
)
