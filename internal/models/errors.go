package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConflict means a single-document transaction lost a race. The caller
	// retries with identical input.
	ErrConflict = errors.New("document conflict")

	// ErrInvalidGameRecord rejects a record before it reaches the engine.
	ErrInvalidGameRecord = errors.New("invalid game record")

	// ErrInvalidInput covers every rejected request payload.
	ErrInvalidInput = errors.New("invalid input")

	ErrNotFound = errors.New("not found")
)

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid game record: %s", strings.Join(e.Fields, ", "))
}

// Is makes errors.Is match ErrInvalidGameRecord and ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidGameRecord || target == ErrInvalidInput
}
