package core

import (
	"errors"
	"strings"
)

// ErrNotFound is returned by operations that require an existing record.
// Plain reads report absence as a nil record instead.
var ErrNotFound = errors.New("memory not found")

// ValidationError lists the constraints a record violated. The write is
// never attempted when validation fails.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid memory: " + strings.Join(e.Violations, ", ")
}
