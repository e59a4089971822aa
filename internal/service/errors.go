package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"bookapi/internal/repository"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("book not found")
	ErrStore      = errors.New("record store failure")

	// Causes carried by a ValidationError for image problems.
	ErrImageTooLarge    = errors.New("cover image too large")
	ErrUnsupportedImage = errors.New("cover image must be JPEG or PNG")
)

// ValidationError lists the offending input fields and a message for each.
// It matches ErrValidation, and its cause when one is set.
type ValidationError struct {
	Fields map[string]string
	cause  error
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error {
	if e.cause != nil {
		return []error{ErrValidation, e.cause}
	}
	return []error{ErrValidation}
}

// storeError maps a repository failure onto the service taxonomy.
func storeError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}
