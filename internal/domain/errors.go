package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrIncompleteBooking  = errors.New("incomplete booking")
	ErrLookupNotFound     = errors.New("no booking found")
	ErrPaymentFailed      = errors.New("payment failed")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrSessionNotFound    = errors.New("session not found")
	ErrFlightNotFound     = errors.New("flight not found")
)

// ValidationError carries one message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
