package utils

import (
	"github.com/google/uuid"
)

// NewID returns a random (v4) UUID string.
func NewID() string {
	return uuid.NewString()
}

// NewRequestID returns an ID for an incoming request.
func NewRequestID() string {
	return NewID()
}

// IsValidID reports whether s parses as a UUID.
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
