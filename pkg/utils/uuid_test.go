package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewID(t *testing.T) {
	a, b := NewID(), NewRequestID()

	assert.True(t, IsValidID(a))
	assert.True(t, IsValidID(b))
	assert.NotEqual(t, a, b)
	assert.False(t, IsValidID("people.csv"))
}
