package common

import (
	"strings"

	"github.com/google/uuid"
)

// NewJobID generates a unique opaque job identifier.
// Format: 32 lowercase hex characters.
func NewJobID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
