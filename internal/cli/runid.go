package cli

import "github.com/google/uuid"

// RunIDGenerator produces the identifier attached to a CLI run.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-ordered run IDs.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Format: "550e8400-e29b-41d4-a716-446655440000" (36 characters)
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
