package uuidgen

import (
	"fmt"

	"github.com/google/uuid"
)

// EntityType represents the different entity types in the system
type EntityType string

const (
	EntityTypeSecurityEvent EntityType = "security_event"
	EntityTypePolicy        EntityType = "policy"
	EntityTypeConfiguration EntityType = "configuration"
)

// NewForEntity generates a UUID appropriate for the given entity type.
// High-volume entities (security events) use UUIDv7 for better index
// locality. All other entities use UUIDv4 for compatibility and distribution.
func NewForEntity(entityType EntityType) (uuid.UUID, error) {
	switch entityType {
	case EntityTypeSecurityEvent:
		return uuid.NewV7()
	default:
		return uuid.NewRandom()
	}
}

// MustNewForEntity is like NewForEntity but panics on error.
// Should only be used in situations where UUID generation failure is unrecoverable.
func MustNewForEntity(entityType EntityType) uuid.UUID {
	id, err := NewForEntity(entityType)
	if err != nil {
		panic(fmt.Sprintf("failed to generate UUID for entity type %s: %v", entityType, err))
	}
	return id
}

// NewRequestID generates an identifier usable as a SAML protocol message ID.
// XML IDs must not start with a digit, so the UUID is hex-encoded behind a
// fixed prefix.
func NewRequestID() string {
	id := uuid.New()
	return fmt.Sprintf("id-%x", id[:])
}
