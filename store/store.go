// Package store defines the persistence interfaces the security core
// depends on, plus GORM-backed and in-memory implementations. Every
// operation is scoped by organization and takes a context so callers can
// cancel in-flight persistence work.
package store

import (
	"context"
	"errors"

	"github.com/orgsec/cleargate/policy"
	"github.com/orgsec/cleargate/sso"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// SSOConfigurationStore persists identity-provider configurations.
// ActivateExclusively upholds the exclusive-active invariant: activating one
// configuration deactivates every sibling of the same organization in a
// single transaction.
type SSOConfigurationStore interface {
	ListByOrganization(ctx context.Context, orgID string) ([]sso.Configuration, error)
	ActiveByOrganization(ctx context.Context, orgID string) (*sso.Configuration, error)
	Get(ctx context.Context, id string) (*sso.Configuration, error)
	Create(ctx context.Context, cfg *sso.Configuration) error
	Update(ctx context.Context, cfg *sso.Configuration) error
	Delete(ctx context.Context, id string) error
	ActivateExclusively(ctx context.Context, orgID, id string) error
}

// SecurityPolicyStore persists security policy records
type SecurityPolicyStore interface {
	ListByOrganization(ctx context.Context, orgID string) ([]policy.SecurityPolicy, error)
	ListActiveByOrganization(ctx context.Context, orgID string) ([]policy.SecurityPolicy, error)
	Get(ctx context.Context, id string) (*policy.SecurityPolicy, error)
	Create(ctx context.Context, p *policy.SecurityPolicy) error
	Update(ctx context.Context, p *policy.SecurityPolicy) error
	Delete(ctx context.Context, id string) error
}

// SecurityEventStore persists write-once audit events. The table is
// append-only and safe for concurrent writers.
type SecurityEventStore interface {
	Create(ctx context.Context, event *policy.SecurityEvent) error
}

// SessionStore exposes the session state the security middleware reads.
// Session creation and cookie mechanics are owned by the surrounding
// authentication subsystem.
type SessionStore interface {
	Context(ctx context.Context, sessionID string) (*policy.SessionContext, error)
	Terminate(ctx context.Context, sessionID string) error
	CountActive(ctx context.Context, userID string) (int, error)
}
