package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgsec/cleargate/policy"
	"github.com/orgsec/cleargate/sso"
)

func newConfig(orgID, name string, active bool) *sso.Configuration {
	return &sso.Configuration{
		OrganizationID: orgID,
		ProviderType:   sso.ProviderTypeSAML,
		ProviderName:   name,
		Metadata: sso.Metadata{
			EntityID: "https://idp.example.com/" + name,
			SSOURL:   "https://idp.example.com/" + name + "/sso",
		},
		Active: active,
	}
}

func TestMemorySSOConfigurationStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySSOConfigurationStore()

	cfg := newConfig("org-1", "okta", true)
	require.NoError(t, s.Create(ctx, cfg))
	assert.NotEmpty(t, cfg.ID, "create assigns an ID")
	assert.False(t, cfg.CreatedAt.IsZero())

	fetched, err := s.Get(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, "okta", fetched.ProviderName)

	fetched.ProviderName = "okta-renamed"
	require.NoError(t, s.Update(ctx, fetched))
	updated, err := s.Get(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, "okta-renamed", updated.ProviderName)

	require.NoError(t, s.Delete(ctx, cfg.ID))
	_, err = s.Get(ctx, cfg.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySSOConfigurationStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySSOConfigurationStore()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, &sso.Configuration{ID: "missing"}), ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "missing"), ErrNotFound)
	_, err = s.ActiveByOrganization(ctx, "org-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySSOConfigurationStoreActivateExclusively(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySSOConfigurationStore()

	first := newConfig("org-1", "okta", true)
	second := newConfig("org-1", "azure", false)
	other := newConfig("org-2", "ping", true)
	require.NoError(t, s.Create(ctx, first))
	require.NoError(t, s.Create(ctx, second))
	require.NoError(t, s.Create(ctx, other))

	require.NoError(t, s.ActivateExclusively(ctx, "org-1", second.ID))

	active, err := s.ActiveByOrganization(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	// The previously active sibling was deactivated
	all, err := s.ListByOrganization(ctx, "org-1")
	require.NoError(t, err)
	activeCount := 0
	for _, cfg := range all {
		if cfg.Active {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount, "at most one configuration per organization may be active")

	// Another organization's active configuration is untouched
	otherActive, err := s.ActiveByOrganization(ctx, "org-2")
	require.NoError(t, err)
	assert.Equal(t, other.ID, otherActive.ID)
}

func TestMemorySSOConfigurationStoreActivateExclusivelyWrongOrg(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySSOConfigurationStore()

	cfg := newConfig("org-1", "okta", false)
	require.NoError(t, s.Create(ctx, cfg))

	assert.ErrorIs(t, s.ActivateExclusively(ctx, "org-2", cfg.ID), ErrNotFound,
		"a configuration cannot be activated across organizations")
	assert.ErrorIs(t, s.ActivateExclusively(ctx, "org-1", "missing"), ErrNotFound)
}

func TestMemorySecurityPolicyStoreListActive(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySecurityPolicyStore()

	require.NoError(t, s.Create(ctx, &policy.SecurityPolicy{
		OrganizationID: "org-1",
		Name:           "active policy",
		Type:           policy.PolicyTypeIPWhitelist,
		Active:         true,
	}))
	require.NoError(t, s.Create(ctx, &policy.SecurityPolicy{
		OrganizationID: "org-1",
		Name:           "disabled policy",
		Type:           policy.PolicyTypeMFARequired,
		Active:         false,
	}))
	require.NoError(t, s.Create(ctx, &policy.SecurityPolicy{
		OrganizationID: "org-2",
		Name:           "other tenant",
		Type:           policy.PolicyTypeIPWhitelist,
		Active:         true,
	}))

	all, err := s.ListByOrganization(ctx, "org-1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := s.ListActiveByOrganization(ctx, "org-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "active policy", active[0].Name)
}

func TestMemorySecurityEventStoreAppend(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySecurityEventStore()

	event := &policy.SecurityEvent{
		OrganizationID: "org-1",
		Type:           policy.EventTypeIPBlocked,
		Severity:       policy.SeverityMedium,
		Description:    "blocked",
	}
	require.NoError(t, s.Create(ctx, event))
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())

	events := s.Events()
	require.Len(t, events, 1)

	// The returned slice is a copy
	events[0].Description = "mutated"
	assert.Equal(t, "blocked", s.Events()[0].Description)
}

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessionStore()

	now := time.Now().UTC()
	s.Put("sess-1", "user-1", policy.SessionContext{SessionStart: now, LastActivity: now})
	s.Put("sess-2", "user-1", policy.SessionContext{SessionStart: now, LastActivity: now})
	s.Put("sess-3", "user-2", policy.SessionContext{SessionStart: now, LastActivity: now})

	sc, err := s.Context(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, now, sc.SessionStart)

	count, err := s.CountActive(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, s.Terminate(ctx, "sess-1"))
	_, err = s.Context(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Terminate(ctx, "sess-1"), ErrNotFound)

	count, err = s.CountActive(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
