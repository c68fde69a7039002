package security

import (
	"context"
	"sync"
	"time"

	"github.com/orgsec/cleargate/policy"
	"github.com/orgsec/cleargate/store"
)

// PolicyCache is a read-mostly cache of active policies keyed by
// organization. It is an explicit object owned by the middleware rather
// than package-level state, with explicit Invalidate and Refresh
// operations. Safe for concurrent use.
type PolicyCache struct {
	mu      sync.RWMutex
	entries map[string]policyCacheEntry

	policies store.SecurityPolicyStore
	ttl      time.Duration
	clock    policy.Clock
}

type policyCacheEntry struct {
	policies  []policy.SecurityPolicy
	fetchedAt time.Time
}

// NewPolicyCache creates a cache over the given policy store. A zero ttl
// disables caching and every lookup hits the store.
func NewPolicyCache(policies store.SecurityPolicyStore, ttl time.Duration) *PolicyCache {
	return &PolicyCache{
		entries:  make(map[string]policyCacheEntry),
		policies: policies,
		ttl:      ttl,
		clock:    policy.SystemClock{},
	}
}

// WithClock pins the cache clock; used by tests
func (c *PolicyCache) WithClock(clock policy.Clock) *PolicyCache {
	c.clock = clock
	return c
}

// ActivePolicies returns the active policies for an organization, reading
// through to the store when the cached entry is missing or stale
func (c *PolicyCache) ActivePolicies(ctx context.Context, orgID string) ([]policy.SecurityPolicy, error) {
	if c.ttl > 0 {
		c.mu.RLock()
		entry, ok := c.entries[orgID]
		c.mu.RUnlock()
		if ok && c.clock.Now().Sub(entry.fetchedAt) < c.ttl {
			return entry.policies, nil
		}
	}
	return c.fetch(ctx, orgID)
}

// Refresh forces a reload of an organization's policies from the store
func (c *PolicyCache) Refresh(ctx context.Context, orgID string) error {
	_, err := c.fetch(ctx, orgID)
	return err
}

// Invalidate drops the cached entry for an organization so the next lookup
// reloads from the store
func (c *PolicyCache) Invalidate(orgID string) {
	c.mu.Lock()
	delete(c.entries, orgID)
	c.mu.Unlock()
}

func (c *PolicyCache) fetch(ctx context.Context, orgID string) ([]policy.SecurityPolicy, error) {
	policies, err := c.policies.ListActiveByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if c.ttl > 0 {
		c.mu.Lock()
		c.entries[orgID] = policyCacheEntry{policies: policies, fetchedAt: c.clock.Now()}
		c.mu.Unlock()
	}
	return policies, nil
}
