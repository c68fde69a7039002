package store

import (
	"context"
	"sync"
	"time"

	"github.com/orgsec/cleargate/internal/uuidgen"
	"github.com/orgsec/cleargate/policy"
	"github.com/orgsec/cleargate/sso"
)

// MemorySSOConfigurationStore is an in-memory SSOConfigurationStore for
// tests and single-node deployments
type MemorySSOConfigurationStore struct {
	mu      sync.RWMutex
	configs map[string]sso.Configuration
}

// NewMemorySSOConfigurationStore creates an empty in-memory store
func NewMemorySSOConfigurationStore() *MemorySSOConfigurationStore {
	return &MemorySSOConfigurationStore{configs: make(map[string]sso.Configuration)}
}

func (s *MemorySSOConfigurationStore) ListByOrganization(_ context.Context, orgID string) ([]sso.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []sso.Configuration
	for _, cfg := range s.configs {
		if cfg.OrganizationID == orgID {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (s *MemorySSOConfigurationStore) ActiveByOrganization(_ context.Context, orgID string) (*sso.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, cfg := range s.configs {
		if cfg.OrganizationID == orgID && cfg.Active {
			out := cfg
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemorySSOConfigurationStore) Get(_ context.Context, id string) (*sso.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cfg
	return &out, nil
}

func (s *MemorySSOConfigurationStore) Create(_ context.Context, cfg *sso.Configuration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg.ID == "" {
		cfg.ID = uuidgen.MustNewForEntity(uuidgen.EntityTypeConfiguration).String()
	}
	now := time.Now().UTC()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now
	s.configs[cfg.ID] = *cfg
	return nil
}

func (s *MemorySSOConfigurationStore) Update(_ context.Context, cfg *sso.Configuration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.configs[cfg.ID]; !ok {
		return ErrNotFound
	}
	cfg.UpdatedAt = time.Now().UTC()
	s.configs[cfg.ID] = *cfg
	return nil
}

func (s *MemorySSOConfigurationStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.configs[id]; !ok {
		return ErrNotFound
	}
	delete(s.configs, id)
	return nil
}

func (s *MemorySSOConfigurationStore) ActivateExclusively(_ context.Context, orgID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.configs[id]
	if !ok || target.OrganizationID != orgID {
		return ErrNotFound
	}
	now := time.Now().UTC()
	for key, cfg := range s.configs {
		if cfg.OrganizationID != orgID {
			continue
		}
		cfg.Active = key == id
		cfg.UpdatedAt = now
		s.configs[key] = cfg
	}
	return nil
}

// MemorySecurityPolicyStore is an in-memory SecurityPolicyStore
type MemorySecurityPolicyStore struct {
	mu       sync.RWMutex
	policies map[string]policy.SecurityPolicy
}

// NewMemorySecurityPolicyStore creates an empty in-memory policy store
func NewMemorySecurityPolicyStore() *MemorySecurityPolicyStore {
	return &MemorySecurityPolicyStore{policies: make(map[string]policy.SecurityPolicy)}
}

func (s *MemorySecurityPolicyStore) ListByOrganization(_ context.Context, orgID string) ([]policy.SecurityPolicy, error) {
	return s.filter(func(p policy.SecurityPolicy) bool { return p.OrganizationID == orgID }), nil
}

func (s *MemorySecurityPolicyStore) ListActiveByOrganization(_ context.Context, orgID string) ([]policy.SecurityPolicy, error) {
	return s.filter(func(p policy.SecurityPolicy) bool { return p.OrganizationID == orgID && p.Active }), nil
}

func (s *MemorySecurityPolicyStore) filter(keep func(policy.SecurityPolicy) bool) []policy.SecurityPolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []policy.SecurityPolicy
	for _, p := range s.policies {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s *MemorySecurityPolicyStore) Get(_ context.Context, id string) (*policy.SecurityPolicy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := p
	return &out, nil
}

func (s *MemorySecurityPolicyStore) Create(_ context.Context, p *policy.SecurityPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuidgen.MustNewForEntity(uuidgen.EntityTypePolicy).String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.policies[p.ID] = *p
	return nil
}

func (s *MemorySecurityPolicyStore) Update(_ context.Context, p *policy.SecurityPolicy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[p.ID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	s.policies[p.ID] = *p
	return nil
}

func (s *MemorySecurityPolicyStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[id]; !ok {
		return ErrNotFound
	}
	delete(s.policies, id)
	return nil
}

// MemorySecurityEventStore is an in-memory append-only event store
type MemorySecurityEventStore struct {
	mu     sync.Mutex
	events []policy.SecurityEvent
}

// NewMemorySecurityEventStore creates an empty in-memory event store
func NewMemorySecurityEventStore() *MemorySecurityEventStore {
	return &MemorySecurityEventStore{}
}

func (s *MemorySecurityEventStore) Create(_ context.Context, event *policy.SecurityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if event.ID == "" {
		event.ID = uuidgen.MustNewForEntity(uuidgen.EntityTypeSecurityEvent).String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	s.events = append(s.events, *event)
	return nil
}

// Events returns a copy of everything recorded so far
func (s *MemorySecurityEventStore) Events() []policy.SecurityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]policy.SecurityEvent, len(s.events))
	copy(out, s.events)
	return out
}

// MemorySessionStore is an in-memory SessionStore
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
}

type memorySession struct {
	userID  string
	context policy.SessionContext
}

// NewMemorySessionStore creates an empty in-memory session store
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]memorySession)}
}

// Put registers or replaces a session
func (s *MemorySessionStore) Put(sessionID, userID string, sc policy.SessionContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = memorySession{userID: userID, context: sc}
}

func (s *MemorySessionStore) Context(_ context.Context, sessionID string) (*policy.SessionContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	out := session.context
	return &out, nil
}

func (s *MemorySessionStore) Terminate(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemorySessionStore) CountActive(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, session := range s.sessions {
		if session.userID == userID {
			count++
		}
	}
	return count, nil
}
