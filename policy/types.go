package policy

import "time"

// PolicyType identifies which rule family a SecurityPolicy carries
type PolicyType string

const (
	PolicyTypeIPWhitelist    PolicyType = "ip_whitelist"
	PolicyTypeMFARequired    PolicyType = "mfa_required"
	PolicyTypeSessionTimeout PolicyType = "session_timeout"
	PolicyTypePasswordPolicy PolicyType = "password_policy"
)

// SecurityPolicy is one policy record scoped to an organization. Multiple
// policies of the same type may coexist; the engine evaluates every active
// policy of a relevant type and denies if any one denies.
type SecurityPolicy struct {
	ID             string       `json:"id"`
	OrganizationID string       `json:"organization_id"`
	Name           string       `json:"name"`
	Description    string       `json:"description,omitempty"`
	Type           PolicyType   `json:"type"`
	Config         PolicyConfig `json:"config"`
	Active         bool         `json:"active"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// PolicyConfig holds the type-specific settings. Fields irrelevant to the
// declared policy type are ignored by the engine.
type PolicyConfig struct {
	// ip_whitelist
	AllowedIPs       []string `json:"allowed_ips,omitempty"`
	AllowedCountries []string `json:"allowed_countries,omitempty"`
	BlockVPN         bool     `json:"block_vpn,omitempty"`

	// mfa_required
	RequireMFA          bool     `json:"require_mfa,omitempty"`
	AllowedMFAMethods   []string `json:"allowed_mfa_methods,omitempty"`
	MFAGracePeriodHours int      `json:"mfa_grace_period_hours,omitempty"`

	// session_timeout
	IdleTimeoutMinutes    int `json:"idle_timeout_minutes,omitempty"`
	AbsoluteTimeoutHours  int `json:"absolute_timeout_hours,omitempty"`
	MaxConcurrentSessions int `json:"max_concurrent_sessions,omitempty"`

	// password_policy
	MinLength         int  `json:"min_length,omitempty"`
	RequireUppercase  bool `json:"require_uppercase,omitempty"`
	RequireLowercase  bool `json:"require_lowercase,omitempty"`
	RequireNumbers    bool `json:"require_numbers,omitempty"`
	RequireSymbols    bool `json:"require_symbols,omitempty"`
	PreventReuseCount int  `json:"prevent_reuse_count,omitempty"`
	MaxAgeDays        int  `json:"max_age_days,omitempty"`
}

// EventType classifies a SecurityEvent
type EventType string

const (
	EventTypeLoginAttempt       EventType = "login_attempt"
	EventTypeMFAChallenge       EventType = "mfa_challenge"
	EventTypeIPBlocked          EventType = "ip_blocked"
	EventTypePolicyViolation    EventType = "policy_violation"
	EventTypeSuspiciousActivity EventType = "suspicious_activity"
)

// Severity grades a SecurityEvent
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SecurityEvent is a write-once audit record produced as a side effect of
// policy evaluation. The engine constructs events; the calling context
// persists them.
type SecurityEvent struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id"`
	UserID         string         `json:"user_id,omitempty"`
	Type           EventType      `json:"type"`
	Severity       Severity       `json:"severity"`
	Description    string         `json:"description"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	IPAddress      string         `json:"ip_address,omitempty"`
	UserAgent      string         `json:"user_agent,omitempty"`
	Location       string         `json:"location,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// SessionContext carries the session timings the timeout check reads. It is
// owned by the surrounding authentication subsystem.
type SessionContext struct {
	SessionStart time.Time `json:"session_start"`
	LastActivity time.Time `json:"last_activity"`
}

// Clock abstracts time so tests can pin the evaluation instant
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now
type SystemClock struct{}

// Now returns the current wall-clock time in UTC
func (SystemClock) Now() time.Time { return time.Now().UTC() }
