package security

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML duration strings
// such as "30s" or "5m"
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Settings configures the security middleware: which paths it skips, where
// it redirects denied requests, how tenant context is resolved, and the
// policy cache lifetime.
type Settings struct {
	// ExcludedPathPrefixes are request paths the middleware skips entirely
	ExcludedPathPrefixes []string `yaml:"excluded_path_prefixes"`
	// MFASetupPathPrefixes are paths exempt from the MFA redirect so a user
	// enrolling a factor is not bounced in a loop
	MFASetupPathPrefixes []string `yaml:"mfa_setup_path_prefixes"`

	// Redirect targets for denied requests; a reason query parameter is
	// appended
	IPBlockedPage      string `yaml:"ip_blocked_page"`
	MFARequiredPage    string `yaml:"mfa_required_page"`
	SessionExpiredPage string `yaml:"session_expired_page"`
	ReauthPage         string `yaml:"reauth_page"`

	// Organization context resolution
	OrganizationHeader string `yaml:"organization_header"`
	OrganizationCookie string `yaml:"organization_cookie"`

	// PolicyCacheTTL bounds how stale cached policies may be
	PolicyCacheTTL Duration `yaml:"policy_cache_ttl"`

	// FailClosed flips the infrastructure-error default from allow to deny.
	// The shipped default is fail-open: availability over strictness.
	FailClosed bool `yaml:"fail_closed"`
}

// DefaultSettings returns the settings used when no configuration file is
// supplied
func DefaultSettings() Settings {
	return Settings{
		ExcludedPathPrefixes: []string{"/auth/", "/health", "/metrics", "/static/"},
		MFASetupPathPrefixes: []string{"/settings/mfa"},
		IPBlockedPage:        "/security/blocked",
		MFARequiredPage:      "/settings/mfa",
		SessionExpiredPage:   "/auth/login",
		ReauthPage:           "/auth/login",
		OrganizationHeader:   "X-Organization-ID",
		OrganizationCookie:   "org_id",
		PolicyCacheTTL:       Duration(time.Minute),
	}
}

// LoadSettings reads settings from a YAML file and applies environment
// overrides on top. A missing path yields the defaults.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- path comes from deployment config
		if err != nil {
			return settings, fmt.Errorf("failed to read security settings: %w", err)
		}
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return settings, fmt.Errorf("failed to parse security settings: %w", err)
		}
	}

	applyEnvOverrides(&settings)
	return settings, nil
}

func applyEnvOverrides(s *Settings) {
	overrides := map[string]*string{
		"CLEARGATE_IP_BLOCKED_PAGE":      &s.IPBlockedPage,
		"CLEARGATE_MFA_REQUIRED_PAGE":    &s.MFARequiredPage,
		"CLEARGATE_SESSION_EXPIRED_PAGE": &s.SessionExpiredPage,
		"CLEARGATE_REAUTH_PAGE":          &s.ReauthPage,
		"CLEARGATE_ORG_HEADER":           &s.OrganizationHeader,
		"CLEARGATE_ORG_COOKIE":           &s.OrganizationCookie,
	}
	for key, target := range overrides {
		if value := os.Getenv(key); value != "" {
			*target = value
		}
	}
	if value := os.Getenv("CLEARGATE_FAIL_CLOSED"); value == "true" || value == "1" {
		s.FailClosed = true
	}
}
