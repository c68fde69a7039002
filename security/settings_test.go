package security

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	settings, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
	assert.False(t, settings.FailClosed, "the shipped default is fail-open")
}

func TestLoadSettingsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "security.yml")
	content := `
excluded_path_prefixes:
  - /public/
ip_blocked_page: /denied
organization_header: X-Tenant
policy_cache_ttl: 30s
fail_closed: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	settings, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/public/"}, settings.ExcludedPathPrefixes)
	assert.Equal(t, "/denied", settings.IPBlockedPage)
	assert.Equal(t, "X-Tenant", settings.OrganizationHeader)
	assert.Equal(t, 30*time.Second, settings.PolicyCacheTTL.Std())
	assert.True(t, settings.FailClosed)

	// Keys the file omits keep their defaults
	assert.Equal(t, DefaultSettings().SessionExpiredPage, settings.SessionExpiredPage)
}

func TestLoadSettingsMissingFile(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	assert.Error(t, err)
}

func TestLoadSettingsEnvOverrides(t *testing.T) {
	t.Setenv("CLEARGATE_ORG_HEADER", "X-Env-Org")
	t.Setenv("CLEARGATE_FAIL_CLOSED", "true")

	settings, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, "X-Env-Org", settings.OrganizationHeader)
	assert.True(t, settings.FailClosed)
}
