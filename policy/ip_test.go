package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckIPAccessNoPolicies(t *testing.T) {
	engine := NewEngine()

	result := engine.CheckIPAccess(nil, "203.0.113.7", "test-agent")
	assert.True(t, result.Allowed)
	assert.Nil(t, result.Event)
}

func TestCheckIPAccessWhitelist(t *testing.T) {
	engine := NewEngine()
	policies := []SecurityPolicy{
		activePolicy(PolicyTypeIPWhitelist, PolicyConfig{
			AllowedIPs: []string{"10.0.0.0/24", "192.0.2.50"},
		}),
	}

	tests := []struct {
		name    string
		ip      string
		allowed bool
	}{
		{"inside CIDR block", "10.0.0.5", true},
		{"outside CIDR block", "10.0.1.5", false},
		{"exact address match", "192.0.2.50", true},
		{"unlisted address", "198.51.100.1", false},
		{"unparseable client IP", "not-an-ip", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := engine.CheckIPAccess(policies, tt.ip, "test-agent")
			assert.Equal(t, tt.allowed, result.Allowed)
			if tt.allowed {
				assert.Nil(t, result.Event)
				return
			}
			assert.Equal(t, "not in whitelist", result.Reason)
			require.NotNil(t, result.Event)
			assert.Equal(t, EventTypeIPBlocked, result.Event.Type)
			assert.Equal(t, SeverityMedium, result.Event.Severity)
			assert.Equal(t, "org-1", result.Event.OrganizationID)
			assert.Equal(t, tt.ip, result.Event.IPAddress)
		})
	}
}

func TestCheckIPAccessSkipsUnparseableListEntries(t *testing.T) {
	engine := NewEngine()
	policies := []SecurityPolicy{
		activePolicy(PolicyTypeIPWhitelist, PolicyConfig{
			AllowedIPs: []string{"garbage", "300.0.0.0/8", "10.0.0.0/24"},
		}),
	}

	assert.True(t, engine.CheckIPAccess(policies, "10.0.0.9", "test-agent").Allowed)
	assert.False(t, engine.CheckIPAccess(policies, "10.1.0.9", "test-agent").Allowed)
}

func TestCheckIPAccessCountryRestriction(t *testing.T) {
	geo := fakeGeo{countries: map[string]string{
		"203.0.113.7": "US",
		"203.0.113.8": "RU",
	}}
	engine := NewEngine(WithGeoResolver(geo))
	policies := []SecurityPolicy{
		activePolicy(PolicyTypeIPWhitelist, PolicyConfig{
			AllowedCountries: []string{"us", "CA"},
		}),
	}

	assert.True(t, engine.CheckIPAccess(policies, "203.0.113.7", "test-agent").Allowed,
		"country comparison must be case insensitive")

	denied := engine.CheckIPAccess(policies, "203.0.113.8", "test-agent")
	require.False(t, denied.Allowed)
	assert.Equal(t, "country not allowed", denied.Reason)

	// Unresolvable IP fails closed once a country restriction is configured
	unresolved := engine.CheckIPAccess(policies, "203.0.113.99", "test-agent")
	assert.False(t, unresolved.Allowed)
	assert.Equal(t, "country not allowed", unresolved.Reason)
}

func TestCheckIPAccessVPNBlocking(t *testing.T) {
	engine := NewEngine(WithVPNDetector(fakeVPN{exits: map[string]bool{"203.0.113.200": true}}))
	policies := []SecurityPolicy{
		activePolicy(PolicyTypeIPWhitelist, PolicyConfig{BlockVPN: true}),
	}

	assert.True(t, engine.CheckIPAccess(policies, "203.0.113.7", "test-agent").Allowed)

	denied := engine.CheckIPAccess(policies, "203.0.113.200", "test-agent")
	require.False(t, denied.Allowed)
	assert.Equal(t, "vpn blocked", denied.Reason)
	require.NotNil(t, denied.Event)
	assert.Equal(t, SeverityHigh, denied.Event.Severity)
}

func TestCheckIPAccessAnyPolicyDenies(t *testing.T) {
	engine := NewEngine()
	policies := []SecurityPolicy{
		activePolicy(PolicyTypeIPWhitelist, PolicyConfig{AllowedIPs: []string{"0.0.0.0/0"}}),
		activePolicy(PolicyTypeIPWhitelist, PolicyConfig{AllowedIPs: []string{"10.0.0.0/24"}}),
	}

	result := engine.CheckIPAccess(policies, "198.51.100.1", "test-agent")
	assert.False(t, result.Allowed, "the strictest active policy decides")
}
