package sso

import (
	"encoding/base64"
	"net/url"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfiguration(md Metadata) *Configuration {
	return &Configuration{
		ID:             "cfg-1",
		OrganizationID: "org-1",
		ProviderType:   ProviderTypeSAML,
		ProviderName:   "Example IdP",
		Metadata:       md,
		Active:         true,
	}
}

func decodeAuthnRequest(t *testing.T, redirectURL string) (*etree.Element, url.Values) {
	t.Helper()
	parsed, err := url.Parse(redirectURL)
	require.NoError(t, err)
	query := parsed.Query()

	raw, err := base64.StdEncoding.DecodeString(query.Get("SAMLRequest"))
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(raw))
	require.NotNil(t, doc.Root())
	return doc.Root(), query
}

func TestBuildLoginRequest(t *testing.T) {
	md, err := ParseMetadata([]byte(testMetadataXML))
	require.NoError(t, err)
	cfg := testConfiguration(*md)

	redirectURL, err := BuildLoginRequest(cfg, "https://app.example.com/auth/saml/callback")
	require.NoError(t, err)

	request, query := decodeAuthnRequest(t, redirectURL)
	assert.Equal(t, "AuthnRequest", request.Tag)
	assert.Equal(t, "2.0", attrValue(request, "Version"))
	assert.NotEmpty(t, attrValue(request, "ID"))
	assert.NotEmpty(t, attrValue(request, "IssueInstant"))
	assert.Equal(t, "https://app.example.com/auth/saml/callback", attrValue(request, "AssertionConsumerServiceURL"))

	// Round-trip: the redirect embeds the entity ID and SSO URL found in
	// the parsed metadata
	assert.Equal(t, md.SSOURL, attrValue(request, "Destination"))
	assert.Equal(t, md.EntityID, elementText(childElement(request, "Issuer")))

	nameIDPolicy := childElement(request, "NameIDPolicy")
	require.NotNil(t, nameIDPolicy)
	assert.Equal(t, md.NameIDFormat, attrValue(nameIDPolicy, "Format"))
	assert.Equal(t, "true", attrValue(nameIDPolicy, "AllowCreate"))

	// Relay state preserves tenant context
	assert.Equal(t, cfg.OrganizationID, query.Get("RelayState"))
}

func TestBuildLoginRequestFreshIDs(t *testing.T) {
	md, err := ParseMetadata([]byte(testMetadataXML))
	require.NoError(t, err)
	cfg := testConfiguration(*md)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		redirectURL, err := BuildLoginRequest(cfg, "https://app.example.com/callback")
		require.NoError(t, err)
		request, _ := decodeAuthnRequest(t, redirectURL)
		id := attrValue(request, "ID")
		assert.False(t, seen[id], "request IDs must be unique per call")
		seen[id] = true
	}
}

func TestBuildLoginRequestWrongProviderType(t *testing.T) {
	cfg := testConfiguration(Metadata{SSOURL: "https://idp.example.com/sso"})
	cfg.ProviderType = "oauth"

	_, err := BuildLoginRequest(cfg, "https://app.example.com/callback")
	require.Error(t, err)

	var configErr *ConfigurationError
	assert.ErrorAs(t, err, &configErr)
}

func TestBuildLoginRequestMissingSSOURL(t *testing.T) {
	cfg := testConfiguration(Metadata{EntityID: "https://idp.example.com"})

	_, err := BuildLoginRequest(cfg, "https://app.example.com/callback")
	require.Error(t, err)

	var configErr *ConfigurationError
	assert.ErrorAs(t, err, &configErr)
}

func TestBuildLoginRequestPreservesExistingQuery(t *testing.T) {
	md := Metadata{
		EntityID:     "https://idp.example.com/metadata",
		SSOURL:       "https://idp.example.com/sso?tenant=acme",
		NameIDFormat: NameIDFormatEmailAddress,
		AllowCreate:  true,
	}
	cfg := testConfiguration(md)

	redirectURL, err := BuildLoginRequest(cfg, "https://app.example.com/callback")
	require.NoError(t, err)

	parsed, err := url.Parse(redirectURL)
	require.NoError(t, err)
	assert.Equal(t, "acme", parsed.Query().Get("tenant"))
	assert.NotEmpty(t, parsed.Query().Get("SAMLRequest"))
}
