package sso

import (
	"time"
)

// ProviderType identifies the SSO protocol a configuration speaks
type ProviderType string

const (
	// ProviderTypeSAML is the only provider type currently implemented.
	// OAuth/OIDC types may be added later.
	ProviderTypeSAML ProviderType = "saml"
)

// Well-known SAML constants used across the package
const (
	SignatureAlgorithmRSASHA256 = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	DigestAlgorithmSHA256       = "http://www.w3.org/2001/04/xmlenc#sha256"
	NameIDFormatEmailAddress    = "urn:oasis:names:tc:SAML:1.1:nameid-format:emailAddress"

	bindingHTTPRedirect = "urn:oasis:names:tc:SAML:2.0:bindings:HTTP-Redirect"
	bindingHTTPPost     = "urn:oasis:names:tc:SAML:2.0:bindings:HTTP-POST"
	statusSuccess       = "urn:oasis:names:tc:SAML:2.0:status:Success"
)

// Default attribute claim URIs used when identity-provider metadata does not
// advertise its own attribute names
const (
	ClaimEmail      = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"
	ClaimGivenName  = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/givenname"
	ClaimSurname    = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/surname"
	ClaimName       = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name"
)

// Configuration identifies one identity-provider binding for a tenant.
// At most one configuration may be active per organization at any time;
// store.SSOConfigurationStore.ActivateExclusively enforces the invariant.
type Configuration struct {
	ID             string       `json:"id"`
	OrganizationID string       `json:"organization_id"`
	ProviderType   ProviderType `json:"provider_type"`
	ProviderName   string       `json:"provider_name"`
	Metadata       Metadata     `json:"metadata"`
	Active         bool         `json:"active"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Metadata is the parsed identity-provider descriptor for a SAML binding
type Metadata struct {
	EntityID           string            `json:"entity_id"`
	SSOURL             string            `json:"sso_url"`
	SLOURL             string            `json:"slo_url,omitempty"`
	Certificate        string            `json:"certificate"`
	AttributeMapping   map[string]string `json:"attribute_mapping"`
	SignatureAlgorithm string            `json:"signature_algorithm"`
	DigestAlgorithm    string            `json:"digest_algorithm"`
	NameIDFormat       string            `json:"name_id_format"`
	AllowCreate        bool              `json:"allow_create"`
}

// Assertion is the result of a successful response validation. It is
// ephemeral: callers consume it immediately to establish a local session and
// never persist it as-is.
type Assertion struct {
	Subject              string
	SessionIndex         string
	Attributes           map[string]AttributeValue
	NotBefore            *time.Time
	NotOnOrAfter         *time.Time
	AuthnContextClassRef string
}

// AttributeValue holds one mapped assertion attribute. Single-valued
// attributes read naturally through First; multi-valued attributes keep
// every value in order.
type AttributeValue []string

// First returns the first value or the empty string
func (v AttributeValue) First() string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// IsMulti reports whether the provider sent more than one value
func (v AttributeValue) IsMulti() bool {
	return len(v) > 1
}

// Attr returns the first value of a mapped attribute, or "" when absent
func (a *Assertion) Attr(name string) string {
	return a.Attributes[name].First()
}

// AttrValues returns every value of a mapped attribute
func (a *Assertion) AttrValues(name string) []string {
	return a.Attributes[name]
}

// Clock abstracts time for validation so tests can pin the evaluation
// instant. The zero-value SystemClock reads the wall clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now
type SystemClock struct{}

// Now returns the current wall-clock time in UTC
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// DefaultAttributeMapping returns the logical-name to claim-URI mapping used
// when metadata does not override attribute names
func DefaultAttributeMapping() map[string]string {
	return map[string]string{
		"email":        ClaimEmail,
		"first_name":   ClaimGivenName,
		"last_name":    ClaimSurname,
		"display_name": ClaimName,
	}
}
