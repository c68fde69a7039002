package sso

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"time"

	"github.com/beevik/etree"
	"github.com/crewjam/saml"

	"github.com/orgsec/cleargate/internal/uuidgen"
)

const nameIDFormatEntity = "urn:oasis:names:tc:SAML:2.0:nameid-format:entity"

// BuildLoginRequest constructs an outbound authentication request for the
// given configuration and returns the full redirect URL. Every call
// generates a fresh request ID and issue instant; replay protection
// downstream depends on that uniqueness, so the result is intentionally
// never the same twice.
//
// The relay state is set to the organization ID so the callback can restore
// tenant context.
func BuildLoginRequest(cfg *Configuration, callbackURL string) (string, error) {
	return buildLoginRequest(cfg, callbackURL, SystemClock{})
}

func buildLoginRequest(cfg *Configuration, callbackURL string, clock Clock) (string, error) {
	if cfg.ProviderType != ProviderTypeSAML {
		return "", configurationErrorf("provider type %q is not supported, expected %q", cfg.ProviderType, ProviderTypeSAML)
	}
	if cfg.Metadata.SSOURL == "" {
		return "", configurationErrorf("configuration has no SSO URL")
	}

	allowCreate := cfg.Metadata.AllowCreate
	nameIDFormat := cfg.Metadata.NameIDFormat

	request := saml.AuthnRequest{
		ID:                          uuidgen.NewRequestID(),
		Version:                     "2.0",
		IssueInstant:                clock.Now().Truncate(time.Millisecond),
		Destination:                 cfg.Metadata.SSOURL,
		AssertionConsumerServiceURL: callbackURL,
		ProtocolBinding:             bindingHTTPPost,
		Issuer: &saml.Issuer{
			Format: nameIDFormatEntity,
			Value:  cfg.Metadata.EntityID,
		},
		NameIDPolicy: &saml.NameIDPolicy{
			AllowCreate: &allowCreate,
			Format:      &nameIDFormat,
		},
	}

	doc := etree.NewDocument()
	doc.SetRoot(request.Element())
	encoded, err := doc.WriteToBytes()
	if err != nil {
		return "", fmt.Errorf("failed to serialize authentication request: %w", err)
	}

	redirect, err := url.Parse(cfg.Metadata.SSOURL)
	if err != nil {
		return "", configurationErrorf("configured SSO URL is invalid: %v", err)
	}

	query := redirect.Query()
	query.Set("SAMLRequest", base64.StdEncoding.EncodeToString(encoded))
	query.Set("RelayState", cfg.OrganizationID)
	redirect.RawQuery = query.Encode()

	return redirect.String(), nil
}
