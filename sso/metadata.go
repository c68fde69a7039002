package sso

import (
	"github.com/beevik/etree"
)

// ParseMetadata parses a raw identity-provider metadata document into a
// Metadata value. The parse is pure: identical input always yields an
// identical result.
//
// The descriptor must contain an EntityDescriptor with an entityID, an
// IDPSSODescriptor, an HTTP-Redirect SingleSignOnService endpoint, and a
// signing certificate; anything less fails with a MetadataError and no
// partially-populated value is ever returned.
func ParseMetadata(raw []byte) (*Metadata, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, &MetadataError{Reason: "document is not well-formed XML", Err: err}
	}

	root := doc.Root()
	if root == nil || root.Tag != "EntityDescriptor" {
		return nil, metadataErrorf("missing EntityDescriptor element")
	}

	entityID := attrValue(root, "entityID")
	if entityID == "" {
		return nil, metadataErrorf("missing entityID attribute")
	}

	idp := childElement(root, "IDPSSODescriptor")
	if idp == nil {
		return nil, metadataErrorf("missing IDPSSODescriptor element")
	}

	ssoURL := endpointLocation(childElements(idp, "SingleSignOnService"))
	if ssoURL == "" {
		return nil, metadataErrorf("no SingleSignOnService endpoint with HTTP-Redirect binding")
	}

	// Single logout is optional; absence is not an error.
	sloURL := endpointLocation(childElements(idp, "SingleLogoutService"))

	cert, err := signingCertificate(idp)
	if err != nil {
		return nil, err
	}

	md := &Metadata{
		EntityID:           entityID,
		SSOURL:             ssoURL,
		SLOURL:             sloURL,
		Certificate:        cert,
		AttributeMapping:   DefaultAttributeMapping(),
		SignatureAlgorithm: SignatureAlgorithmRSASHA256,
		DigestAlgorithm:    DigestAlgorithmSHA256,
		NameIDFormat:       NameIDFormatEmailAddress,
		AllowCreate:        true,
	}

	applyAdvertisedAttributes(idp, md.AttributeMapping)

	return md, nil
}

// endpointLocation selects the Location of the endpoint bound to
// HTTP-Redirect, or "" when no endpoint matches
func endpointLocation(endpoints []*etree.Element) string {
	for _, ep := range endpoints {
		if attrValue(ep, "Binding") == bindingHTTPRedirect {
			return attrValue(ep, "Location")
		}
	}
	return ""
}

// signingCertificate extracts the base64 certificate payload from the key
// descriptor marked use="signing", or from the sole descriptor when usage is
// unmarked. All whitespace is stripped from the payload.
func signingCertificate(idp *etree.Element) (string, error) {
	descriptors := childElements(idp, "KeyDescriptor")
	if len(descriptors) == 0 {
		return "", metadataErrorf("missing KeyDescriptor element")
	}

	var selected *etree.Element
	for _, kd := range descriptors {
		use := attrValue(kd, "use")
		if use == "signing" {
			selected = kd
			break
		}
		if use == "" && selected == nil {
			selected = kd
		}
	}
	if selected == nil {
		return "", metadataErrorf("no KeyDescriptor marked for signing use")
	}

	certEl := descendantElement(selected, "KeyInfo", "X509Data", "X509Certificate")
	cert := stripWhitespace(elementText(certEl))
	if cert == "" {
		return "", metadataErrorf("signing KeyDescriptor has no X509Certificate")
	}
	return cert, nil
}

// applyAdvertisedAttributes overrides the default claim URIs with attribute
// names the IdP advertises in its descriptor. Most providers advertise
// nothing, in which case the defaults stand.
func applyAdvertisedAttributes(idp *etree.Element, mapping map[string]string) {
	friendlyToLogical := map[string]string{
		"email":       "email",
		"mail":        "email",
		"givenName":   "first_name",
		"firstName":   "first_name",
		"surname":     "last_name",
		"lastName":    "last_name",
		"displayName": "display_name",
		"cn":          "display_name",
	}

	for _, attr := range childElements(idp, "Attribute") {
		name := attrValue(attr, "Name")
		if name == "" {
			continue
		}
		if logical, ok := friendlyToLogical[attrValue(attr, "FriendlyName")]; ok {
			mapping[logical] = name
		}
	}
}
