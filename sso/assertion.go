package sso

import (
	"crypto/x509"
	"encoding/base64"
	"errors"
	"time"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"

	"github.com/orgsec/cleargate/internal/metrics"
	"github.com/orgsec/cleargate/internal/slogging"
)

// Validator validates signed SAML response documents against a stored
// configuration. It holds no mutable state and is safe for concurrent use.
type Validator struct {
	clock Clock
}

// NewValidator creates a Validator. A nil clock falls back to the system
// clock.
func NewValidator(clock Clock) *Validator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Validator{clock: clock}
}

// ValidateResponse validates a raw SAML response document and extracts the
// assertion. Checks run in a fixed order and the first failure aborts with a
// ValidationError carrying the specific reason. The reason is logged here
// with full detail; callers must only surface ValidationError.UserMessage to
// the end user.
//
// The transform is pure: nothing is persisted, and the caller owns any
// session or security event that results.
func (v *Validator) ValidateResponse(raw []byte, cfg *Configuration) (*Assertion, error) {
	assertion, err := v.validate(raw, cfg)
	if err != nil {
		slogging.Get().Warn("SAML response rejected org_id=%v error=%v", cfg.OrganizationID, err)
		metrics.AssertionsValidated.WithLabelValues("rejected").Inc()
		return nil, err
	}
	metrics.AssertionsValidated.WithLabelValues("validated").Inc()
	return assertion, nil
}

func (v *Validator) validate(raw []byte, cfg *Configuration) (*Assertion, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, &ValidationError{Reason: "response is not well-formed XML", Err: err}
	}

	response := doc.Root()
	if response == nil || response.Tag != "Response" {
		return nil, validationErrorf("missing Response element")
	}

	if err := checkStatus(response); err != nil {
		return nil, err
	}

	assertionEl := childElement(response, "Assertion")
	if assertionEl == nil {
		return nil, validationErrorf("missing Assertion element")
	}

	validated, err := v.verifySignature(assertionEl, cfg)
	if err != nil {
		return nil, err
	}

	conditions := childElement(validated, "Conditions")
	notBefore, notOnOrAfter, err := v.checkTimeBounds(conditions)
	if err != nil {
		return nil, err
	}

	if err := checkAudience(conditions, cfg.Metadata.EntityID); err != nil {
		return nil, err
	}

	subject := elementText(descendantElement(validated, "Subject", "NameID"))
	if subject == "" {
		return nil, validationErrorf("missing subject NameID")
	}

	assertion := &Assertion{
		Subject:      subject,
		Attributes:   extractAttributes(validated, cfg.Metadata.AttributeMapping),
		NotBefore:    notBefore,
		NotOnOrAfter: notOnOrAfter,
	}

	if authn := childElement(validated, "AuthnStatement"); authn != nil {
		assertion.SessionIndex = attrValue(authn, "SessionIndex")
		assertion.AuthnContextClassRef = elementText(descendantElement(authn, "AuthnContext", "AuthnContextClassRef"))
	}

	return assertion, nil
}

// checkStatus fails with the provider-supplied status message when the
// response status is not Success
func checkStatus(response *etree.Element) error {
	status := childElement(response, "Status")
	code := attrValue(childElement(status, "StatusCode"), "Value")
	if code == statusSuccess {
		return nil
	}
	if message := elementText(childElement(status, "StatusMessage")); message != "" {
		return validationErrorf("identity provider returned failure: %s", message)
	}
	return validationErrorf("identity provider returned status %q", code)
}

// verifySignature checks the enveloped signature over the assertion against
// the configuration's certificate. The validated element returned by the
// signature library is used for all further extraction so content outside
// the signed region cannot be smuggled in.
func (v *Validator) verifySignature(assertionEl *etree.Element, cfg *Configuration) (*etree.Element, error) {
	der, err := base64.StdEncoding.DecodeString(cfg.Metadata.Certificate)
	if err != nil {
		return nil, &ValidationError{Reason: "configured certificate is not valid base64", Err: err}
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, &ValidationError{Reason: "configured certificate cannot be parsed", Err: err}
	}

	vctx := dsig.NewDefaultValidationContext(&dsig.MemoryX509CertificateStore{
		Roots: []*x509.Certificate{cert},
	})

	validated, err := vctx.Validate(assertionEl)
	if err != nil {
		if errors.Is(err, dsig.ErrMissingSignature) {
			return nil, validationErrorf("assertion is not signed")
		}
		return nil, &ValidationError{Reason: "signature verification failed", Err: err}
	}
	return validated, nil
}

// checkTimeBounds enforces NotBefore/NotOnOrAfter when present
func (v *Validator) checkTimeBounds(conditions *etree.Element) (*time.Time, *time.Time, error) {
	if conditions == nil {
		return nil, nil, nil
	}
	now := v.clock.Now()

	var notBefore, notOnOrAfter *time.Time
	if raw := attrValue(conditions, "NotBefore"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, &ValidationError{Reason: "invalid NotBefore timestamp", Err: err}
		}
		if t.After(now) {
			return nil, nil, validationErrorf("assertion not yet valid (NotBefore %s)", raw)
		}
		notBefore = &t
	}
	if raw := attrValue(conditions, "NotOnOrAfter"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, &ValidationError{Reason: "invalid NotOnOrAfter timestamp", Err: err}
		}
		if !t.After(now) {
			return nil, nil, validationErrorf("assertion expired (NotOnOrAfter %s)", raw)
		}
		notOnOrAfter = &t
	}
	return notBefore, notOnOrAfter, nil
}

// checkAudience requires at least one listed audience to equal the
// configuration's entity ID. Absent audience restrictions pass.
func checkAudience(conditions *etree.Element, entityID string) error {
	if conditions == nil {
		return nil
	}
	restrictions := childElements(conditions, "AudienceRestriction")
	if len(restrictions) == 0 {
		return nil
	}
	var listed []string
	for _, restriction := range restrictions {
		for _, audience := range childElements(restriction, "Audience") {
			value := elementText(audience)
			if value == entityID {
				return nil
			}
			listed = append(listed, value)
		}
	}
	return validationErrorf("audience restriction %v does not include %q", listed, entityID)
}

// extractAttributes maps provider attribute names to logical names using the
// configured mapping. Attributes the mapping does not know are dropped;
// multi-valued attributes keep every value.
func extractAttributes(assertionEl *etree.Element, mapping map[string]string) map[string]AttributeValue {
	providerToLogical := make(map[string]string, len(mapping))
	for logical, provider := range mapping {
		providerToLogical[provider] = logical
	}

	attributes := make(map[string]AttributeValue)
	for _, stmt := range childElements(assertionEl, "AttributeStatement") {
		for _, attr := range childElements(stmt, "Attribute") {
			logical, ok := providerToLogical[attrValue(attr, "Name")]
			if !ok {
				continue
			}
			var values AttributeValue
			for _, valueEl := range childElements(attr, "AttributeValue") {
				values = append(values, elementText(valueEl))
			}
			attributes[logical] = values
		}
	}
	return attributes
}
