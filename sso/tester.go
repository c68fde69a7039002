package sso

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/orgsec/cleargate/internal/slogging"
)

// DefaultProbeTimeout bounds the SSO endpoint reachability probe so an
// unresponsive provider cannot hang the diagnostic
const DefaultProbeTimeout = 5 * time.Second

// TestResult reports the outcome of a configuration test. Success is true
// only when Errors is empty.
type TestResult struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

// Tester runs a battery of checks against a stored SSO configuration. It is
// a diagnostic for administrators: expected failure modes are reported as
// result entries, never as returned errors.
type Tester struct {
	client       *http.Client
	probeTimeout time.Duration
}

// NewTester creates a Tester with the default probe timeout
func NewTester() *Tester {
	return &Tester{
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
		probeTimeout: DefaultProbeTimeout,
	}
}

// WithProbeTimeout overrides the reachability probe timeout
func (t *Tester) WithProbeTimeout(timeout time.Duration) *Tester {
	t.probeTimeout = timeout
	return t
}

// TestConfiguration runs every check independently and accumulates the
// failures; it does not short-circuit, so the administrator sees every
// problem at once.
func (t *Tester) TestConfiguration(ctx context.Context, cfg *Configuration) *TestResult {
	logger := slogging.Get()
	logger.Debug("Testing SSO configuration id=%v org_id=%v", cfg.ID, cfg.OrganizationID)

	var errs []string

	if cfg.Metadata.EntityID == "" {
		errs = append(errs, "entity ID is missing")
	}
	if cfg.Metadata.SSOURL == "" {
		errs = append(errs, "SSO URL is missing")
	}
	if cfg.Metadata.Certificate == "" {
		errs = append(errs, "signing certificate is missing")
	} else if _, err := base64.StdEncoding.DecodeString(cfg.Metadata.Certificate); err != nil {
		errs = append(errs, fmt.Sprintf("certificate is not valid base64: %v", err))
	}

	if cfg.Metadata.SSOURL != "" {
		if err := t.probeEndpoint(ctx, cfg.Metadata.SSOURL); err != nil {
			errs = append(errs, fmt.Sprintf("SSO URL is not reachable: %v", err))
		}
	}

	if cfg.Metadata.AttributeMapping["email"] == "" {
		errs = append(errs, "attribute mapping has no email attribute")
	}

	result := &TestResult{Success: len(errs) == 0, Errors: errs}
	logger.Info("SSO configuration test finished id=%v success=%v errors=%v", cfg.ID, result.Success, len(errs))
	return result
}

// probeEndpoint sends a lightweight request to the SSO endpoint. The probe
// is bounded by the configured timeout and canceled with the caller's
// context.
func (t *Tester) probeEndpoint(ctx context.Context, ssoURL string) error {
	ctx, cancel := context.WithTimeout(ctx, t.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ssoURL, nil)
	if err != nil {
		return err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// FormatPEMCertificate wraps a whitespace-stripped base64 certificate
// payload into a standard PEM block, line-wrapped at 64 characters
func FormatPEMCertificate(cert string) string {
	cert = stripWhitespace(cert)

	var b strings.Builder
	b.WriteString("-----BEGIN CERTIFICATE-----\n")
	for len(cert) > 0 {
		line := cert
		if len(line) > 64 {
			line = line[:64]
		}
		b.WriteString(line)
		b.WriteString("\n")
		cert = cert[len(line):]
	}
	b.WriteString("-----END CERTIFICATE-----\n")
	return b.String()
}
