package sso

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestConfigurationSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfiguration(Metadata{
		EntityID:         "https://idp.example.com/metadata",
		SSOURL:           srv.URL,
		Certificate:      base64.StdEncoding.EncodeToString([]byte("certificate bytes")),
		AttributeMapping: DefaultAttributeMapping(),
	})

	result := NewTester().TestConfiguration(context.Background(), cfg)
	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
}

func TestTestConfigurationAccumulatesErrors(t *testing.T) {
	cfg := testConfiguration(Metadata{
		Certificate:      "not base64!!!",
		AttributeMapping: map[string]string{"first_name": "givenName"},
	})

	result := NewTester().TestConfiguration(context.Background(), cfg)
	require.False(t, result.Success)

	joined := strings.Join(result.Errors, "; ")
	assert.Contains(t, joined, "entity ID is missing")
	assert.Contains(t, joined, "SSO URL is missing")
	assert.Contains(t, joined, "not valid base64")
	assert.Contains(t, joined, "no email attribute")
	assert.Len(t, result.Errors, 4)
}

func TestTestConfigurationEndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfg := testConfiguration(Metadata{
		EntityID:         "https://idp.example.com/metadata",
		SSOURL:           srv.URL,
		Certificate:      base64.StdEncoding.EncodeToString([]byte("certificate bytes")),
		AttributeMapping: DefaultAttributeMapping(),
	})

	result := NewTester().TestConfiguration(context.Background(), cfg)
	require.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "not reachable")
	assert.Contains(t, result.Errors[0], "404")
}

func TestTestConfigurationUnreachableEndpoint(t *testing.T) {
	cfg := testConfiguration(Metadata{
		EntityID:         "https://idp.example.com/metadata",
		SSOURL:           "http://127.0.0.1:1/sso",
		Certificate:      base64.StdEncoding.EncodeToString([]byte("certificate bytes")),
		AttributeMapping: DefaultAttributeMapping(),
	})

	result := NewTester().WithProbeTimeout(500 * time.Millisecond).TestConfiguration(context.Background(), cfg)
	require.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "not reachable")
}

func TestFormatPEMCertificate(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("certificate material ", 10)))
	// Simulate metadata that arrived with embedded whitespace
	ragged := payload[:30] + "\n  " + payload[30:]

	pem := FormatPEMCertificate(ragged)

	lines := strings.Split(strings.TrimSuffix(pem, "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, "-----BEGIN CERTIFICATE-----", lines[0])
	assert.Equal(t, "-----END CERTIFICATE-----", lines[len(lines)-1])

	var rejoined strings.Builder
	for _, line := range lines[1 : len(lines)-1] {
		assert.LessOrEqual(t, len(line), 64)
		rejoined.WriteString(line)
	}
	// Every body line except the last is exactly 64 characters
	for _, line := range lines[1 : len(lines)-2] {
		assert.Len(t, line, 64)
	}
	assert.Equal(t, payload, rejoined.String())
}
