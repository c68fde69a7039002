package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// loopbackFallback is used when no forwarding header identifies the client
const loopbackFallback = "127.0.0.1"

// ClientIP resolves the client address using the provider-specific header
// precedence: edge-proxy header first, then real-IP, then the first
// forwarded-for entry, else a loopback fallback.
func ClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return loopbackFallback
}

// organizationID resolves tenant context: explicit header, then cookie. The
// middleware falls back to the principal's primary organization when both
// are absent.
func organizationID(c *gin.Context, settings Settings) string {
	if orgID := c.GetHeader(settings.OrganizationHeader); orgID != "" {
		return orgID
	}
	if orgID, err := c.Cookie(settings.OrganizationCookie); err == nil && orgID != "" {
		return orgID
	}
	return ""
}
