package security

import (
	"time"

	"github.com/gin-gonic/gin"
)

// PrincipalContextKey is the gin context key under which the surrounding
// authentication layer places the authenticated principal
const PrincipalContextKey = "cleargate_principal"

// Principal is the authenticated identity attached to a request by the
// authentication layer. The security middleware only reads it; requests
// without a principal skip policy checks entirely (authentication is a
// separate layer's responsibility).
type Principal struct {
	UserID        string
	SessionID     string
	HasMFA        bool
	LastMFATime   *time.Time
	LoginAttempts int
	LastLoginAt   *time.Time
}

// SetPrincipal attaches the principal to the request context
func SetPrincipal(c *gin.Context, p Principal) {
	c.Set(PrincipalContextKey, p)
}

// PrincipalFrom reads the principal from the request context
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	value, exists := c.Get(PrincipalContextKey)
	if !exists {
		return Principal{}, false
	}
	p, ok := value.(Principal)
	return p, ok
}
