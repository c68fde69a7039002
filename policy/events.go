package policy

import (
	"github.com/orgsec/cleargate/internal/uuidgen"
)

func (e *Engine) newEvent(orgID, userID string, typ EventType, severity Severity, description string, metadata map[string]any, ip, userAgent string) *SecurityEvent {
	return &SecurityEvent{
		ID:             uuidgen.MustNewForEntity(uuidgen.EntityTypeSecurityEvent).String(),
		OrganizationID: orgID,
		UserID:         userID,
		Type:           typ,
		Severity:       severity,
		Description:    description,
		Metadata:       metadata,
		IPAddress:      ip,
		UserAgent:      userAgent,
		CreatedAt:      e.clock.Now(),
	}
}
