package policy

import (
	"time"
)

// MFACheckResult is the typed outcome of an MFA requirement check
type MFACheckResult struct {
	Required       bool
	AllowedMethods []string
	Event          *SecurityEvent
}

// CheckMFARequirement evaluates every active mfa_required policy. A user
// without MFA is given the configured grace window measured from their last
// verified MFA time; past the window MFA is required and an mfa_challenge
// event is raised. No MFA policy means MFA is never required by this check.
func (e *Engine) CheckMFARequirement(policies []SecurityPolicy, userID string, hasMFA bool, lastMFATime *time.Time) MFACheckResult {
	for _, p := range activeOfType(policies, PolicyTypeMFARequired) {
		if !p.Config.RequireMFA || hasMFA {
			continue
		}

		if p.Config.MFAGracePeriodHours > 0 && lastMFATime != nil {
			graceUntil := lastMFATime.Add(time.Duration(p.Config.MFAGracePeriodHours) * time.Hour)
			if e.clock.Now().Before(graceUntil) {
				continue
			}
		}

		event := e.newEvent(p.OrganizationID, userID, EventTypeMFAChallenge, SeverityMedium,
			"multi-factor authentication required by organization policy",
			map[string]any{"policy_id": p.ID, "allowed_methods": p.Config.AllowedMFAMethods}, "", "")
		return MFACheckResult{
			Required:       true,
			AllowedMethods: p.Config.AllowedMFAMethods,
			Event:          event,
		}
	}
	return MFACheckResult{Required: false}
}
