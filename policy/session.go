package policy

import (
	"fmt"
	"time"
)

// SessionCheckResult is the typed outcome of a session timeout check. When a
// bound is violated the bound's configured value is returned for caller
// display: MaxIdleTime in minutes, MaxSessionTime in hours.
type SessionCheckResult struct {
	Valid          bool
	Reason         string
	MaxIdleTime    int
	MaxSessionTime int
	Event          *SecurityEvent
}

// CheckSessionTimeout evaluates every active session_timeout policy against
// the session timings. The first violated bound fails the check. No policy
// means the session is always considered valid here.
func (e *Engine) CheckSessionTimeout(policies []SecurityPolicy, userID string, session SessionContext) SessionCheckResult {
	now := e.clock.Now()

	for _, p := range activeOfType(policies, PolicyTypeSessionTimeout) {
		if p.Config.IdleTimeoutMinutes > 0 {
			idleFor := now.Sub(session.LastActivity)
			if idleFor > time.Duration(p.Config.IdleTimeoutMinutes)*time.Minute {
				return e.expireSession(p, userID, "idle timeout exceeded",
					fmt.Sprintf("session idle for %s exceeds the %d minute idle timeout", idleFor.Round(time.Second), p.Config.IdleTimeoutMinutes),
					p.Config.IdleTimeoutMinutes, 0)
			}
		}

		if p.Config.AbsoluteTimeoutHours > 0 {
			age := now.Sub(session.SessionStart)
			if age > time.Duration(p.Config.AbsoluteTimeoutHours)*time.Hour {
				return e.expireSession(p, userID, "absolute timeout exceeded",
					fmt.Sprintf("session age %s exceeds the %d hour absolute timeout", age.Round(time.Second), p.Config.AbsoluteTimeoutHours),
					0, p.Config.AbsoluteTimeoutHours)
			}
		}
	}

	return SessionCheckResult{Valid: true}
}

func (e *Engine) expireSession(p SecurityPolicy, userID, reason, description string, maxIdle, maxSession int) SessionCheckResult {
	event := e.newEvent(p.OrganizationID, userID, EventTypePolicyViolation, SeverityLow, description,
		map[string]any{"policy_id": p.ID, "reason": reason}, "", "")
	return SessionCheckResult{
		Valid:          false,
		Reason:         reason,
		MaxIdleTime:    maxIdle,
		MaxSessionTime: maxSession,
		Event:          event,
	}
}
