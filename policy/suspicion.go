package policy

import (
	"fmt"
	"time"
)

// Risk weights and thresholds for the suspicious-activity heuristics
const (
	riskRapidAttempts   = 30
	riskUnusualLocation = 20
	riskUnusualTime     = 10
	riskNewDevice       = 15

	// SuspicionThreshold is the additive score at and above which a login is
	// classified suspicious
	SuspicionThreshold = 50
	// SuspicionHighSeverity is the score at and above which the raised event
	// is graded high instead of medium
	SuspicionHighSeverity = 70
	// SuspicionTerminate is the score at and above which the middleware
	// forces session termination
	SuspicionTerminate = 80

	rapidAttemptLimit = 5
)

// SuspicionInput carries the signals the suspicious-activity heuristics
// read. Location is optional; empty means unresolved.
type SuspicionInput struct {
	OrganizationID     string
	UserID             string
	IP                 string
	UserAgent          string
	Location           string
	LoginAttempts      int
	TimeSinceLastLogin time.Duration
}

// SuspicionResult is the typed outcome of suspicious-activity detection
type SuspicionResult struct {
	Suspicious bool
	Score      int
	Factors    []string
	Event      *SecurityEvent
}

// DetectSuspiciousActivity computes an additive risk score over the input.
// The location, time, and device comparisons delegate to the configured
// ActivityProfile; with the default NoopProfile only the rapid-attempt
// factor can fire. The score is monotonically non-decreasing in the number
// of firing factors.
func (e *Engine) DetectSuspiciousActivity(input SuspicionInput) SuspicionResult {
	score := 0
	var factors []string

	if input.LoginAttempts > rapidAttemptLimit {
		score += riskRapidAttempts
		factors = append(factors, fmt.Sprintf("%d login attempts in rapid succession", input.LoginAttempts))
	}
	if e.profile.UnusualLocation(input.UserID, input.Location) {
		score += riskUnusualLocation
		factors = append(factors, "login from unusual location")
	}
	if e.profile.UnusualLoginTime(input.UserID, e.clock.Now()) {
		score += riskUnusualTime
		factors = append(factors, "login at unusual time")
	}
	if e.profile.NewDevice(input.UserID, input.UserAgent) {
		score += riskNewDevice
		factors = append(factors, "login from new device or browser")
	}

	result := SuspicionResult{
		Suspicious: score >= SuspicionThreshold,
		Score:      score,
		Factors:    factors,
	}
	if !result.Suspicious {
		return result
	}

	severity := SeverityMedium
	if score >= SuspicionHighSeverity {
		severity = SeverityHigh
	}
	result.Event = e.newEvent(input.OrganizationID, input.UserID, EventTypeSuspiciousActivity, severity,
		fmt.Sprintf("suspicious login activity scored %d", score),
		map[string]any{
			"score":                 score,
			"factors":               factors,
			"location":              input.Location,
			"time_since_last_login": input.TimeSinceLastLogin.String(),
		}, input.IP, input.UserAgent)
	return result
}
