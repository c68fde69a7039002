package security

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orgsec/cleargate/internal/metrics"
	"github.com/orgsec/cleargate/internal/slogging"
	"github.com/orgsec/cleargate/policy"
	"github.com/orgsec/cleargate/store"
)

// OrgResolver looks up a user's primary organization when neither the
// header nor the cookie carries tenant context
type OrgResolver interface {
	PrimaryOrganization(ctx context.Context, userID string) (string, error)
}

// Middleware orchestrates per-request security enforcement. It loads the
// organization's active policies, runs the engine checks in fixed order (IP,
// then MFA, then session timeout, then suspicious activity; later checks
// assume the session is already known-valid, so the order is never
// parallelized), and converts the results into allow, redirect, or
// terminate decisions.
//
// Failure policy: policy violations fail closed; infrastructure errors fail
// open. An error loading policies or session state allows the request
// through with a server-side error log and a metrics increment, never a
// user-facing failure. This availability-over-strictness tradeoff is
// deliberate; FailClosed in Settings is the only way to flip it.
type Middleware struct {
	engine   *policy.Engine
	cache    *PolicyCache
	events   store.SecurityEventStore
	sessions store.SessionStore
	orgs     OrgResolver
	settings Settings
}

// NewMiddleware wires the security middleware. events and sessions may not
// be nil; pass the in-memory stores when persistence is handled elsewhere.
func NewMiddleware(engine *policy.Engine, cache *PolicyCache, events store.SecurityEventStore, sessions store.SessionStore, settings Settings) *Middleware {
	return &Middleware{
		engine:   engine,
		cache:    cache,
		events:   events,
		sessions: sessions,
		settings: settings,
	}
}

// WithOrgResolver wires the fallback lookup of a user's primary organization
func (m *Middleware) WithOrgResolver(orgs OrgResolver) *Middleware {
	m.orgs = orgs
	return m
}

// Cache exposes the policy cache so administrative save paths can
// invalidate it after a policy change
func (m *Middleware) Cache() *PolicyCache {
	return m.cache
}

// Enforce returns the gin handler implementing the request state machine
func (m *Middleware) Enforce() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := slogging.GetContextLogger(c)
		path := c.Request.URL.Path

		if matchesPrefix(m.settings.ExcludedPathPrefixes, path) {
			c.Next()
			return
		}

		principal, ok := PrincipalFrom(c)
		if !ok {
			// Unauthenticated traffic is the auth layer's problem, not ours.
			c.Next()
			return
		}

		ctx := c.Request.Context()
		orgID := organizationID(c, m.settings)
		if orgID == "" && m.orgs != nil && principal.UserID != "" {
			resolved, err := m.orgs.PrimaryOrganization(ctx, principal.UserID)
			if err != nil {
				m.failOpen(c, logger, "resolve organization", err)
				return
			}
			orgID = resolved
		}
		if orgID == "" {
			c.Next()
			return
		}

		policies, err := m.cache.ActivePolicies(ctx, orgID)
		if err != nil {
			m.failOpen(c, logger, "load policies", err)
			return
		}

		ip := ClientIP(c.Request)
		userAgent := c.Request.UserAgent()

		ipResult := m.engine.CheckIPAccess(policies, ip, userAgent)
		if !ipResult.Allowed {
			logger.Warn("Request blocked by IP policy org_id=%v ip=%v reason=%v", orgID, ip, ipResult.Reason)
			m.recordEvent(ctx, logger, ipResult.Event)
			metrics.PolicyDenials.WithLabelValues(string(policy.PolicyTypeIPWhitelist)).Inc()
			m.redirect(c, m.settings.IPBlockedPage, ipResult.Reason)
			return
		}

		mfaResult := m.engine.CheckMFARequirement(policies, principal.UserID, principal.HasMFA, principal.LastMFATime)
		if mfaResult.Required && !matchesPrefix(m.settings.MFASetupPathPrefixes, path) {
			logger.Info("Redirecting to MFA setup org_id=%v user_id=%v", orgID, principal.UserID)
			m.recordEvent(ctx, logger, mfaResult.Event)
			metrics.PolicyDenials.WithLabelValues(string(policy.PolicyTypeMFARequired)).Inc()
			m.redirect(c, m.settings.MFARequiredPage, "mfa_required")
			return
		}

		if principal.SessionID != "" {
			if done := m.checkSession(c, logger, policies, principal, orgID); done {
				return
			}
		}

		suspicion := m.engine.DetectSuspiciousActivity(policy.SuspicionInput{
			OrganizationID:     orgID,
			UserID:             principal.UserID,
			IP:                 ip,
			UserAgent:          userAgent,
			LoginAttempts:      principal.LoginAttempts,
			TimeSinceLastLogin: timeSince(principal.LastLoginAt),
		})
		if suspicion.Suspicious {
			logger.Warn("Suspicious activity detected org_id=%v user_id=%v score=%v factors=%v",
				orgID, principal.UserID, suspicion.Score, suspicion.Factors)
			m.recordEvent(ctx, logger, suspicion.Event)
			metrics.SuspiciousDetections.Inc()

			if suspicion.Score >= policy.SuspicionTerminate {
				if err := m.sessions.Terminate(ctx, principal.SessionID); err != nil && !errors.Is(err, store.ErrNotFound) {
					logger.Error("Failed to terminate session session_id=%v error=%v", principal.SessionID, err)
				}
				metrics.SessionTerminations.Inc()
				m.redirect(c, m.settings.ReauthPage, "suspicious_activity")
				return
			}
		}

		c.Next()
	}
}

// checkSession runs the session-timeout check; the returned bool reports
// whether the request was already answered
func (m *Middleware) checkSession(c *gin.Context, logger *slogging.ContextLogger, policies []policy.SecurityPolicy, principal Principal, orgID string) bool {
	ctx := c.Request.Context()
	session, err := m.sessions.Context(ctx, principal.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		// Session state lives elsewhere; nothing to time out against.
		return false
	}
	if err != nil {
		m.failOpen(c, logger, "load session", err)
		return true
	}

	result := m.engine.CheckSessionTimeout(policies, principal.UserID, *session)
	if result.Valid {
		return false
	}

	logger.Info("Session expired org_id=%v user_id=%v reason=%v", orgID, principal.UserID, result.Reason)
	m.recordEvent(ctx, logger, result.Event)
	metrics.PolicyDenials.WithLabelValues(string(policy.PolicyTypeSessionTimeout)).Inc()
	if err := m.sessions.Terminate(ctx, principal.SessionID); err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.Error("Failed to terminate expired session session_id=%v error=%v", principal.SessionID, err)
	}
	m.redirect(c, m.settings.SessionExpiredPage, result.Reason)
	return true
}

// failOpen converts an infrastructure error into an allow decision. The
// swallowing is observable: it is always logged and counted, never silent.
func (m *Middleware) failOpen(c *gin.Context, logger *slogging.ContextLogger, stage string, err error) {
	outcome := "allowing request"
	if m.settings.FailClosed {
		outcome = "denying request"
	}
	logger.Error("Security evaluation failed, %s stage=%v error=%v", outcome, stage, err)
	metrics.FailOpenAllows.Inc()
	if m.settings.FailClosed {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "security evaluation unavailable"})
		return
	}
	c.Next()
}

// recordEvent persists a security event; persistence failure never changes
// the decision already made
func (m *Middleware) recordEvent(ctx context.Context, logger *slogging.ContextLogger, event *policy.SecurityEvent) {
	if event == nil {
		return
	}
	if err := m.events.Create(ctx, event); err != nil {
		logger.Error("Failed to record security event type=%v error=%v", event.Type, err)
	}
}

func (m *Middleware) redirect(c *gin.Context, page, reason string) {
	target := page
	if reason != "" {
		separator := "?"
		if strings.Contains(page, "?") {
			separator = "&"
		}
		target = page + separator + "reason=" + url.QueryEscape(reason)
	}
	c.Redirect(http.StatusFound, target)
	c.Abort()
}

func matchesPrefix(prefixes []string, path string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func timeSince(t *time.Time) time.Duration {
	if t == nil {
		return 0
	}
	return time.Since(*t)
}
