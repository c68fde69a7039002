package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters exported for the security evaluation pipeline. Registration uses
// the default registry so the surrounding application's /metrics endpoint
// picks them up without extra wiring.
var (
	// PolicyDenials counts policy check denials by policy type
	PolicyDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cleargate",
		Name:      "policy_denials_total",
		Help:      "Number of requests denied by a security policy check.",
	}, []string{"policy_type"})

	// FailOpenAllows counts infrastructure errors converted to allow decisions
	FailOpenAllows = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cleargate",
		Name:      "fail_open_allows_total",
		Help:      "Number of requests allowed because policy evaluation hit an infrastructure error.",
	})

	// AssertionsValidated counts SAML assertion validation outcomes
	AssertionsValidated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cleargate",
		Name:      "assertions_validated_total",
		Help:      "Number of SAML assertion validations by outcome.",
	}, []string{"outcome"})

	// SuspiciousDetections counts suspicious-activity detections
	SuspiciousDetections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cleargate",
		Name:      "suspicious_detections_total",
		Help:      "Number of logins flagged by the suspicious-activity heuristics.",
	})

	// SessionTerminations counts forced session terminations
	SessionTerminations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cleargate",
		Name:      "session_terminations_total",
		Help:      "Number of sessions terminated for high-risk activity.",
	})
)
