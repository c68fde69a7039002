package policy

import "time"

// GeoResolver maps a client IP to an ISO country code. Country-restriction
// policies fail closed: when a restriction is configured and the resolver
// cannot place the IP, access is denied, so production deployments with
// country policies must wire a real resolver.
type GeoResolver interface {
	Country(ip string) (string, bool)
}

// VPNDetector reports whether an IP is a known VPN or proxy exit
type VPNDetector interface {
	IsVPN(ip string) bool
}

// ActivityProfile supplies historical comparison for the
// suspicious-activity heuristics. The default NoopProfile reports nothing
// unusual; real deployments plug in their login-history store here.
type ActivityProfile interface {
	UnusualLocation(userID, location string) bool
	UnusualLoginTime(userID string, at time.Time) bool
	NewDevice(userID, userAgent string) bool
}

// NoopGeoResolver never resolves a country
type NoopGeoResolver struct{}

// Country always reports an unresolved location
func (NoopGeoResolver) Country(string) (string, bool) { return "", false }

// NoopVPNDetector never flags an IP
type NoopVPNDetector struct{}

// IsVPN always reports false
func (NoopVPNDetector) IsVPN(string) bool { return false }

// NoopProfile reports nothing unusual; it is the documented default for the
// stubbed location/time/device heuristics
type NoopProfile struct{}

func (NoopProfile) UnusualLocation(string, string) bool     { return false }
func (NoopProfile) UnusualLoginTime(string, time.Time) bool { return false }
func (NoopProfile) NewDevice(string, string) bool           { return false }

// Engine evaluates security policies for one organization. It is stateless
// and side-effect free: every check returns its decision plus an optional
// SecurityEvent for the caller to persist, and the engine itself never
// touches storage. Safe for concurrent use.
type Engine struct {
	clock   Clock
	geo     GeoResolver
	vpn     VPNDetector
	profile ActivityProfile
}

// Option customizes an Engine
type Option func(*Engine)

// WithClock pins the evaluation clock
func WithClock(clock Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithGeoResolver wires a country resolver for ip_whitelist country rules
func WithGeoResolver(geo GeoResolver) Option {
	return func(e *Engine) { e.geo = geo }
}

// WithVPNDetector wires a VPN/proxy detector for ip_whitelist VPN blocking
func WithVPNDetector(vpn VPNDetector) Option {
	return func(e *Engine) { e.vpn = vpn }
}

// WithActivityProfile wires historical login comparison for the
// suspicious-activity heuristics
func WithActivityProfile(profile ActivityProfile) Option {
	return func(e *Engine) { e.profile = profile }
}

// NewEngine creates an Engine with no-op extension points and the system
// clock unless overridden
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		clock:   SystemClock{},
		geo:     NoopGeoResolver{},
		vpn:     NoopVPNDetector{},
		profile: NoopProfile{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// activeOfType filters the policies the engine should evaluate for a check
func activeOfType(policies []SecurityPolicy, typ PolicyType) []SecurityPolicy {
	var out []SecurityPolicy
	for _, p := range policies {
		if p.Active && p.Type == typ {
			out = append(out, p)
		}
	}
	return out
}
