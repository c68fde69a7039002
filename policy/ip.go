package policy

import (
	"fmt"
	"net/netip"
	"strings"
)

// IPCheckResult is the typed outcome of an IP access check. A denial is a
// routine result, not an error; callers branch on Allowed.
type IPCheckResult struct {
	Allowed bool
	Reason  string
	Event   *SecurityEvent
}

// CheckIPAccess evaluates every active ip_whitelist policy against the
// client IP. With no ip policies configured access is unconditionally
// allowed; once a policy is configured the check fails closed.
func (e *Engine) CheckIPAccess(policies []SecurityPolicy, ip, userAgent string) IPCheckResult {
	ipPolicies := activeOfType(policies, PolicyTypeIPWhitelist)
	if len(ipPolicies) == 0 {
		return IPCheckResult{Allowed: true}
	}

	for _, p := range ipPolicies {
		if len(p.Config.AllowedIPs) > 0 && !matchesAllowedIPs(p.Config.AllowedIPs, ip) {
			return e.denyIP(p, ip, userAgent, SeverityMedium,
				fmt.Sprintf("IP %s is not in the whitelist", ip), "not in whitelist")
		}

		if len(p.Config.AllowedCountries) > 0 {
			country, ok := e.geo.Country(ip)
			if !ok || !containsFold(p.Config.AllowedCountries, country) {
				return e.denyIP(p, ip, userAgent, SeverityMedium,
					fmt.Sprintf("IP %s resolved to country %q which is not allowed", ip, country), "country not allowed")
			}
		}

		if p.Config.BlockVPN && e.vpn.IsVPN(ip) {
			return e.denyIP(p, ip, userAgent, SeverityHigh,
				fmt.Sprintf("IP %s was detected as a VPN or proxy", ip), "vpn blocked")
		}
	}

	return IPCheckResult{Allowed: true}
}

func (e *Engine) denyIP(p SecurityPolicy, ip, userAgent string, severity Severity, description, reason string) IPCheckResult {
	event := e.newEvent(p.OrganizationID, "", EventTypeIPBlocked, severity, description,
		map[string]any{"policy_id": p.ID, "reason": reason}, ip, userAgent)
	return IPCheckResult{Allowed: false, Reason: reason, Event: event}
}

// matchesAllowedIPs reports whether ip matches at least one listed address
// or CIDR block. Unparseable list entries are skipped; an unparseable
// client IP never matches.
func matchesAllowedIPs(allowed []string, ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	for _, entry := range allowed {
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				continue
			}
			if prefix.Contains(addr) {
				return true
			}
			continue
		}
		listed, err := netip.ParseAddr(entry)
		if err != nil {
			continue
		}
		if listed == addr {
			return true
		}
	}
	return false
}

func containsFold(list []string, value string) bool {
	for _, entry := range list {
		if strings.EqualFold(entry, value) {
			return true
		}
	}
	return false
}
