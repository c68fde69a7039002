package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
	"unicode"
)

// PasswordCheckResult is the typed outcome of a password validation. Errors
// accumulates every violated rule so the caller can surface all of them to
// the end user at once.
type PasswordCheckResult struct {
	Valid  bool
	Errors []string
}

// ValidatePassword evaluates every active password_policy against the
// candidate password. previousHashes are opaque pre-hashed tokens supplied
// by the caller; the candidate is hashed with SHA-256 solely for the reuse
// comparison, no salting scheme is applied here.
func (e *Engine) ValidatePassword(policies []SecurityPolicy, password string, previousHashes []string) PasswordCheckResult {
	var errs []string

	for _, p := range activeOfType(policies, PolicyTypePasswordPolicy) {
		cfg := p.Config

		if cfg.MinLength > 0 && len(password) < cfg.MinLength {
			errs = append(errs, fmt.Sprintf("password must be at least %d characters long", cfg.MinLength))
		}
		if cfg.RequireUppercase && !containsClass(password, unicode.IsUpper) {
			errs = append(errs, "password must contain an uppercase letter")
		}
		if cfg.RequireLowercase && !containsClass(password, unicode.IsLower) {
			errs = append(errs, "password must contain a lowercase letter")
		}
		if cfg.RequireNumbers && !containsClass(password, unicode.IsDigit) {
			errs = append(errs, "password must contain a number")
		}
		if cfg.RequireSymbols && !containsClass(password, isSymbol) {
			errs = append(errs, "password must contain a symbol")
		}
		if cfg.PreventReuseCount > 0 && isReused(password, previousHashes, cfg.PreventReuseCount) {
			errs = append(errs, fmt.Sprintf("password must differ from your last %d passwords", cfg.PreventReuseCount))
		}
	}

	return PasswordCheckResult{Valid: len(errs) == 0, Errors: errs}
}

// PasswordExpired reports whether any active password_policy with a maximum
// age considers a password last changed at changedAt to be expired
func (e *Engine) PasswordExpired(policies []SecurityPolicy, changedAt time.Time) bool {
	now := e.clock.Now()
	for _, p := range activeOfType(policies, PolicyTypePasswordPolicy) {
		if p.Config.MaxAgeDays <= 0 {
			continue
		}
		if now.Sub(changedAt) > time.Duration(p.Config.MaxAgeDays)*24*time.Hour {
			return true
		}
	}
	return false
}

// HashPassword produces the opaque token format the reuse comparison
// expects. Callers maintaining password history should store these tokens.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func isReused(password string, previousHashes []string, window int) bool {
	if window > len(previousHashes) {
		window = len(previousHashes)
	}
	candidate := HashPassword(password)
	for _, prev := range previousHashes[:window] {
		if prev == candidate {
			return true
		}
	}
	return false
}

func containsClass(s string, class func(rune) bool) bool {
	for _, r := range s {
		if class(r) {
			return true
		}
	}
	return false
}

func isSymbol(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
