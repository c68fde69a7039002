package sso

import "fmt"

// MetadataError reports malformed or incomplete identity-provider metadata.
// It is fatal to the parse operation and administrator-facing.
type MetadataError struct {
	Reason string
	Err    error
}

func (e *MetadataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid identity provider metadata: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid identity provider metadata: %s", e.Reason)
}

func (e *MetadataError) Unwrap() error { return e.Err }

func metadataErrorf(format string, args ...any) *MetadataError {
	return &MetadataError{Reason: fmt.Sprintf(format, args...)}
}

// ValidationError reports an assertion that failed structural, signature,
// time-bound, or audience checks. The Reason is for server-side logs only;
// end users see the generic UserMessage so individual sub-checks never leak.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("assertion validation failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("assertion validation failed: %s", e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// UserMessage is the only text safe to show the end user
func (e *ValidationError) UserMessage() string { return "authentication failed" }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ConfigurationError reports an operation attempted against a configuration
// of the wrong provider type or with required fields missing
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid SSO configuration: %s", e.Reason)
}

func configurationErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}
