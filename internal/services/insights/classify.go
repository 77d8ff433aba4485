package insights

import (
	"context"
	"errors"
	"strings"
)

// ErrorCause classifies why a fetch failed
type ErrorCause string

const (
	CauseMissingCredential ErrorCause = "missing_credential"
	CauseProviderDisabled  ErrorCause = "provider_disabled"
	CausePermissionDenied  ErrorCause = "permission_denied"
	CauseInvalidCredential ErrorCause = "invalid_credential"
	CauseNetwork           ErrorCause = "network"
	CauseUnknown           ErrorCause = "unknown"
)

// Message returns the human-readable explanation of the cause
func (c ErrorCause) Message() string {
	switch c {
	case CauseMissingCredential:
		return "no API key is configured for the AI provider"
	case CauseProviderDisabled:
		return "the AI provider API is not enabled for this project"
	case CausePermissionDenied:
		return "the API key does not have permission to use the AI provider"
	case CauseInvalidCredential:
		return "the API key was rejected by the AI provider"
	case CauseNetwork:
		return "the AI provider could not be reached, check the network connection"
	default:
		return "the AI provider returned an unexpected error"
	}
}

// ErrorRule maps an error substring to a cause
type ErrorRule struct {
	Substring string
	Cause     ErrorCause
}

// DefaultErrorRules is the ordered classification table. The first rule whose
// substring appears in the error text wins; matching is case-insensitive.
var DefaultErrorRules = []ErrorRule{
	// Provider API disabled for the project
	{Substring: "SERVICE_DISABLED", Cause: CauseProviderDisabled},
	{Substring: "has not been used in project", Cause: CauseProviderDisabled},
	{Substring: "it is disabled", Cause: CauseProviderDisabled},

	// Credential rejected
	{Substring: "API_KEY_INVALID", Cause: CauseInvalidCredential},
	{Substring: "API key not valid", Cause: CauseInvalidCredential},
	{Substring: "API key expired", Cause: CauseInvalidCredential},
	{Substring: "invalid x-api-key", Cause: CauseInvalidCredential},
	{Substring: "authentication_error", Cause: CauseInvalidCredential},
	{Substring: "Error 401", Cause: CauseInvalidCredential},
	{Substring: "401 Unauthorized", Cause: CauseInvalidCredential},

	// Credential lacks permission
	{Substring: "PERMISSION_DENIED", Cause: CausePermissionDenied},
	{Substring: "permission_error", Cause: CausePermissionDenied},
	{Substring: "Error 403", Cause: CausePermissionDenied},
	{Substring: "403 Forbidden", Cause: CausePermissionDenied},

	// Transport
	{Substring: "no such host", Cause: CauseNetwork},
	{Substring: "connection refused", Cause: CauseNetwork},
	{Substring: "connection reset", Cause: CauseNetwork},
	{Substring: "network is unreachable", Cause: CauseNetwork},
	{Substring: "i/o timeout", Cause: CauseNetwork},
	{Substring: "TLS handshake", Cause: CauseNetwork},
	{Substring: "dial tcp", Cause: CauseNetwork},
	{Substring: "unexpected EOF", Cause: CauseNetwork},
}

// Classify returns the cause of err using rules in order. Context cancellation and
// deadlines classify as network failures. Unmatched errors are CauseUnknown.
func Classify(err error, rules []ErrorRule) ErrorCause {
	if err == nil {
		return CauseUnknown
	}

	if errors.Is(err, ErrMissingCredential) {
		return CauseMissingCredential
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CauseNetwork
	}

	text := strings.ToLower(err.Error())
	for _, rule := range rules {
		if rule.Substring != "" && strings.Contains(text, strings.ToLower(rule.Substring)) {
			return rule.Cause
		}
	}

	return CauseUnknown
}
