package social

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to API callers.
var (
	// ErrAccountNotFound means the account is unknown or no longer active.
	ErrAccountNotFound = errors.New("social: account not found or inactive")
	// ErrCredentialMissing means no usable token is stored for the account.
	ErrCredentialMissing = errors.New("social: no stored credential for account")
	// ErrUnauthorized means the caller identity could not be verified. The
	// connect flow fails closed instead of guessing a user.
	ErrUnauthorized = errors.New("social: caller identity required")
)

// ConfigurationError reports missing provider credentials. Fatal for the
// request and not user-actionable.
type ConfigurationError struct {
	Platform string
	Missing  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("social: %s is not configured (missing %s)", e.Platform, e.Missing)
}

// StateError reports an absent, expired, replayed or foreign state nonce.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string {
	return "social: invalid oauth state: " + e.Reason
}

// TokenExchangeError reports a failed authorization-code exchange. Codes are
// single-use, so the user must restart the flow; the provider's status and
// body are carried for diagnostics.
type TokenExchangeError struct {
	Platform string
	Status   int
	Body     string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("social: %s token exchange failed: status=%d body=%s", e.Platform, e.Status, e.Body)
}

// IdentityFetchError reports that the provider returned no linkable identity,
// e.g. a Google login without a YouTube channel. User-facing and not
// retriable.
type IdentityFetchError struct {
	Platform string
	Reason   string
}

func (e *IdentityFetchError) Error() string {
	return fmt.Sprintf("social: %s identity fetch failed: %s", e.Platform, e.Reason)
}

// CredentialExpiredError reports a stored token the provider rejected with a
// 401-class response. The caller should prompt reconnection, not retry.
type CredentialExpiredError struct {
	Platform string
}

func (e *CredentialExpiredError) Error() string {
	return fmt.Sprintf("social: %s access token expired, reconnect the account", e.Platform)
}

// ProviderUnavailableError wraps transient network failures and provider 5xx
// responses. Unlike the other errors it is safe to retry with backoff.
type ProviderUnavailableError struct {
	Platform string
	Err      error
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("social: %s temporarily unavailable: %v", e.Platform, e.Err)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }
