package notion

import (
	"errors"
	"fmt"
)

// ErrMissingCode indicates the caller did not supply an authorization code.
// Recovered locally; no network call is made.
var ErrMissingCode = errors.New("authorization code is missing")

// ErrMissingUserID indicates a direct delivery without a local user id.
var ErrMissingUserID = errors.New("user ID is missing")

// ProviderError carries an authorization error reported by Notion itself
// (e.g. the user denied access). Never retried.
type ProviderError struct {
	Reason string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("notion authorization error: %s", e.Reason)
}

// ConfigError indicates a missing piece of exchange configuration. The
// message deliberately does not say which piece; the detail goes to the
// server log only.
type ConfigError struct {
	missing string
}

func (e *ConfigError) Error() string { return "notion oauth configuration incomplete" }

// Missing names the absent field, for logging.
func (e *ConfigError) Missing() string { return e.missing }

// ExchangeError is a non-success response from the token endpoint. The code
// is single-use, so the exchange is never retried.
type ExchangeError struct {
	Status      int
	Code        string
	Description string
}

func (e *ExchangeError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("token exchange failed: %d %s: %s", e.Status, e.Code, e.Description)
	}
	return fmt.Sprintf("token exchange failed: status %d", e.Status)
}
