package ports

import "errors"

// Sentinel errors returned by adapters. The core classification pipeline's
// own error taxonomy (invalid instrument, insufficient data, invalid
// candle) lives in internal/domain and never surfaces from here; these are
// transport, auth, configuration, and persistence failures that belong to
// collaborators outside the core.
var (
	// ErrConfigurationError is returned when required configuration is
	// missing or malformed at startup.
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// ErrNotFound is returned by storage and lookup adapters when a
	// requested record does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrAuthenticationFailed is returned by the quote-vendor adapter when
	// the vendor rejects the access token (HTTP 401). Failures of the OAuth
	// code exchange or refresh are not wrapped with it.
	ErrAuthenticationFailed = errors.New("vendor authentication failed")

	// ErrVendorUnavailable is returned when the upstream quote vendor
	// cannot be reached or returns a server error.
	ErrVendorUnavailable = errors.New("quote vendor unavailable")

	// ErrRateLimited is returned when the quote vendor answers with HTTP
	// 429. The adapter's local rate limiter waits rather than rejecting.
	ErrRateLimited = errors.New("quote vendor rate limit exceeded")
)
