package service

import "errors"

var (
	// ErrEmptyMessage rejects whitespace-only input before anything else runs.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrGuestLimitReached signals the guest quota gate; callers map it to
	// 429 with a machine-readable code.
	ErrGuestLimitReached = errors.New("guest message limit reached")

	// ErrNoAPIKey means no credential was found in any source for the
	// resolved provider.
	ErrNoAPIKey = errors.New("no API key configured for this provider")

	// ErrEmptyCompletion means the upstream call succeeded but produced no
	// content.
	ErrEmptyCompletion = errors.New("empty response from upstream API")
)

// UpstreamError wraps a network or provider-side failure reaching the
// completion API. The gateway never retries these itself.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return "upstream: " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
