package llm

import (
	"errors"
	"fmt"
)

// ErrUnknownProvider is returned by New for an unrecognized provider id.
var ErrUnknownProvider = errors.New("unknown LLM provider")

// ErrUnknownModel is returned when a model name is not in the strategy's catalog.
var ErrUnknownModel = errors.New("unknown model")

// ProviderError represents a failed provider API call: network failure,
// authentication failure, rate limiting, or a malformed response.
// It is never retried inside SendMessage; callers decide whether to retry
// the whole operation.
type ProviderError struct {
	Provider   string
	StatusCode int    // 0 when the request never reached the provider
	Message    string // redacted response body or transport error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}
