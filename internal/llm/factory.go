package llm

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// providerNames is the fixed set of supported providers, in display order.
var providerNames = []string{"anthropic", "openai", "deepseek"}

// Providers returns the supported provider identifiers in declaration order.
func Providers() []string {
	names := make([]string, len(providerNames))
	copy(names, providerNames)
	return names
}

// Config carries optional strategy settings. The zero value is usable.
type Config struct {
	BaseURL string        // override the provider endpoint (tests, proxies)
	Timeout time.Duration // per-call HTTP timeout (0 = DefaultTimeout)
	Logger  *slog.Logger
}

// New constructs the strategy for a provider. The match is
// case-insensitive; unrecognized identifiers fail with ErrUnknownProvider.
func New(provider, apiKey string) (*Strategy, error) {
	return NewWithConfig(provider, apiKey, Config{})
}

// NewWithConfig constructs a strategy with explicit settings.
func NewWithConfig(provider, apiKey string, cfg Config) (*Strategy, error) {
	var s *Strategy
	switch strings.ToLower(provider) {
	case "anthropic":
		s = anthropicStrategy(apiKey)
	case "openai":
		s = openaiStrategy(apiKey)
	case "deepseek":
		s = deepseekStrategy(apiKey)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}

	if cfg.BaseURL != "" {
		s.baseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	s.client = &http.Client{Timeout: timeout}
	s.logger = cfg.Logger
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}
