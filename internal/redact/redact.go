// Package redact masks credentials in text destined for logs and error
// messages, so a failed provider call can be reported verbatim without
// leaking API keys.
package redact

import (
	"regexp"
	"strings"
)

// RedactedValue is the replacement for redacted content.
const RedactedValue = "[REDACTED]"

// apiKeyPattern matches common API key formats (sk-..., key-..., and
// api_key=... assignments) that vendors sometimes echo back in error bodies.
var apiKeyPattern = regexp.MustCompile(`(?i)(sk-[a-zA-Z0-9_-]{20,}|key-[a-zA-Z0-9_-]{20,}|api[_-]?key[=:]["']?[a-zA-Z0-9_-]{20,})`)

// bearerPattern matches bearer tokens in header dumps.
var bearerPattern = regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._-]{16,}`)

// Secret replaces every occurrence of the given secrets in s, then scrubs
// anything that still looks like an API key or bearer token. Empty secrets
// are ignored.
func Secret(s string, secrets ...string) string {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, RedactedValue)
	}
	s = apiKeyPattern.ReplaceAllString(s, RedactedValue)
	s = bearerPattern.ReplaceAllString(s, RedactedValue)
	return s
}
