package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/avoronin/meetscribe/internal/redact"
)

// maxErrorBodyBytes caps how much of an error response we keep for the
// ProviderError message.
const maxErrorBodyBytes = 4096

// postJSON marshals payload, POSTs it to s.baseURL+path with the given
// headers, and decodes a 200 response into out. Any other outcome becomes
// a *ProviderError with the credential masked out of the message.
func (s *Strategy) postJSON(ctx context.Context, path string, headers map[string]string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &ProviderError{Provider: s.provider, Message: fmt.Sprintf("encoding request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &ProviderError{Provider: s.provider, Message: fmt.Sprintf("building request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &ProviderError{Provider: s.provider, Message: redact.Secret(err.Error(), s.apiKey)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &ProviderError{
			Provider:   s.provider,
			StatusCode: resp.StatusCode,
			Message:    redact.Secret(string(data), s.apiKey),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ProviderError{Provider: s.provider, Message: fmt.Sprintf("decoding response: %v", err)}
	}
	return nil
}
