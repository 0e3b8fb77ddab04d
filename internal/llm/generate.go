package llm

import (
	"context"
	"strings"
)

// DefaultContinuationPrompt asks the model to resume a truncated response.
const DefaultContinuationPrompt = "Please continue exactly from where it left off."

// DefaultMaxAttempts bounds the number of calls one GenerateFullResponse
// may make.
const DefaultMaxAttempts = 3

// GenerateOptions configures one full-response generation.
type GenerateOptions struct {
	SystemPrompt       string
	InitialMessage     string
	Model              string
	MaxTokensPerChunk  int
	Temperature        float64
	MaxAttempts        int    // 0 means DefaultMaxAttempts
	ContinuationPrompt string // "" means DefaultContinuationPrompt
}

// GenerateFullResponse produces one logically-complete response even when
// the provider's per-call output ceiling truncates generation. It calls
// SendMessage sequentially, and whenever the stop reason is the provider's
// length sentinel it appends the partial chunk as an assistant message
// followed by a continuation prompt, then asks again. Chunks concatenate
// in call order.
//
// Calls are strictly sequential: each call's truncation outcome and text
// gate the next one. Provider errors propagate immediately; chunks already
// generated (and billed) are reflected in the usage snapshot, which after
// completion holds the sum of all internal calls' counters rather than the
// last call's.
func (s *Strategy) GenerateFullResponse(ctx context.Context, opts GenerateOptions) (string, error) {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	continuation := opts.ContinuationPrompt
	if continuation == "" {
		continuation = DefaultContinuationPrompt
	}

	conversation := []Message{{Role: RoleUser, Content: opts.InitialMessage}}
	var total Usage
	var full strings.Builder

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := s.SendMessage(ctx, Request{
			SystemPrompt: opts.SystemPrompt,
			Messages:     conversation,
			Model:        opts.Model,
			MaxTokens:    opts.MaxTokensPerChunk,
			Temperature:  opts.Temperature,
		})
		if err != nil {
			// Keep what was already billed visible to the caller.
			s.setLastUsage(total)
			return "", err
		}

		total.add(resp.Usage)
		full.WriteString(resp.Content)

		truncated := s.TruncatedByLength(resp.StopReason)
		lastAttempt := attempt == maxAttempts

		if truncated && !lastAttempt {
			conversation = append(conversation,
				Message{Role: RoleAssistant, Content: resp.Content},
				Message{Role: RoleUser, Content: continuation},
			)
			continue
		}

		if truncated && lastAttempt && s.logger != nil {
			s.logger.Warn("response still truncated after final continuation attempt",
				"provider", s.provider,
				"model", opts.Model,
				"attempts", maxAttempts,
			)
		}
		break
	}

	s.setLastUsage(total)
	return strings.TrimSpace(full.String()), nil
}
