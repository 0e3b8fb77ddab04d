// Package llm sends prompts to heterogeneous LLM provider APIs behind one
// contract, normalizing their divergent message shapes, usage reporting, and
// cache pricing into a common accounting model.
package llm

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Message roles. The system prompt is carried out-of-band in Request,
// never as a Message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes a single provider call.
type Request struct {
	SystemPrompt string
	Messages     []Message
	Model        string
	MaxTokens    int
	Temperature  float64
}

// Response is the normalized result of a single provider call.
// StopReason is the provider-native string; test it with
// Strategy.TruncatedByLength rather than comparing values directly,
// since the truncation vocabulary differs per provider.
type Response struct {
	Content    string
	StopReason string
	Usage      Usage
}

// sendFunc adapts a normalized Request to one provider's wire shape,
// performs the call, and maps the response back. This is where provider
// incompatibility is absorbed.
type sendFunc func(ctx context.Context, s *Strategy, req Request) (*Response, error)

// DefaultTimeout bounds a single provider HTTP call.
const DefaultTimeout = 120 * time.Second

// Strategy encapsulates one provider's credential, model catalog, pricing
// rules, and call logic. One instance serves one logical operation at a
// time: the usage snapshot is overwritten by each top-level call, so
// concurrent calls through a shared instance would interleave snapshots
// meaninglessly (the mutex only keeps the counters internally consistent).
type Strategy struct {
	provider   string
	apiKey     string
	baseURL    string
	catalog    []Model
	cost       costFunc
	send       sendFunc
	lengthStop string
	client     *http.Client
	logger     *slog.Logger

	mu   sync.Mutex
	last Usage
}

// Provider returns the provider identifier (e.g., "anthropic").
func (s *Strategy) Provider() string {
	return s.provider
}

// Models returns the catalog's model names in declaration order.
func (s *Strategy) Models() []string {
	names := make([]string, len(s.catalog))
	for i, m := range s.catalog {
		names[i] = m.Name
	}
	return names
}

// MaxOutputTokens returns the declared output-token ceiling for a model.
// Returns ErrUnknownModel for names absent from the catalog.
func (s *Strategy) MaxOutputTokens(modelName string) (int, error) {
	m := findModel(s.catalog, modelName)
	if m == nil {
		return 0, ErrUnknownModel
	}
	return m.MaxOutputTokens, nil
}

// LastUsage returns the usage snapshot of the most recently completed
// logical operation. Zero-valued before the first call.
func (s *Strategy) LastUsage() Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Cost returns the USD cost of the current usage snapshot.
// Returns 0.0 when no call has been made yet or the snapshot's model is
// not in the catalog; billing-display paths must never fail here.
func (s *Strategy) Cost() float64 {
	u := s.LastUsage()
	if u.Model == "" {
		return 0
	}
	m := findModel(s.catalog, u.Model)
	if m == nil {
		return 0
	}
	return s.cost(u, m)
}

// TruncatedByLength reports whether a stop reason means generation was
// cut off by the output-token ceiling for this provider.
func (s *Strategy) TruncatedByLength(stopReason string) bool {
	return stopReason != "" && stopReason == s.lengthStop
}

// SendMessage performs one provider call. On success the usage snapshot
// is overwritten (not accumulated) with the counts of that single call.
// Failures surface as *ProviderError and are not retried here.
func (s *Strategy) SendMessage(ctx context.Context, req Request) (*Response, error) {
	resp, err := s.send(ctx, s, req)
	if err != nil {
		return nil, err
	}
	s.setLastUsage(resp.Usage)
	return resp, nil
}

func (s *Strategy) setLastUsage(u Usage) {
	s.mu.Lock()
	s.last = u
	s.mu.Unlock()
}
