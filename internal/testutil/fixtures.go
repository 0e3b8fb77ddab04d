// Package testutil provides shared test fixtures: scripted LLM
// providers and recognition-result builders for consistent, realistic
// test data.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/avoronin/meetscribe/internal/llm"
	"github.com/avoronin/meetscribe/internal/transcribe"
)

// SampleTranscript is a small diarized meeting in the speaker-prefixed
// line format the pipeline works with.
const SampleTranscript = `speaker_0: Good morning everyone, thanks for joining the quarterly review.
speaker_1: Happy to be here. Shall we start with the roadmap?
speaker_0: Yes. The ingestion service shipped last week and the migration is on track.
speaker_2: One caveat from my side, the load tests surfaced a memory issue we still need to chase down.
speaker_1: Noted. Let's make that the first action item.`

// Reply is one canned LLM completion.
type Reply struct {
	Content          string
	FinishReason     string // "" = "stop"
	PromptTokens     int
	CompletionTokens int
	CachedTokens     int
}

// CapturedRequest is one decoded chat-completion request body.
type CapturedRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

// Message mirrors the wire message shape.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMScript is a fake chat-completion endpoint that replays queued
// replies in order and records every request it served. The last reply
// is repeated if the code under test calls more often than scripted.
type LLMScript struct {
	Strategy *llm.Strategy

	mu       sync.Mutex
	replies  []Reply
	calls    int
	requests []CapturedRequest
}

// ScriptLLM starts a scripted provider and returns it together with a
// strategy wired to it. The server is torn down with the test.
func ScriptLLM(t *testing.T, replies ...Reply) *LLMScript {
	t.Helper()
	if len(replies) == 0 {
		t.Fatal("ScriptLLM needs at least one reply")
	}
	script := &LLMScript{replies: replies}

	server := httptest.NewServer(http.HandlerFunc(script.serve))
	t.Cleanup(server.Close)

	strategy, err := llm.NewWithConfig("openai", "test-key", llm.Config{
		BaseURL: server.URL,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("building scripted strategy: %v", err)
	}
	script.Strategy = strategy
	return script
}

func (s *LLMScript) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	var captured CapturedRequest
	json.Unmarshal(body, &captured)
	s.requests = append(s.requests, captured)

	idx := s.calls
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	reply := s.replies[idx]
	s.calls++
	s.mu.Unlock()

	finish := reply.FinishReason
	if finish == "" {
		finish = "stop"
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{
		"choices": [{"message": {"content": %s}, "finish_reason": %q}],
		"usage": {
			"prompt_tokens": %d,
			"completion_tokens": %d,
			"prompt_tokens_details": {"cached_tokens": %d}
		}
	}`, mustJSON(reply.Content), finish, reply.PromptTokens, reply.CompletionTokens, reply.CachedTokens)
}

// Calls returns how many requests the script has served.
func (s *LLMScript) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Requests returns a copy of the decoded request bodies served so far.
func (s *LLMScript) Requests() []CapturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CapturedRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// RecognitionBuilder provides a fluent API for building speech
// recognition results.
type RecognitionBuilder struct {
	result *transcribe.Result
	cursor float64
}

// NewRecognition creates a builder with sensible defaults.
func NewRecognition() *RecognitionBuilder {
	return &RecognitionBuilder{
		result: &transcribe.Result{
			LanguageCode:        "en",
			LanguageProbability: 0.97,
		},
	}
}

// Say appends a spoken sentence by the given speaker, advancing time
// and inserting spacing entries between words.
func (b *RecognitionBuilder) Say(speaker, sentence string) *RecognitionBuilder {
	words := strings.Fields(sentence)
	for i, word := range words {
		if i > 0 {
			b.result.Words = append(b.result.Words, transcribe.Word{
				Text: " ", Type: "spacing", Start: b.cursor, End: b.cursor + 0.05,
			})
			b.cursor += 0.05
		}
		b.result.Words = append(b.result.Words, transcribe.Word{
			Text: word, Type: "word", SpeakerID: speaker,
			Start: b.cursor, End: b.cursor + 0.3,
		})
		b.cursor += 0.3
	}
	b.cursor += 0.5
	return b
}

// Event appends a detected audio event.
func (b *RecognitionBuilder) Event(name string) *RecognitionBuilder {
	b.result.Words = append(b.result.Words, transcribe.Word{
		Type: "audio_event", AudioEvent: name,
		Start: b.cursor, End: b.cursor + 1,
	})
	b.cursor += 1.5
	return b
}

// Build returns the assembled result with Text set to the joined words.
func (b *RecognitionBuilder) Build() *transcribe.Result {
	var text string
	for _, w := range b.result.Words {
		if w.Type != "audio_event" {
			text += w.Text
		}
	}
	b.result.Text = text
	return b.result
}

