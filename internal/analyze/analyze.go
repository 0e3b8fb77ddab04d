// Package analyze runs LLM analysis passes over meeting transcripts:
// speaker identification and recognition-error detection. Responses are
// expected as fenced JSON; unparseable replies are preserved raw rather
// than dropped, so the caller can still show what the model said.
package analyze

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/avoronin/meetscribe/internal/llm"
	"github.com/avoronin/meetscribe/internal/transcript"
)

// Defaults for the analysis calls. Identification is deterministic
// work, so temperature stays at zero.
const (
	DefaultMaxTokens   = 2048
	DefaultTemperature = 0.0
)

// SpeakerStatistics is the participation data merged into each
// identified speaker.
type SpeakerStatistics struct {
	WordCount  int     `json:"word_count"`
	Percentage float64 `json:"percentage"`
	Utterances int     `json:"utterances"`
}

// Speaker is the model's judgment about one diarized speaker.
type Speaker struct {
	Name       string             `json:"name"`
	Role       string             `json:"role"`
	Confidence string             `json:"confidence"`
	Statistics *SpeakerStatistics `json:"statistics,omitempty"`
}

// SpeakerResult is the outcome of a speaker-identification pass.
// When the model's reply could not be parsed as JSON, Speakers is empty
// and RawResponse holds the reply verbatim.
type SpeakerResult struct {
	Speakers    map[string]Speaker `json:"speakers"`
	Summary     string             `json:"summary"`
	RawResponse string             `json:"raw_response,omitempty"`
}

// Correction is one suggested recognition fix.
type Correction struct {
	Original  string `json:"original"`
	Corrected string `json:"corrected"`
	Reason    string `json:"reason"`
}

// CorrectionResult is the outcome of a correction pass.
type CorrectionResult struct {
	Corrections []Correction `json:"corrections"`
	RawResponse string       `json:"raw_response,omitempty"`
}

// Options configures one analysis call.
type Options struct {
	Model       string
	MaxTokens   int     // 0 = DefaultMaxTokens
	Temperature float64 // identification runs at 0 by default
}

func (o Options) maxTokens() int {
	if o.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return o.MaxTokens
}

// jsonFence matches a ```json code block; the reply may surround it
// with prose.
var jsonFence = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// extractJSON returns the fenced JSON payload if present, otherwise the
// whole reply.
func extractJSON(reply string) string {
	if m := jsonFence.FindStringSubmatch(reply); m != nil {
		return m[1]
	}
	return strings.TrimSpace(reply)
}

// IdentifySpeakers asks the model to name the diarized speakers and
// summarize the meeting. Participation statistics computed from the
// transcript are embedded in the prompt and merged into the parsed
// result. Provider failures return an error; a reply that merely fails
// to parse does not.
func IdentifySpeakers(ctx context.Context, s *llm.Strategy, transcriptText string, opts Options) (*SpeakerResult, error) {
	stats := transcript.Statistics(transcriptText)

	resp, err := s.SendMessage(ctx, llm.Request{
		SystemPrompt: speakerSystemPrompt,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf(speakerUserPrompt, formatStats(stats), transcriptText),
		}},
		Model:       opts.Model,
		MaxTokens:   opts.maxTokens(),
		Temperature: opts.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("identifying speakers: %w", err)
	}

	var result SpeakerResult
	if err := json.Unmarshal([]byte(extractJSON(resp.Content)), &result); err != nil {
		return &SpeakerResult{
			Speakers:    map[string]Speaker{},
			RawResponse: resp.Content,
		}, nil
	}
	if result.Speakers == nil {
		result.Speakers = map[string]Speaker{}
	}

	for id, sp := range result.Speakers {
		st, ok := stats.Speakers[id]
		if !ok {
			continue
		}
		sp.Statistics = &SpeakerStatistics{
			WordCount:  st.WordCount,
			Percentage: st.Percentage,
			Utterances: st.Utterances,
		}
		result.Speakers[id] = sp
	}
	return &result, nil
}

// IdentifyCorrections asks the model to find likely speech-recognition
// errors. contextText is optional domain vocabulary (project names,
// participants); pass "" when none exists.
func IdentifyCorrections(ctx context.Context, s *llm.Strategy, transcriptText, contextText string, opts Options) (*CorrectionResult, error) {
	if strings.TrimSpace(contextText) == "" {
		contextText = noContext
	}

	resp, err := s.SendMessage(ctx, llm.Request{
		SystemPrompt: correctionSystemPrompt,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: fmt.Sprintf(correctionUserPrompt, contextText, transcriptText),
		}},
		Model:       opts.Model,
		MaxTokens:   opts.maxTokens(),
		Temperature: opts.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("identifying corrections: %w", err)
	}

	var result CorrectionResult
	if err := json.Unmarshal([]byte(extractJSON(resp.Content)), &result); err != nil {
		return &CorrectionResult{
			Corrections: []Correction{},
			RawResponse: resp.Content,
		}, nil
	}
	if result.Corrections == nil {
		result.Corrections = []Correction{}
	}
	return &result, nil
}

// formatStats renders per-speaker participation lines for the prompt,
// in stable speaker order.
func formatStats(stats transcript.Stats) string {
	ids := make([]string, 0, len(stats.Speakers))
	for id := range stats.Speakers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		st := stats.Speakers[id]
		fmt.Fprintf(&b, "%s: %d words, %.2f%% of the conversation\n", id, st.WordCount, st.Percentage)
	}
	return b.String()
}
