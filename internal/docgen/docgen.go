// Package docgen produces meeting documents (readable transcript,
// summary) from analyzed transcripts. Long transcripts are split on
// utterance boundaries and generated progressively, feeding each chunk
// to the model together with the tail of the document written so far.
package docgen

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/avoronin/meetscribe/internal/analyze"
	"github.com/avoronin/meetscribe/internal/llm"
	"github.com/avoronin/meetscribe/internal/session"
	"github.com/avoronin/meetscribe/internal/transcript"
)

const (
	// DefaultChunkSize is the transcript slice fed to one progressive
	// step, in bytes.
	DefaultChunkSize = 4000

	// DefaultMaxTokens caps the output of one generation step.
	DefaultMaxTokens = 2048

	// contextTail is how much of the already-generated document is
	// replayed to the model on each continuation step.
	contextTail = 2000
)

// Options configures one document generation.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int // 0 = DefaultMaxTokens
	ChunkSize   int // 0 = DefaultChunkSize

	// Progress, when set, is called after every completed generation
	// step with the step number and the total step count.
	Progress func(step, total int)
}

func (o Options) maxTokens() int {
	if o.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return o.MaxTokens
}

func (o Options) chunkSize() int {
	if o.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return o.ChunkSize
}

// Generator drives document generation through one LLM strategy.
// Usage of every step is pushed into the session totals when one is
// attached.
type Generator struct {
	strategy *llm.Strategy
	totals   *session.Totals
	logger   *slog.Logger
}

// New creates a generator. totals may be nil to skip accounting.
func New(strategy *llm.Strategy, totals *session.Totals, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{strategy: strategy, totals: totals, logger: logger}
}

// TranscriptDocument generates the readable meeting transcript in
// markdown.
func (g *Generator) TranscriptDocument(ctx context.Context, transcriptText string, speakers map[string]analyze.Speaker, opts Options) (string, error) {
	doc, err := g.progressive(ctx, progressiveInput{
		systemPrompt: transcriptSystemPrompt,
		userPrompt:   transcriptUserPrompt,
		continuation: transcriptContinuation,
		transcript:   transcriptText,
		participants: formatParticipants(speakers),
		opts:         opts,
	})
	if err != nil {
		return "", fmt.Errorf("generating transcript document: %w", err)
	}
	return doc, nil
}

// MeetingSummary generates the meeting summary in markdown.
func (g *Generator) MeetingSummary(ctx context.Context, transcriptText string, speakers map[string]analyze.Speaker, opts Options) (string, error) {
	doc, err := g.progressive(ctx, progressiveInput{
		systemPrompt: summarySystemPrompt,
		userPrompt:   summaryUserPrompt,
		continuation: summaryContinuation,
		transcript:   transcriptText,
		participants: formatParticipants(speakers),
		opts:         opts,
	})
	if err != nil {
		return "", fmt.Errorf("generating meeting summary: %w", err)
	}
	return doc, nil
}

// Documents generates both meeting documents.
func (g *Generator) Documents(ctx context.Context, transcriptText string, speakers map[string]analyze.Speaker, opts Options) (transcriptDoc, summaryDoc string, err error) {
	transcriptDoc, err = g.TranscriptDocument(ctx, transcriptText, speakers, opts)
	if err != nil {
		return "", "", err
	}
	summaryDoc, err = g.MeetingSummary(ctx, transcriptText, speakers, opts)
	if err != nil {
		return "", "", err
	}
	return transcriptDoc, summaryDoc, nil
}

type progressiveInput struct {
	systemPrompt string
	userPrompt   string
	continuation string
	transcript   string
	participants string
	opts         Options
}

// progressive generates a document chunk by chunk. Each step goes
// through GenerateFullResponse, so output-ceiling truncation inside a
// step is stitched before the next chunk is attempted. A failed step
// aborts the document; partial output is not worth returning since the
// caller cannot tell where it stops.
func (g *Generator) progressive(ctx context.Context, in progressiveInput) (string, error) {
	chunks := transcript.Split(in.transcript, in.opts.chunkSize())

	generate := func(message string) (string, error) {
		out, err := g.strategy.GenerateFullResponse(ctx, llm.GenerateOptions{
			SystemPrompt:      in.systemPrompt,
			InitialMessage:    message,
			Model:             in.opts.Model,
			MaxTokensPerChunk: in.opts.maxTokens(),
			Temperature:       in.opts.Temperature,
		})
		if g.totals != nil {
			// Record even on failure, the tokens were billed.
			g.totals.Record(g.strategy)
		}
		return out, err
	}

	report := func(step int) {
		if in.opts.Progress != nil {
			in.opts.Progress(step, len(chunks))
		}
	}

	document, err := generate(fmt.Sprintf(in.userPrompt, in.participants, chunks[0]))
	if err != nil {
		return "", err
	}
	report(1)

	for i, chunk := range chunks[1:] {
		g.logger.Debug("document continuation step", "step", i+1, "of", len(chunks)-1)
		message := fmt.Sprintf("%s\n\nDocument so far:\n%s\n\nAdditional transcript data:\n%s",
			in.continuation, tail(document, contextTail), chunk)
		part, err := generate(message)
		if err != nil {
			return "", err
		}
		document += "\n" + part
		report(i + 2)
	}
	return document, nil
}

// tail returns the last n bytes of s without splitting a UTF-8
// sequence.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := len(s) - n
	for cut < len(s) && !isRuneStart(s[cut]) {
		cut++
	}
	return s[cut:]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// formatParticipants renders the speaker list for the prompts, in
// stable speaker order. Speakers the model could not name keep their
// diarization label.
func formatParticipants(speakers map[string]analyze.Speaker) string {
	ids := make([]string, 0, len(speakers))
	for id := range speakers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for _, id := range ids {
		sp := speakers[id]
		name := strings.TrimSpace(sp.Name)
		if name == "" || name == "Unknown" {
			name = id
		}
		role := sp.Role
		if role == "" {
			role = "role undetermined"
		}
		fmt.Fprintf(&b, "%s - %s (%s)\n", id, name, role)
	}
	if b.Len() == 0 {
		return "No participant information available.\n"
	}
	return b.String()
}
