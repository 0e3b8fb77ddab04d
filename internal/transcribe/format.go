package transcribe

import (
	"fmt"
	"strings"
)

// Utterance is one uninterrupted turn by a single speaker, assembled
// from consecutive words with the same speaker id.
type Utterance struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
}

// AudioEvent is a non-speech sound detected in the recording.
type AudioEvent struct {
	Event string  `json:"event"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcript is the structured view of a recognition result.
type Transcript struct {
	LanguageCode        string       `json:"language_code"`
	LanguageProbability float64      `json:"language_probability"`
	Utterances          []Utterance  `json:"utterances"`
	AudioEvents         []AudioEvent `json:"audio_events"`
}

// Structure groups the word stream into speaker turns and collects
// detected audio events. Spacing entries contribute their text to the
// current turn but never open one.
func Structure(r *Result) *Transcript {
	t := &Transcript{
		LanguageCode:        r.LanguageCode,
		LanguageProbability: r.LanguageProbability,
	}

	var current *Utterance
	var buf strings.Builder

	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.TrimSpace(buf.String())
		if current.Text != "" {
			t.Utterances = append(t.Utterances, *current)
		}
		current = nil
		buf.Reset()
	}

	for _, w := range r.Words {
		switch w.Type {
		case "audio_event":
			event := w.AudioEvent
			if event == "" {
				event = w.Text
			}
			t.AudioEvents = append(t.AudioEvents, AudioEvent{
				Event: strings.Trim(event, "()"),
				Start: w.Start,
				End:   w.End,
			})
		case "spacing":
			if current != nil {
				buf.WriteString(w.Text)
			}
		default:
			if current == nil || (w.SpeakerID != "" && w.SpeakerID != current.Speaker) {
				flush()
				current = &Utterance{Speaker: w.SpeakerID, Start: w.Start}
			}
			if buf.Len() > 0 && !strings.HasSuffix(buf.String(), " ") {
				buf.WriteString(" ")
			}
			buf.WriteString(w.Text)
			current.End = w.End
		}
	}
	flush()
	return t
}

// PlainText renders the transcript in the speaker-prefixed line format
// consumed by the rest of the pipeline. Audio events are listed first
// when present. A result with no diarized words falls back to the raw
// recognized text.
func PlainText(r *Result) string {
	if len(r.Words) == 0 {
		return strings.TrimSpace(r.Text)
	}
	t := Structure(r)

	var b strings.Builder
	if len(t.AudioEvents) > 0 {
		parts := make([]string, 0, len(t.AudioEvents))
		for _, e := range t.AudioEvents {
			parts = append(parts, "("+e.Event+")")
		}
		b.WriteString(strings.Join(parts, " "))
		b.WriteString("\n\n")
	}
	for _, u := range t.Utterances {
		speaker := u.Speaker
		if speaker == "" {
			speaker = "speaker_0"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, u.Text)
	}
	return strings.TrimSpace(b.String())
}
