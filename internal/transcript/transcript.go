// Package transcript analyzes diarized transcript text of the form
// "speaker_N: utterance". It computes per-speaker statistics and splits
// long transcripts into chunks on utterance boundaries.
package transcript

import (
	"math"
	"regexp"
	"strings"
)

// speakerLine matches the start of an utterance at a line boundary.
var speakerLine = regexp.MustCompile(`(?m)^(speaker_\d+):[ \t]*`)

// Utterance is one speaker turn.
type Utterance struct {
	Speaker string
	Text    string
}

// Utterances scans transcript text into speaker turns. Text before the
// first speaker marker (e.g., audio-event annotations) is ignored.
// An utterance runs until the next speaker marker or end of input, so
// multi-line turns stay intact.
func Utterances(text string) []Utterance {
	matches := speakerLine.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	utterances := make([]Utterance, 0, len(matches))
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		utterances = append(utterances, Utterance{
			Speaker: text[m[2]:m[3]],
			Text:    strings.TrimSpace(text[m[1]:end]),
		})
	}
	return utterances
}

// SpeakerStats holds per-speaker counters.
type SpeakerStats struct {
	WordCount  int
	Utterances int
	Percentage float64 // share of total words, rounded to 2 decimals
}

// Stats summarizes a transcript.
type Stats struct {
	Speakers        map[string]SpeakerStats
	TotalWords      int
	TotalUtterances int
}

// Statistics counts words and utterances per speaker. Words are
// whitespace-separated tokens. Empty input yields empty stats.
func Statistics(text string) Stats {
	stats := Stats{Speakers: make(map[string]SpeakerStats)}

	for _, u := range Utterances(text) {
		words := len(strings.Fields(u.Text))
		stats.TotalWords += words
		stats.TotalUtterances++

		s := stats.Speakers[u.Speaker]
		s.WordCount += words
		s.Utterances++
		stats.Speakers[u.Speaker] = s
	}

	if stats.TotalWords > 0 {
		for speaker, s := range stats.Speakers {
			s.Percentage = math.Round(float64(s.WordCount)/float64(stats.TotalWords)*100*100) / 100
			stats.Speakers[speaker] = s
		}
	}
	return stats
}

// Split divides a transcript into chunks no larger than maxChunkSize
// characters, breaking only on utterance boundaries so no speaker turn is
// cut in half. A transcript at or under the limit comes back whole. A
// single utterance larger than the limit becomes its own oversized chunk.
func Split(text string, maxChunkSize int) []string {
	if len(text) <= maxChunkSize {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	for _, u := range Utterances(text) {
		line := u.Speaker + ": " + u.Text + "\n"
		if current.Len()+len(line) > maxChunkSize && current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
