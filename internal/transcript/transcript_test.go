package transcript

import (
	"strings"
	"testing"
)

const sampleTranscript = `speaker_0: Good morning everyone, let's get started.
speaker_1: Thanks. I have three updates today.
speaker_0: Go ahead.
speaker_1: First, the release went out on schedule.
Second, we closed the billing bug.
speaker_2: Quick question about the release.
`

func TestUtterances(t *testing.T) {
	utterances := Utterances(sampleTranscript)

	if len(utterances) != 5 {
		t.Fatalf("Utterances() returned %d turns, want 5", len(utterances))
	}
	if utterances[0].Speaker != "speaker_0" {
		t.Errorf("utterances[0].Speaker = %q", utterances[0].Speaker)
	}
	// A turn spanning multiple lines stays intact.
	if !strings.Contains(utterances[3].Text, "Second, we closed the billing bug.") {
		t.Errorf("multi-line utterance split: %q", utterances[3].Text)
	}
	if utterances[4].Speaker != "speaker_2" {
		t.Errorf("utterances[4].Speaker = %q", utterances[4].Speaker)
	}
}

func TestUtterances_LeadingNoise(t *testing.T) {
	text := "[laughter]\n\nspeaker_0: hello there\n"
	utterances := Utterances(text)
	if len(utterances) != 1 {
		t.Fatalf("Utterances() returned %d turns, want 1", len(utterances))
	}
	if utterances[0].Text != "hello there" {
		t.Errorf("Text = %q, want %q", utterances[0].Text, "hello there")
	}
}

func TestUtterances_Empty(t *testing.T) {
	if got := Utterances("no speakers here"); got != nil {
		t.Errorf("Utterances() = %v, want nil", got)
	}
}

func TestStatistics(t *testing.T) {
	stats := Statistics(sampleTranscript)

	if stats.TotalUtterances != 5 {
		t.Errorf("TotalUtterances = %d, want 5", stats.TotalUtterances)
	}
	if len(stats.Speakers) != 3 {
		t.Errorf("speaker count = %d, want 3", len(stats.Speakers))
	}

	s0 := stats.Speakers["speaker_0"]
	if s0.Utterances != 2 {
		t.Errorf("speaker_0 utterances = %d, want 2", s0.Utterances)
	}
	// "Good morning everyone, let's get started." (6) + "Go ahead." (2)
	if s0.WordCount != 8 {
		t.Errorf("speaker_0 words = %d, want 8", s0.WordCount)
	}

	var totalPercent float64
	for _, s := range stats.Speakers {
		totalPercent += s.Percentage
	}
	if totalPercent < 99.0 || totalPercent > 101.0 {
		t.Errorf("percentages sum to %v, want ~100", totalPercent)
	}
}

func TestStatistics_Empty(t *testing.T) {
	stats := Statistics("")
	if stats.TotalWords != 0 || stats.TotalUtterances != 0 || len(stats.Speakers) != 0 {
		t.Errorf("Statistics(\"\") = %+v, want empty", stats)
	}
}

func TestSplit_ShortTextStaysWhole(t *testing.T) {
	chunks := Split(sampleTranscript, 4000)
	if len(chunks) != 1 {
		t.Fatalf("Split() returned %d chunks, want 1", len(chunks))
	}
	if chunks[0] != sampleTranscript {
		t.Error("short transcript was modified")
	}
}

func TestSplit_BreaksOnUtteranceBoundaries(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("speaker_0: this utterance has exactly enough words to matter\n")
	}
	text := sb.String()

	chunks := Split(text, 300)
	if len(chunks) < 2 {
		t.Fatalf("Split() returned %d chunks, want several", len(chunks))
	}
	for i, chunk := range chunks {
		if !strings.HasPrefix(chunk, "speaker_0: ") {
			t.Errorf("chunk %d does not start at an utterance boundary: %q", i, chunk[:40])
		}
		if !strings.HasSuffix(chunk, "\n") {
			t.Errorf("chunk %d cuts an utterance in half", i)
		}
	}
}

func TestSplit_NothingLost(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 25; i++ {
		sb.WriteString("speaker_1: utterance number content goes here\n")
	}
	text := sb.String()

	var rejoined strings.Builder
	for _, chunk := range Split(text, 200) {
		rejoined.WriteString(chunk)
	}
	if rejoined.String() != text {
		t.Error("Split() lost or reordered content")
	}
}
