package analyze

import (
	"strings"
	"testing"
)

func TestRenameSpeakers(t *testing.T) {
	transcript := "speaker_0: We mentioned speaker_1 in passing.\nspeaker_1: Indeed.\nspeaker_0: Moving on."
	speakers := map[string]Speaker{
		"speaker_0": {Name: "Anna"},
		"speaker_1": {Name: "Boris"},
	}

	got := RenameSpeakers(transcript, speakers)
	want := "Anna: We mentioned speaker_1 in passing.\nBoris: Indeed.\nAnna: Moving on."
	if got != want {
		t.Errorf("RenameSpeakers() = %q, want %q", got, want)
	}
}

func TestRenameSpeakers_UnknownKeepsLabel(t *testing.T) {
	transcript := "speaker_0: Hello.\nspeaker_1: Hi."
	speakers := map[string]Speaker{
		"speaker_0": {Name: "Unknown"},
		"speaker_1": {Name: ""},
	}

	if got := RenameSpeakers(transcript, speakers); got != transcript {
		t.Errorf("RenameSpeakers() = %q, want input unchanged", got)
	}
}

func TestRenameSpeakers_OnlyLineStarts(t *testing.T) {
	transcript := "speaker_0: Ask speaker_0: about the budget."
	got := RenameSpeakers(transcript, map[string]Speaker{"speaker_0": {Name: "Anna"}})
	if !strings.HasPrefix(got, "Anna: ") {
		t.Errorf("line prefix not renamed: %q", got)
	}
	if !strings.Contains(got, "Ask speaker_0: about") {
		t.Errorf("mid-line label should survive: %q", got)
	}
}

func TestApplyCorrections_LongestFirst(t *testing.T) {
	text := "the data base layer uses the data base"
	corrections := []Correction{
		{Original: "data base", Corrected: "database"},
		{Original: "data base layer", Corrected: "storage layer"},
	}

	got := ApplyCorrections(text, corrections)
	want := "the storage layer uses the database"
	if got != want {
		t.Errorf("ApplyCorrections() = %q, want %q", got, want)
	}
}

func TestApplyCorrections_SkipsDegenerate(t *testing.T) {
	text := "nothing changes here"
	corrections := []Correction{
		{Original: "", Corrected: "x"},
		{Original: "nothing", Corrected: "nothing"},
	}
	if got := ApplyCorrections(text, corrections); got != text {
		t.Errorf("ApplyCorrections() = %q, want input unchanged", got)
	}
}
