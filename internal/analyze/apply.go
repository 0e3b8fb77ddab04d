package analyze

import (
	"sort"
	"strings"
)

// unknownName is what the model reports when it cannot infer a
// speaker's name; such speakers keep their diarization label.
const unknownName = "Unknown"

// RenameSpeakers rewrites speaker labels at the start of transcript
// lines with the identified names. Speakers without a usable name are
// left as-is. Label text inside utterances is untouched.
func RenameSpeakers(transcriptText string, speakers map[string]Speaker) string {
	lines := strings.Split(transcriptText, "\n")
	for i, line := range lines {
		for id, sp := range speakers {
			name := strings.TrimSpace(sp.Name)
			if name == "" || name == unknownName {
				continue
			}
			if strings.HasPrefix(line, id+":") {
				lines[i] = name + ":" + strings.TrimPrefix(line, id+":")
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

// ApplyCorrections replaces each correction's original text throughout
// the transcript. Longer originals are applied first so a short
// fragment cannot clobber part of a longer one. Corrections with an
// empty original or identical replacement are skipped.
func ApplyCorrections(transcriptText string, corrections []Correction) string {
	ordered := make([]Correction, len(corrections))
	copy(ordered, corrections)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].Original) > len(ordered[j].Original)
	})

	result := transcriptText
	for _, c := range ordered {
		if c.Original == "" || c.Original == c.Corrected {
			continue
		}
		result = strings.ReplaceAll(result, c.Original, c.Corrected)
	}
	return result
}
