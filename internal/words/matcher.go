package words

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s, removes punctuation (keeping letters, digits,
// underscore and whitespace) and strips diacritics via NFD decomposition,
// dropping combining marks, then recomposing. It is idempotent:
// Normalize(Normalize(s)) == Normalize(s).
//
// Note that stripping diacritics makes accent-distinguished homographs
// ("si"/"sí", "que"/"qué") indistinguishable at match time. That tolerance is
// intentional for learner input and relied on by Detect.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
			return r
		}
		return -1
	}, s)

	// The chain carries internal buffers, so build it per call rather than
	// sharing one transformer across goroutines.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return out
}

// Detect reports which candidate words appear in utterance, returning their
// IDs in candidate order. It is pure and deterministic; the returned id set
// does not depend on candidate order and is always a subset of the candidate
// ids. An utterance with no matches yields an empty slice.
//
// Multi-token candidates (an internal space after normalization) match as a
// substring anywhere in the utterance. Single-token candidates match only on
// whole-word boundaries, so "si" is not detected inside "asistir".
func Detect(utterance string, candidates []Word) []string {
	normText := Normalize(utterance)
	tokens := strings.Fields(normText)

	var detected []string
	for _, w := range candidates {
		normWord := Normalize(w.Spanish)
		if normWord == "" {
			continue
		}
		if strings.ContainsRune(normWord, ' ') {
			if strings.Contains(normText, normWord) {
				detected = append(detected, w.ID)
			}
			continue
		}
		for _, tok := range tokens {
			if tok == normWord {
				detected = append(detected, w.ID)
				break
			}
		}
	}
	return detected
}
