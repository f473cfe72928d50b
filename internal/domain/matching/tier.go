package matching

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tier records how confidently a provider reference was resolved.
type Tier string

const (
	NoMatch         Tier = "none"
	ExactMatch      Tier = "exact"
	NormalizedMatch Tier = "normalized"
	RemappedMatch   Tier = "remapped"
	HeuristicMatch  Tier = "heuristic"
)

// DefaultMinContainmentLength guards containment matches against short names
// such as "Inter" hiding inside unrelated longer names.
const DefaultMinContainmentLength = 4

// Found is false only for NoMatch.
func (t Tier) Found() bool {
	return t != "" && t != NoMatch
}

// AutoWritable reports whether a match at this tier may be persisted as a
// supplier mapping without human review.
func (t Tier) AutoWritable() bool {
	switch t {
	case ExactMatch, NormalizedMatch, RemappedMatch:
		return true
	default:
		return false
	}
}

func (t Tier) String() string {
	if t == "" {
		return string(NoMatch)
	}
	return string(t)
}

// Contains reports whether either normalised string contains the other and
// the shorter one has at least minLen runes. Equal strings always match.
func Contains(a, b string, minLen int) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	shorter, longer := a, b
	if utf8.RuneCountInString(shorter) > utf8.RuneCountInString(longer) {
		shorter, longer = longer, shorter
	}
	if minLen > 0 && utf8.RuneCountInString(shorter) < minLen {
		return false
	}
	return strings.Contains(longer, shorter)
}

// TrailingName returns the last capitalised, non-noise word of a raw name,
// e.g. "Borussia Dortmund" -> "Dortmund", "Tottenham Hotspur FC" -> "Tottenham".
func TrailingName(raw string) string {
	words := strings.FieldsFunc(raw, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	for i := len(words) - 1; i >= 0; i-- {
		word := words[i]
		first, _ := utf8.DecodeRuneInString(word)
		if !unicode.IsUpper(first) {
			continue
		}
		if IsNoise(word) {
			continue
		}
		return word
	}
	return ""
}
