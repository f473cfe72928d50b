package matching

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// noiseTokens are organisational words that carry no identity on their own.
var noiseTokens = map[string]struct{}{
	"fc": {}, "cf": {}, "afc": {}, "sc": {}, "ac": {}, "as": {}, "ssc": {},
	"sv": {}, "vfl": {}, "united": {}, "city": {}, "wanderers": {}, "albion": {},
	"hotspur": {}, "athletic": {}, "club": {}, "de": {}, "the": {}, "and": {},
}

// DefaultAliases collapses well-known club nicknames and shortened supplier
// spellings onto one token. Keys are matched on whole tokens before noise
// removal so that "Manchester United" and "Manchester City" stay distinct.
var DefaultAliases = map[string]string{
	"manchester united":       "manutd",
	"man united":              "manutd",
	"man utd":                 "manutd",
	"manchester city":         "mancity",
	"man city":                "mancity",
	"wolverhampton wanderers": "wolves",
	"wolverhampton":           "wolves",
	"nottingham forest":       "nottingham",
	"nottm forest":            "nottingham",
	"brighton hove":           "brighton",
	"sheffield united":        "sheffutd",
	"tottenham hotspur":       "tottenham",
	"spurs":                   "tottenham",
	"paris saint germain":     "psg",
	"paris sg":                "psg",
	"internazionale":          "inter",
	"inter milan":             "inter",
	"bayern munchen":          "bayern",
	"bayern munich":           "bayern",
}

const maxNormalizePasses = 8

type alias struct {
	phrase string
	target string
	tokens int
}

// Normalizer turns free-text club names into a comparable form.
type Normalizer struct {
	aliases []alias
}

var defaultNormalizer = mustNormalizer(DefaultAliases)

// NewNormalizer builds a normalizer over the given alias table. Alias
// targets must normalise to a single token that is neither noise nor
// another alias phrase.
func NewNormalizer(aliases map[string]string) (*Normalizer, error) {
	out := make([]alias, 0, len(aliases))
	phrases := make(map[string]struct{}, len(aliases))
	for phrase := range aliases {
		phrases[strings.Join(foldTokens(phrase), " ")] = struct{}{}
	}
	for phrase, target := range aliases {
		phraseTokens := foldTokens(phrase)
		targetTokens := foldTokens(target)
		if len(phraseTokens) == 0 {
			return nil, fmt.Errorf("alias phrase %q is empty after folding", phrase)
		}
		if len(targetTokens) != 1 {
			return nil, fmt.Errorf("alias target %q must be a single word", target)
		}
		if _, ok := noiseTokens[targetTokens[0]]; ok {
			return nil, fmt.Errorf("alias target %q is a noise word", target)
		}
		if _, ok := phrases[targetTokens[0]]; ok {
			return nil, fmt.Errorf("alias target %q is itself an alias", target)
		}
		out = append(out, alias{
			phrase: strings.Join(phraseTokens, " "),
			target: targetTokens[0],
			tokens: len(phraseTokens),
		})
	}
	// Longest phrases first so "manchester united" wins over a shorter key.
	sort.Slice(out, func(i, j int) bool {
		if out[i].tokens != out[j].tokens {
			return out[i].tokens > out[j].tokens
		}
		return out[i].phrase < out[j].phrase
	})
	return &Normalizer{aliases: out}, nil
}

func mustNormalizer(aliases map[string]string) *Normalizer {
	n, err := NewNormalizer(aliases)
	if err != nil {
		panic(err)
	}
	return n
}

// DefaultNormalizer is the normalizer behind Normalize and Key.
func DefaultNormalizer() *Normalizer {
	return defaultNormalizer
}

// Normalize uses DefaultAliases.
func Normalize(raw string) string {
	return defaultNormalizer.Normalize(raw)
}

// Key is Normalize without spaces, suitable as a map key.
func Key(raw string) string {
	return defaultNormalizer.Key(raw)
}

// Normalize folds diacritics, lowercases, drops digits and punctuation,
// substitutes aliases and removes noise tokens. The result is a fixpoint, so
// Normalize(Normalize(x)) == Normalize(x).
func (n *Normalizer) Normalize(raw string) string {
	if n == nil {
		n = defaultNormalizer
	}
	tokens := foldTokens(raw)
	for pass := 0; pass < maxNormalizePasses; pass++ {
		next := n.step(tokens)
		if equalTokens(next, tokens) {
			break
		}
		tokens = next
	}
	return strings.Join(tokens, " ")
}

func (n *Normalizer) Key(raw string) string {
	return strings.ReplaceAll(n.Normalize(raw), " ", "")
}

func (n *Normalizer) step(tokens []string) []string {
	tokens = n.substituteAliases(tokens)
	kept := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, noise := noiseTokens[token]; noise {
			continue
		}
		kept = append(kept, token)
	}
	if len(kept) == 0 {
		// "City FC" would vanish entirely; keep the folded form instead.
		return tokens
	}
	return kept
}

func (n *Normalizer) substituteAliases(tokens []string) []string {
	if len(n.aliases) == 0 || len(tokens) == 0 {
		return tokens
	}
	out := tokens
	for _, a := range n.aliases {
		if a.tokens > len(out) {
			continue
		}
		for i := 0; i+a.tokens <= len(out); i++ {
			if strings.Join(out[i:i+a.tokens], " ") != a.phrase {
				continue
			}
			replaced := make([]string, 0, len(out)-a.tokens+1)
			replaced = append(replaced, out[:i]...)
			replaced = append(replaced, a.target)
			replaced = append(replaced, out[i+a.tokens:]...)
			out = replaced
		}
	}
	return out
}

var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldTokens lowercases, strips combining marks, turns punctuation into
// separators and drops digits.
func foldTokens(raw string) []string {
	lowered := strings.ToLower(raw)
	folded, _, err := transform.String(diacriticFolder, lowered)
	if err != nil {
		folded = lowered
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsDigit(r):
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}

func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// IsNoise reports whether a single folded token is an organisational word.
func IsNoise(token string) bool {
	_, ok := noiseTokens[strings.ToLower(strings.TrimSpace(token))]
	return ok
}

// Slugify turns a display name into a URL slug: "Atlético de Madrid" ->
// "atletico-de-madrid". Digits are kept and noise words are not removed.
func Slugify(raw string) string {
	folded, _, err := transform.String(diacriticFolder, strings.ToLower(raw))
	if err != nil {
		folded = strings.ToLower(raw)
	}
	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
