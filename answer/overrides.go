package answer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Matcher reports whether a normalised question triggers an override.
type Matcher func(normalized string) bool

// Override is a canned reply given instead of a grounded answer.
type Override struct {
	Name     string
	Match    Matcher
	Response string
}

// Phrases matches questions equal to one of phrases after normalisation.
func Phrases(phrases ...string) Matcher {
	set := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		set[Normalize(p)] = struct{}{}
	}
	return func(normalized string) bool {
		_, ok := set[normalized]
		return ok
	}
}

// DefaultOverrides returns the identity and capability replies of p.
func DefaultOverrides(p Persona) []Override {
	return []Override{
		{
			Name:     "identity",
			Match:    Phrases("who are you", "who are u", "what are you", "qui es tu", "qui etes vous"),
			Response: p.Identity,
		},
		{
			Name:     "capabilities",
			Match:    Phrases("what can you do", "what do you do", "how can you help", "que sais tu faire", "que peux tu faire"),
			Response: p.Capabilities,
		},
	}
}

// Normalize lowercases text, strips accents and punctuation, and collapses
// whitespace, so "Qui es-tu ?" and "qui es tu" compare equal.
func Normalize(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, text)
	if err != nil {
		stripped = text
	}

	fields := strings.FieldsFunc(strings.ToLower(stripped), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}

func matchOverride(overrides []Override, question string) (Override, bool) {
	normalized := Normalize(question)
	if normalized == "" {
		return Override{}, false
	}
	for _, o := range overrides {
		if o.Match != nil && o.Match(normalized) {
			return o, true
		}
	}
	return Override{}, false
}
