package sentiment

import (
	"strings"
	"unicode"
)

var negators = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "don't": {}, "dont": {}, "doesn't": {},
	"doesnt": {}, "isn't": {}, "isnt": {}, "won't": {}, "wont": {}, "can't": {},
	"cant": {}, "cannot": {}, "without": {},
}

// Scorer computes a signed sentiment score. The zero value uses the built-in
// lexicon.
type Scorer struct {
	lexicon map[string]int
}

// NewScorer returns a scorer over the built-in lexicon extended (or
// overridden) by extra.
func NewScorer(extra map[string]int) *Scorer {
	lex := make(map[string]int, len(afinn)+len(extra))
	for w, v := range afinn {
		lex[w] = v
	}
	for w, v := range extra {
		lex[strings.ToLower(w)] = v
	}
	return &Scorer{lexicon: lex}
}

// Score returns the summed valence of text. Unknown words contribute 0.
func (s *Scorer) Score(text string) int {
	lex := afinn
	if s != nil && s.lexicon != nil {
		lex = s.lexicon
	}

	score := 0
	negate := false
	for _, tok := range Tokenize(text) {
		v, ok := lex[tok]
		if ok && v != 0 {
			if negate {
				v = -v
			}
			score += v
		}
		_, negate = negators[tok]
	}
	return score
}

// Tokenize lowercases text and splits it into words. Apostrophes inside words
// are kept so contractions match the lexicon.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	tokens := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
