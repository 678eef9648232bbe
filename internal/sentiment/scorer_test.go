package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"neutral", "Update README formatting", 0},
		{"positive", "Add an awesome new feature", 4},
		{"sums words", "Great and clean refactor", 5},
		{"negative", "This is a terrible ugly hack", -7},
		{"case insensitive", "AWESOME", 4},
		{"punctuation", "good, great!", 6},
		{"negation flips", "this is not good", -3},
		{"negator only affects next word", "not really good", 3},
	}

	var s Scorer
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Score(tt.text))
		})
	}
}

func TestNewScorer_ExtraWords(t *testing.T) {
	s := NewScorer(map[string]int{"LGTM": 3, "good": 1})

	assert.Equal(t, 3, s.Score("lgtm"))
	assert.Equal(t, 1, s.Score("good"))
	assert.Equal(t, 4, s.Score("awesome"))
}

func TestScore_NilScorerUsesDefaultLexicon(t *testing.T) {
	var s *Scorer
	assert.Equal(t, 3, s.Score("nice"))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"don't", "merge", "this", "v2"}, Tokenize("Don't merge *this* (v2)"))
	assert.Empty(t, Tokenize("  ... "))
}
