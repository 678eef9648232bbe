// Package sentiment scores free text with a word lexicon.
//
// The Scorer sums per-word valences (AFINN scale, -5..+5) over the tokens of a
// text, flipping the sign of a word that directly follows a negator. The bot
// uses the score of a pull request's title and body to cast its own vote.
package sentiment
