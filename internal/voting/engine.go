package voting

import (
	"strings"

	"github.com/pscheid92/ballotbot/internal/domain"
)

const (
	PositiveToken = ":+1:"
	NegativeToken = ":-1:"
)

// EndorserChecker answers whether a login may vote.
type EndorserChecker interface {
	IsEndorser(login string) bool
}

// Scorer rates free text; see package sentiment.
type Scorer interface {
	Score(text string) int
}

// ParseVote reads a vote out of a comment body. A body containing exactly one
// of the two tokens is a vote; both or neither is not.
func ParseVote(body string) (positive bool, ok bool) {
	up := strings.Contains(body, PositiveToken)
	down := strings.Contains(body, NegativeToken)
	if up == down {
		return false, false
	}
	return up, true
}

// Engine tallies proposals on behalf of one bot identity.
type Engine struct {
	bot    string
	scorer Scorer
}

func NewEngine(botLogin string, scorer Scorer) *Engine {
	return &Engine{bot: botLogin, scorer: scorer}
}

// IsBot reports whether login is the bot's own identity.
func (e *Engine) IsBot(login string) bool {
	return strings.EqualFold(login, e.bot)
}

// SystemVote is the bot's own opinion of a proposal: score > 1 votes for,
// score < -1 votes against, anything else abstains.
func (e *Engine) SystemVote(p domain.Proposal) (positive bool, ok bool) {
	if e.scorer == nil {
		return false, false
	}
	score := e.scorer.Score(p.Title + " " + p.Body)
	switch {
	case score > 1:
		return true, true
	case score < -1:
		return false, true
	default:
		return false, false
	}
}

// Tally counts the votes on p. The author's implicit vote for is seeded first
// so an explicit vote by the author overrides it; after that the last valid
// vote of every endorsed commenter wins. Non-endorsed commenters are listed
// once each and never counted.
func (e *Engine) Tally(p domain.Proposal, endorsers EndorserChecker) domain.Tally {
	votes := make(map[string]bool)
	if p.Author != "" {
		votes[p.Author] = true
	}

	var nonEndorsed []string
	seen := make(map[string]struct{})

	for _, c := range p.Comments {
		if e.IsBot(c.Author) {
			continue
		}
		if !endorsers.IsEndorser(c.Author) {
			if _, dup := seen[c.Author]; !dup {
				seen[c.Author] = struct{}{}
				nonEndorsed = append(nonEndorsed, c.Author)
			}
			continue
		}
		if positive, ok := ParseVote(c.Body); ok {
			votes[c.Author] = positive
		}
	}

	if positive, ok := e.SystemVote(p); ok {
		votes[e.bot] = positive
	}

	t := domain.Tally{NonEndorsed: nonEndorsed, Votes: votes}
	for _, positive := range votes {
		if positive {
			t.Positive++
		} else {
			t.Negative++
		}
	}
	t.Total = t.Positive + t.Negative
	t.PercentPositive = Percent(t.Positive, t.Total)
	t.PercentNegative = Percent(t.Negative, t.Total)
	if t.NonEndorsed == nil {
		t.NonEndorsed = []string{}
	}
	return t
}
