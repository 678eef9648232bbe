package voting

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pscheid92/ballotbot/internal/domain"
)

// Kind identifies a bot-authored comment by its heading line.
type Kind int

const (
	KindNone Kind = iota
	KindStarted
	KindModified
	KindUnmergeable
	KindPassed
	KindFailed
)

const (
	startedHeading     = "#### :ballot_box_with_check: Voting procedure reminder:"
	modifiedHeading    = "#### :warning: This pull request has been modified and is now being closed."
	unmergeableHeading = "#### :warning: Error: This pull request could not be merged"
	passedHeading      = "#### :+1: The vote passed!"
	failedHeading      = "#### :-1: The vote failed."

	markerLead = "*NOTE: the pull request will be closed if any new commits are added after:* "
)

// Classify returns the kind of a bot comment body.
func Classify(body string) Kind {
	switch {
	case strings.HasPrefix(body, startedHeading):
		return KindStarted
	case strings.HasPrefix(body, modifiedHeading):
		return KindModified
	case strings.HasPrefix(body, unmergeableHeading):
		return KindUnmergeable
	case strings.HasPrefix(body, passedHeading):
		return KindPassed
	case strings.HasPrefix(body, failedHeading):
		return KindFailed
	default:
		return KindNone
	}
}

// StartedComment is the voting-started marker. Its last whitespace-delimited
// token is headSHA; MarkerHead reads it back.
func StartedComment(s Settings, headSHA string) string {
	var b strings.Builder
	b.WriteString(startedHeading + "\n")
	b.WriteString("To cast a vote, post a comment containing `" + PositiveToken + "` (" + PositiveToken + "), or `" + NegativeToken + "` (" + NegativeToken + ").\n")
	b.WriteString("Remember, you **must :star:star this repo for your vote to count.**\n\n")
	b.WriteString("All comments within this discussion are searched for votes, regardless of the time of posting.\n")
	b.WriteString("You can cast as many votes as you want, but only the last one will be counted.\n")
	b.WriteString("(You may consider editing your comment instead of adding a new one.)\n")
	b.WriteString("Comments containing both up- and down-votes are disregarded.\n")
	b.WriteString("Pull request authors automatically count as a " + PositiveToken + " vote.\n\n")
	fmt.Fprintf(&b, "A decision will be made after this pull request has been open for **%s** minutes "+
		"(plus/minus **%s** percent, to avoid people timing their votes), and at least **%d** votes have been made.\n",
		formatNumber(s.Period.Minutes()), formatNumber(s.Jitter*100), s.MinVotes)
	fmt.Fprintf(&b, "A supermajority of **%s%%** is required for the vote to pass.\n\n", formatNumber(s.Supermajority*100))
	b.WriteString(markerLead + headSHA)
	return b.String()
}

// MarkerHead returns the head revision recorded in a marker body.
func MarkerHead(body string) string {
	fields := strings.Fields(body)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// ModifiedWarning is posted before closing a proposal that gained commits
// after voting started.
func ModifiedWarning() string {
	return modifiedHeading + "\n\n" +
		"To prevent people from sneaking in changes after votes have been made, pull requests can't be committed on " +
		"after they have been opened. Feel free to open a new pull request for the proposed changes to start another round of voting."
}

// UnmergeableWarning is posted before closing a passed proposal that conflicts.
func UnmergeableWarning() string {
	return unmergeableHeading + "\n\n" +
		"The changes in this pull request conflict with other changes, so we couldn't automatically merge it. " +
		"You can fix the conflicts and submit the changes in a new pull request to start the voting process again."
}

// VerdictComment summarises a decided vote.
func VerdictComment(pass bool, t domain.Tally) string {
	var b strings.Builder
	if pass {
		b.WriteString(passedHeading + " This pull request will now be merged.")
	} else {
		b.WriteString(failedHeading + " This pull request will now be closed.")
	}
	b.WriteString("\n\n----\n**Tallies:**\n")
	fmt.Fprintf(&b, "%s: %d (%s%%) \n", PositiveToken, t.Positive, formatNumber(t.PercentPositive))
	fmt.Fprintf(&b, "%s: %d (%s%%)", NegativeToken, t.Negative, formatNumber(t.PercentNegative))

	if len(t.NonEndorsed) > 0 {
		b.WriteString("\n\nThese users aren't stargazers, so their votes were not counted: \n")
		for _, user := range t.NonEndorsed {
			b.WriteString(" * @" + user + "\n")
		}
	}
	return b.String()
}

// SentimentVote is the body of the bot's own vote comment.
func SentimentVote(positive bool) string {
	if positive {
		return PositiveToken
	}
	return NegativeToken
}

// FindMarker returns the head SHA recorded by the first marker the bot posted.
func FindMarker(comments []domain.Comment, isBot func(string) bool) (headSHA string, found bool) {
	for _, c := range comments {
		if isBot(c.Author) && Classify(c.Body) == KindStarted {
			return MarkerHead(c.Body), true
		}
	}
	return "", false
}

// FindVerdict returns the outcome of the last verdict the bot posted.
func FindVerdict(comments []domain.Comment, isBot func(string) bool) (pass bool, found bool) {
	for i := len(comments) - 1; i >= 0; i-- {
		c := comments[i]
		if !isBot(c.Author) {
			continue
		}
		switch Classify(c.Body) {
		case KindPassed:
			return true, true
		case KindFailed:
			return false, true
		}
	}
	return false, false
}

// HasComment reports whether the bot already posted a comment of kind.
func HasComment(comments []domain.Comment, isBot func(string) bool, kind Kind) bool {
	for _, c := range comments {
		if isBot(c.Author) && Classify(c.Body) == kind {
			return true
		}
	}
	return false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}
