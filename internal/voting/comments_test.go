package voting

import (
	"strings"
	"testing"
	"time"

	"github.com/pscheid92/ballotbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isBot(login string) bool { return strings.EqualFold(login, bot) }

func TestStartedComment_EmbedsHeadAsTrailingToken(t *testing.T) {
	body := StartedComment(DefaultSettings(), "0123abcd")

	assert.Equal(t, KindStarted, Classify(body))
	assert.True(t, strings.HasSuffix(body, "added after:* 0123abcd"))
	assert.Equal(t, "0123abcd", MarkerHead(body))
	assert.Contains(t, body, "open for **5** minutes")
	assert.Contains(t, body, "plus/minus **20** percent")
	assert.Contains(t, body, "at least **3** votes")
	assert.Contains(t, body, "supermajority of **65%**")
}

func TestMarkerHead_TrailingWhitespace(t *testing.T) {
	assert.Equal(t, "deadbeef", MarkerHead("marker text deadbeef\n"))
	assert.Empty(t, MarkerHead("   "))
}

func TestFindMarker(t *testing.T) {
	marker := StartedComment(DefaultSettings(), "sha-1")
	comments := []domain.Comment{
		{Author: "alice", Body: marker},
		{Author: "bob", Body: ":+1:"},
		{Author: bot, Body: marker},
		{Author: bot, Body: StartedComment(DefaultSettings(), "sha-2")},
	}

	sha, found := FindMarker(comments, isBot)
	require.True(t, found)
	assert.Equal(t, "sha-1", sha)

	_, found = FindMarker(comments[:2], isBot)
	assert.False(t, found)
}

func TestFindMarker_IgnoresChangedSettings(t *testing.T) {
	custom := Settings{Period: 10 * time.Minute, Jitter: 0.5, MinVotes: 7, Supermajority: 0.8}
	comments := []domain.Comment{{Author: bot, Body: StartedComment(custom, "abc")}}

	sha, found := FindMarker(comments, isBot)
	assert.True(t, found)
	assert.Equal(t, "abc", sha)
}

func TestVerdictComment(t *testing.T) {
	tally := domain.Tally{Positive: 2, Negative: 1, Total: 3, PercentPositive: 66.6, PercentNegative: 33.3, NonEndorsed: []string{"mallory", "eve"}}

	body := VerdictComment(true, tally)

	assert.Equal(t, KindPassed, Classify(body))
	assert.Contains(t, body, "**Tallies:**")
	assert.Contains(t, body, ":+1:: 2 (66.6%)")
	assert.Contains(t, body, ":-1:: 1 (33.3%)")
	assert.Contains(t, body, "These users aren't stargazers, so their votes were not counted:")
	assert.Contains(t, body, " * @mallory\n * @eve\n")

	failed := VerdictComment(false, domain.Tally{Negative: 3, Total: 3, PercentNegative: 100})
	assert.Equal(t, KindFailed, Classify(failed))
	assert.NotContains(t, failed, "stargazers")
}

func TestFindVerdict(t *testing.T) {
	comments := []domain.Comment{
		{Author: "alice", Body: VerdictComment(false, domain.Tally{})},
	}
	_, found := FindVerdict(comments, isBot)
	assert.False(t, found)

	comments = append(comments, domain.Comment{Author: bot, Body: VerdictComment(true, domain.Tally{})})
	pass, found := FindVerdict(comments, isBot)
	assert.True(t, found)
	assert.True(t, pass)
}

func TestHasComment(t *testing.T) {
	comments := []domain.Comment{
		{Author: "alice", Body: ModifiedWarning()},
		{Author: bot, Body: UnmergeableWarning()},
	}

	assert.False(t, HasComment(comments, isBot, KindModified))
	assert.True(t, HasComment(comments, isBot, KindUnmergeable))
}

func TestClassify_VotesAreNotBotComments(t *testing.T) {
	assert.Equal(t, KindNone, Classify(SentimentVote(true)))
	assert.Equal(t, KindNone, Classify(SentimentVote(false)))
	assert.Equal(t, KindModified, Classify(ModifiedWarning()))
}
