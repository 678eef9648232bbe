package voting

import (
	"math"
	"time"

	"github.com/pscheid92/ballotbot/internal/domain"
)

const (
	DefaultPeriod        = 5 * time.Minute
	DefaultJitter        = 0.2
	DefaultMinVotes      = 3
	DefaultSupermajority = 0.65
)

// Settings are the voting parameters, also quoted in the reminder comment.
type Settings struct {
	Period        time.Duration
	Jitter        float64
	MinVotes      int
	Supermajority float64
}

func DefaultSettings() Settings {
	return Settings{
		Period:        DefaultPeriod,
		Jitter:        DefaultJitter,
		MinVotes:      DefaultMinVotes,
		Supermajority: DefaultSupermajority,
	}
}

// Decide reports whether a verdict may be rendered for t and, if so, whether
// it passes. The supermajority comparison is strict.
func (s Settings) Decide(t domain.Tally) (decided bool, pass bool) {
	if t.Total < s.MinVotes || t.Total == 0 {
		return false, false
	}
	return true, float64(t.Positive)/float64(t.Total) > s.Supermajority
}

// Window returns the jittered voting window for r drawn uniformly from [0,1):
// Period * (1 + (r - 0.5) * Jitter).
func (s Settings) Window(r float64) time.Duration {
	return time.Duration(float64(s.Period) * (1 + (r-0.5)*s.Jitter))
}

// Percent is n/total as a percentage truncated to one decimal.
func Percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Floor(float64(n)/float64(total)*1000) / 10
}
