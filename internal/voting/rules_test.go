package voting

import (
	"testing"
	"time"

	"github.com/pscheid92/ballotbot/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	s := DefaultSettings()
	tests := []struct {
		name        string
		pos, neg    int
		wantDecided bool
		wantPass    bool
	}{
		{"below quorum", 2, 0, false, false},
		{"empty", 0, 0, false, false},
		{"two thirds passes", 2, 1, true, true},
		{"unanimous", 3, 0, true, true},
		{"one third fails", 1, 2, true, false},
		{"sixty percent fails", 3, 2, true, false},
		{"exactly sixty five percent fails", 13, 7, true, false},
		{"just above passes", 66, 34, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tally := domain.Tally{Positive: tt.pos, Negative: tt.neg, Total: tt.pos + tt.neg}
			decided, pass := s.Decide(tally)
			assert.Equal(t, tt.wantDecided, decided)
			assert.Equal(t, tt.wantPass, pass)
		})
	}
}

func TestDecide_CustomQuorum(t *testing.T) {
	s := Settings{MinVotes: 5, Supermajority: 0.5}
	decided, _ := s.Decide(domain.Tally{Positive: 4, Total: 4})
	assert.False(t, decided)

	decided, pass := s.Decide(domain.Tally{Positive: 3, Negative: 2, Total: 5})
	assert.True(t, decided)
	assert.True(t, pass)
}

func TestWindow(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, 5*time.Minute, s.Window(0.5))
	assert.InDelta(t, float64(270*time.Second), float64(s.Window(0)), float64(time.Millisecond))
	assert.InDelta(t, float64(330*time.Second), float64(s.Window(1)), float64(time.Millisecond))

	for _, r := range []float64{0, 0.1, 0.37, 0.5, 0.99} {
		w := s.Window(r)
		assert.GreaterOrEqual(t, w, 270*time.Second)
		assert.Less(t, w, 330*time.Second)
	}
}

func TestPercent(t *testing.T) {
	assert.InDelta(t, 66.6, Percent(2, 3), 1e-9)
	assert.InDelta(t, 33.3, Percent(1, 3), 1e-9)
	assert.InDelta(t, 100.0, Percent(4, 4), 1e-9)
	assert.Zero(t, Percent(0, 0))
}
