package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestState_CanAdvance(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateNew, StateVotingAnnounced, true},
		{StateNew, StateAwaitingQuorum, true},
		{StateVotingAnnounced, StateVotingAnnounced, true},
		{StateVotingAnnounced, StateModified, true},
		{StateVotingAnnounced, StateAwaitingQuorum, true},
		{StateAwaitingQuorum, StateMerged, true},
		{StateAwaitingQuorum, StateClosedFailed, true},
		{StateAwaitingQuorum, StateClosedUnmergeable, true},
		{StateAwaitingQuorum, StateVotingAnnounced, false},
		{StateVotingAnnounced, StateNew, false},
		{StateMerged, StateClosedFailed, false},
		{StateModified, StateAwaitingQuorum, false},
		{StateClosed, StateMerged, false},
		{StateMerged, StateMerged, true},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanAdvance(tt.to))
		})
	}
}

func TestState_Terminal(t *testing.T) {
	assert.False(t, StateNew.Terminal())
	assert.False(t, StateVotingAnnounced.Terminal())
	assert.False(t, StateAwaitingQuorum.Terminal())
	for _, s := range []State{StateModified, StateMerged, StateClosedFailed, StateClosedUnmergeable, StateClosed} {
		assert.True(t, s.Terminal(), s.String())
	}
}

func TestProposal_CloneDoesNotAlias(t *testing.T) {
	p := Proposal{Number: 1, Comments: []Comment{{ID: 1, Body: "a"}}}
	c := p.Clone()
	c.Comments[0].Body = "b"
	c.Comments = append(c.Comments, Comment{ID: 2})

	assert.Equal(t, "a", p.Comments[0].Body)
	assert.Len(t, p.Comments, 1)
}

func TestProposal_DeadlineAndActive(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p := Proposal{CreatedAt: created, Window: 5 * time.Minute, Open: true}

	assert.Equal(t, created.Add(5*time.Minute), p.Deadline())
	assert.True(t, p.Active())

	p.State = StateMerged
	assert.False(t, p.Active())

	p.State = StateAwaitingQuorum
	p.Open = false
	assert.False(t, p.Active())
}
