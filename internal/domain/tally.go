package domain

import (
	"context"
	"time"
)

// Tally is the vote count derived from a proposal's comments.
type Tally struct {
	Positive        int             `json:"positive"`
	Negative        int             `json:"negative"`
	Total           int             `json:"total"`
	PercentPositive float64         `json:"percent_positive"`
	PercentNegative float64         `json:"percent_negative"`
	NonEndorsed     []string        `json:"non_endorsed"`
	Votes           map[string]bool `json:"votes"`
}

// TallySnapshot is the last tally computed for a proposal, kept for
// inspection only. Decisions always recompute.
type TallySnapshot struct {
	Number     int       `json:"number"`
	Tally      Tally     `json:"tally"`
	Decided    bool      `json:"decided"`
	Pass       bool      `json:"pass"`
	ComputedAt time.Time `json:"computed_at"`
}

type TallyStore interface {
	SaveTally(ctx context.Context, snap TallySnapshot) error
	// GetTally returns ErrTallyNotFound when nothing was stored.
	GetTally(ctx context.Context, number int) (TallySnapshot, error)
}
