package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/ballotbot/internal/domain"
	"github.com/pscheid92/ballotbot/internal/voting"
)

// Inspection is a read-only view of one proposal computed straight from
// GitHub, without touching the bot's state.
type Inspection struct {
	Proposal domain.Proposal `json:"proposal"`
	Tally    domain.Tally    `json:"tally"`
	Decided  bool            `json:"decided"`
	Pass     bool            `json:"pass"`

	Announced bool `json:"announced"`
	// Modified means commits landed after the voting-started comment.
	Modified bool `json:"modified"`
	// Verdict is "passed" or "failed" once the bot posted one.
	Verdict string `json:"verdict,omitempty"`
	// NominalDeadline ignores jitter.
	NominalDeadline time.Time `json:"nominal_deadline"`
}

// Inspector computes dry-run tallies for operators.
type Inspector struct {
	forge     domain.Forge
	engine    *voting.Engine
	settings  voting.Settings
	endorsers *EndorserIndex
}

func NewInspector(forge domain.Forge, engine *voting.Engine, settings voting.Settings, clock clockwork.Clock) *Inspector {
	return &Inspector{
		forge:     forge,
		engine:    engine,
		settings:  settings,
		endorsers: NewEndorserIndex(forge, clock, time.Hour, nil),
	}
}

// Load fetches the endorser list. It must succeed before inspecting.
func (i *Inspector) Load(ctx context.Context) error {
	return i.endorsers.Refresh(ctx)
}

func (i *Inspector) Inspect(ctx context.Context, number int) (Inspection, error) {
	p, err := i.forge.GetProposal(ctx, number)
	if err != nil {
		return Inspection{}, fmt.Errorf("get proposal #%d: %w", number, err)
	}
	return i.inspect(ctx, p)
}

// InspectOpen inspects every open proposal, oldest first.
func (i *Inspector) InspectOpen(ctx context.Context) ([]Inspection, error) {
	proposals, err := collectPages(ctx, pageSize, i.forge.ListOpenProposals)
	if err != nil {
		return nil, fmt.Errorf("list open proposals: %w", err)
	}

	out := make([]Inspection, 0, len(proposals))
	for _, p := range proposals {
		in, err := i.inspect(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func (i *Inspector) inspect(ctx context.Context, p domain.Proposal) (Inspection, error) {
	comments, err := collectPages(ctx, pageSize, func(ctx context.Context, page, perPage int) ([]domain.Comment, error) {
		return i.forge.ListComments(ctx, p.Number, page, perPage)
	})
	if err != nil {
		return Inspection{}, fmt.Errorf("list comments of #%d: %w", p.Number, err)
	}
	p.Comments = comments

	t := i.engine.Tally(p, i.endorsers)
	decided, pass := i.settings.Decide(t)
	in := Inspection{
		Proposal:        p,
		Tally:           t,
		Decided:         decided,
		Pass:            pass,
		NominalDeadline: p.CreatedAt.Add(i.settings.Period),
	}

	if head, ok := voting.FindMarker(comments, i.engine.IsBot); ok {
		in.Announced = true
		in.Modified = head != p.HeadSHA
	}
	if recorded, ok := voting.FindVerdict(comments, i.engine.IsBot); ok {
		in.Verdict = "failed"
		if recorded {
			in.Verdict = "passed"
		}
	}
	return in, nil
}
