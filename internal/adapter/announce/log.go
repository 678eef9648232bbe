package announce

import (
	"context"
	"log/slog"

	"github.com/pscheid92/ballotbot/internal/domain"
)

// Log writes announcements to the structured log. It is always configured so
// that every announcement leaves a trace.
type Log struct{}

var _ domain.Announcer = Log{}

func (Log) Announce(ctx context.Context, a domain.Announcement) error {
	slog.InfoContext(ctx, "Announcement",
		"announcement_id", a.ID,
		"kind", string(a.Kind),
		"proposal", a.Number,
		"text", a.Text,
	)
	return nil
}
