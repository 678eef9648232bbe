package announce

import (
	"context"
	"errors"
	"fmt"

	"github.com/pscheid92/ballotbot/internal/domain"
)

// Multi fans an announcement out to every announcer. One failing target does
// not stop the others; all failures are returned together.
type Multi []domain.Announcer

var _ domain.Announcer = Multi(nil)

func (m Multi) Announce(ctx context.Context, a domain.Announcement) error {
	var errs []error
	for _, target := range m {
		if err := target.Announce(ctx, a); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", target, err))
		}
	}
	return errors.Join(errs...)
}
