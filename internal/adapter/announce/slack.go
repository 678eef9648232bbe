package announce

import (
	"context"
	"fmt"

	"github.com/pscheid92/ballotbot/internal/domain"
	"github.com/slack-go/slack"
)

// slackPoster is the subset of *slack.Client the announcer needs.
type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Slack posts announcements to a channel.
type Slack struct {
	client  slackPoster
	channel string
}

var _ domain.Announcer = (*Slack)(nil)

func NewSlack(token, channel string) *Slack {
	return &Slack{client: slack.New(token), channel: channel}
}

func (s *Slack) Announce(ctx context.Context, a domain.Announcement) error {
	text := a.Text
	if a.URL != "" {
		text = fmt.Sprintf("%s\n<%s|#%d %s>", a.Text, a.URL, a.Number, a.Title)
	}

	_, _, err := s.client.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(text, false),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return fmt.Errorf("slack post to %s: %w", s.channel, err)
	}
	return nil
}
