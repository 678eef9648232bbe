package domain

import (
	"context"
	"time"
)

type AnnouncementKind string

const (
	AnnouncementVoteStarted AnnouncementKind = "vote_started"
	AnnouncementClosed      AnnouncementKind = "closed"
	AnnouncementMerged      AnnouncementKind = "merged"
)

// Announcement is an outbound, best-effort message about a lifecycle change.
type Announcement struct {
	ID     string           `json:"id"`
	Kind   AnnouncementKind `json:"kind"`
	Number int              `json:"number"`
	Title  string           `json:"title"`
	URL    string           `json:"url"`
	Text   string           `json:"text"`
	At     time.Time        `json:"at"`
}

type Announcer interface {
	Announce(ctx context.Context, a Announcement) error
}
