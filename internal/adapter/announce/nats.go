package announce

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/pscheid92/ballotbot/internal/domain"
)

type natsPublisher interface {
	Publish(subject string, data []byte) error
}

// NATS publishes announcements as JSON on a subject.
type NATS struct {
	conn    natsPublisher
	subject string
}

var _ domain.Announcer = (*NATS)(nil)

// ConnectNATS dials url. The returned connection must be drained by the
// caller on shutdown.
func ConnectNATS(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("ballotbot"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return nc, nil
}

func NewNATS(conn *nats.Conn, subject string) *NATS {
	return &NATS{conn: conn, subject: subject}
}

func (n *NATS) Announce(_ context.Context, a domain.Announcement) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode announcement: %w", err)
	}
	if err := n.conn.Publish(n.subject+"."+string(a.Kind), data); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}
