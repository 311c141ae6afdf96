package notify

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
)

// NATSSender publishes notifications to NATS subjects of the form
// <prefix>.<event>, e.g. orders.order.placed.
type NATSSender struct {
	conn   *nats.Conn
	prefix string
}

var _ Sender = (*NATSSender)(nil)

func NewNATSSender(conn *nats.Conn, prefix string) *NATSSender {
	return &NATSSender{conn: conn, prefix: prefix}
}

func (s *NATSSender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", s.prefix, msg.Event)
	if err := s.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
