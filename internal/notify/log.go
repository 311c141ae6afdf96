package notify

import (
	"context"
	"log/slog"
)

// LogSender writes notifications to the application log. Used in
// development when no NATS server is configured.
type LogSender struct {
	logger *slog.Logger
}

var _ Sender = (*LogSender)(nil)

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info("order notification",
		slog.String("event", string(msg.Event)),
		slog.String("order_code", msg.OrderCode),
		slog.Int64("buyer_id", msg.BuyerID),
		slog.Int64("vendor_id", msg.VendorID),
		slog.String("previous_status", string(msg.PreviousStatus)),
		slog.String("new_status", string(msg.NewStatus)),
	)
	return nil
}
