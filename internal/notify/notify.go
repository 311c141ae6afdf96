// Package notify publishes order lifecycle events. Delivery is
// fire-and-forget: checkout and the order state machine call Send after
// their transaction commits and never fail the operation on a send error.
package notify

import (
	"context"

	"github.com/greenfields-vn/chomart/internal/domain"
)

// Event names an order lifecycle moment.
type Event string

const (
	EventOrderPlaced    Event = "order.placed"
	EventStatusChanged  Event = "order.status_changed"
	EventOrderCancelled Event = "order.cancelled"
)

// Message is one notification about an order.
type Message struct {
	Event          Event              `json:"event"`
	OrderID        int64              `json:"order_id"`
	OrderCode      string             `json:"order_code"`
	BuyerID        int64              `json:"buyer_id"`
	VendorID       int64              `json:"vendor_id"`
	Total          int64              `json:"total"`
	PreviousStatus domain.OrderStatus `json:"previous_status,omitempty"`
	NewStatus      domain.OrderStatus `json:"new_status,omitempty"`
}

// NewMessage builds a Message from an order.
func NewMessage(event Event, order domain.Order) Message {
	return Message{
		Event:     event,
		OrderID:   order.ID,
		OrderCode: order.Code,
		BuyerID:   order.BuyerID,
		VendorID:  order.VendorID,
		Total:     order.Total,
		NewStatus: order.Status,
	}
}

// Sender delivers order notifications.
type Sender interface {
	// Send delivers msg. Callers treat errors as log-and-continue.
	Send(ctx context.Context, msg Message) error
}
