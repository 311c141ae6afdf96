// Package payment integrates with the external payment gateway. The order
// engine only records target payment states; actual money movement lives
// behind the Gateway interface and is always invoked after the database
// transaction commits.
package payment

import "context"

// RefundParams identifies the settled payment to reverse.
type RefundParams struct {
	OrderCode      string
	Amount         int64
	TransactionRef string
}

// RefundResult reports the gateway's answer to a refund request.
type RefundResult struct {
	Reference string
	Message   string
}

// Gateway is the payment provider used for non-COD settlement.
type Gateway interface {
	// Refund asks the gateway to return Amount to the buyer. An error
	// means the refund needs manual follow-up, not that the
	// cancellation failed.
	Refund(ctx context.Context, params RefundParams) (RefundResult, error)
}
