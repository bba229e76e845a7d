// Package order is the read model of panel orders and commission payouts
// that the global statistics summarise.
package order

import "context"

// Status mirrors the panel's order status column.
type Status int

const (
	StatusPending    Status = 0
	StatusProcessing Status = 1
	StatusCancelled  Status = 2
	StatusCompleted  Status = 3
	StatusDiscounted Status = 4
)

// IsPaid reports whether money was received for an order in this status.
func (s Status) IsPaid() bool {
	return s != StatusPending && s != StatusCancelled
}

// PaidStatuses lists every status counted as paid.
func PaidStatuses() []Status {
	return []Status{StatusProcessing, StatusCompleted, StatusDiscounted}
}

// Summary is a count and a sum of amounts in cents.
type Summary struct {
	Count int64
	Total int64
}

// Repository aggregates orders and commissions over [start, end) epoch seconds.
type Repository interface {
	// SumCreated covers every order created in the window.
	SumCreated(ctx context.Context, start, end int64) (Summary, error)

	// SumPaid covers orders paid in the window whose status counts as paid.
	SumPaid(ctx context.Context, start, end int64) (Summary, error)

	// SumCommission covers commission payouts logged in the window.
	SumCommission(ctx context.Context, start, end int64) (Summary, error)
}
