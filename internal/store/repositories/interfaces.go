package repositories

import (
	"context"

	"pixbridge/internal/domain/payment"
)

// StatusStore holds the payment status of issued charges, keyed by txid.
//
// Entries only ever hold PENDING or PAID. A PAID entry is removed by the
// Consume call that observes it, so a later Consume reports NOT_FOUND.
type StatusStore interface {
	MarkPending(ctx context.Context, txid string) error
	MarkPaid(ctx context.Context, txid string) error
	Consume(ctx context.Context, txid string) (payment.Status, error)
}
