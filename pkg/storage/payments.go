package storage

import (
	"context"
	"time"

	"github.com/sendlink/sendlink/pkg/models"
)

// PaymentReader defines the interface for reading locally stored payments.
type PaymentReader interface {
	// GetPayment retrieves a payment by its id.
	GetPayment(ctx context.Context, id string) (*models.Payment, error)

	// ListPendingPayments returns payments whose syncStatus is pending or
	// failed, for the push scan.
	ListPendingPayments(ctx context.Context) ([]models.Payment, error)

	// ListStalePayments returns payments still in the pending payment status
	// that were created more than olderThan ago, for the stale-payment sweep.
	ListStalePayments(ctx context.Context, olderThan time.Duration) ([]models.Payment, error)
}

// PaymentWriter defines the interface for mutating locally stored payments.
type PaymentWriter interface {
	// UpsertPayment writes a payment idempotently by id, incrementing the
	// revision only on content change.
	UpsertPayment(ctx context.Context, p *models.Payment) (*models.Payment, error)

	// SetPaymentSyncStatus moves the record along the sync state machine,
	// compare-and-swapping on the revision.
	SetPaymentSyncStatus(ctx context.Context, id string, to models.SyncStatus, expectedRevision int64) error
}

// PaymentStore combines the reader and writer interfaces.
type PaymentStore interface {
	PaymentReader
	PaymentWriter
}
