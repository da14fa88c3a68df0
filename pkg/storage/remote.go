package storage

import (
	"context"
	"time"

	"github.com/sendlink/sendlink/pkg/models"
)

// RemoteWriter is the outbound half of the remote store, used by the push
// loop. Message bodies are sealed by the implementation before they are
// written; plaintext never leaves the device.
type RemoteWriter interface {
	PutMessage(ctx context.Context, msg *models.Message) error
	PutPayment(ctx context.Context, p *models.Payment) error
	PutThread(ctx context.Context, t *models.Thread) error
	AppendRiskLog(ctx context.Context, e *models.RiskLogEntry) error
}

// RemoteReader is the inbound half of the remote store, used by the pull loop.
type RemoteReader interface {
	// ListThreads returns every thread the owner participates in.
	ListThreads(ctx context.Context, owner string) ([]models.Thread, error)

	// MessagesSince returns a thread's records with a remote sequence newer
	// than the cursor, together with the new cursor value. Replaying the
	// same batch must be observably idempotent for the caller.
	MessagesSince(ctx context.Context, threadID string, cursor int64) ([]models.Message, int64, error)
}

// RemoteSweepStore is the privileged interface used by the fleet-side
// stale-payment reconciliation.
type RemoteSweepStore interface {
	// StalePayments returns remotely stored payments stuck in the pending
	// status for longer than olderThan.
	StalePayments(ctx context.Context, olderThan time.Duration) ([]models.Payment, error)

	// ResolvePayment records the out-of-band broadcast outcome for a stuck
	// payment. The write is conditional on the payment still being pending.
	ResolvePayment(ctx context.Context, id string, status models.PaymentStatus, signature string) error
}

// RemoteStore combines the reader and writer halves used by the sync engine.
type RemoteStore interface {
	RemoteWriter
	RemoteReader
}
