package storage

import (
	"context"

	"github.com/sendlink/sendlink/pkg/models"
)

// MessageReader defines the interface for reading locally stored messages.
type MessageReader interface {
	// GetMessage retrieves a message by its id.
	GetMessage(ctx context.Context, id string) (*models.Message, error)

	// ListMessagesByThread returns a thread's messages ordered by
	// (createdAt, id). The ordering is stable across sync cycles.
	ListMessagesByThread(ctx context.Context, threadID string) ([]models.Message, error)

	// ListPendingMessages returns messages whose syncStatus is pending or
	// failed, in thread-then-createdAt order, for the push scan.
	ListPendingMessages(ctx context.Context) ([]models.Message, error)
}

// MessageWriter defines the interface for mutating locally stored messages.
type MessageWriter interface {
	// UpsertMessage writes a message idempotently by id. The revision is
	// incremented only when the content actually changed; re-applying the
	// same write is a no-op. The owning thread is created on the first
	// message and its last-message reference and unread counter are
	// recomputed on every effective write.
	UpsertMessage(ctx context.Context, msg *models.Message) (*models.Message, error)

	// AdvanceReadStatus merges the given read status into the stored one,
	// never regressing it. When propagate is true and the merge changed the
	// value, the record's syncStatus returns to pending so the change is
	// pushed outward (recipient read markers, retractions).
	AdvanceReadStatus(ctx context.Context, id string, to models.ReadStatus, propagate bool) (*models.Message, error)

	// SetMessageSyncStatus moves the record along the sync state machine,
	// compare-and-swapping on the revision. A mismatch returns ErrConflict.
	SetMessageSyncStatus(ctx context.Context, id string, to models.SyncStatus, expectedRevision int64) error
}

// MessageStore combines the reader and writer interfaces.
type MessageStore interface {
	MessageReader
	MessageWriter
}
