package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendlink/sendlink/pkg/models"
	"github.com/sendlink/sendlink/pkg/notify"
	"github.com/sendlink/sendlink/pkg/storage"
	"github.com/sendlink/sendlink/pkg/telemetry"
)

// PullOnce ingests remote changes for every thread the owner participates
// in. Replaying a batch is idempotent: an upsert whose merge changes nothing
// leaves no trace.
func (e *Engine) PullOnce(ctx context.Context) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return err
	}
	threads, err := e.remote.ListThreads(ctx, e.owner)
	if err != nil {
		return fmt.Errorf("pull thread list: %w", err)
	}

	for i := range threads {
		if err := e.pullThread(ctx, &threads[i]); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Warn("thread pull failed", "thread", threads[i].Id, "error", err)
		}
	}
	return nil
}

func (e *Engine) pullThread(ctx context.Context, t *models.Thread) error {
	if _, err := e.local.UpsertThread(ctx, t); err != nil {
		return err
	}

	cursor, err := e.local.Cursor(ctx, t.Id)
	if err != nil {
		return err
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return err
	}
	msgs, next, err := e.remote.MessagesSince(ctx, t.Id, cursor)
	if err != nil {
		return err
	}

	for i := range msgs {
		if err := e.applyRemoteMessage(ctx, &msgs[i]); err != nil {
			// Leave the cursor where it is; the batch replays next cycle.
			return err
		}
	}
	if next > cursor {
		return e.local.SetCursor(ctx, t.Id, next)
	}
	return nil
}

// applyRemoteMessage folds one remote record into the local store under the
// conflict policy: once a record is synced remotely its content fields are
// authoritative, while the read status takes whichever value is later in the
// ordering, never regressing the local one.
func (e *Engine) applyRemoteMessage(ctx context.Context, rm *models.Message) error {
	existing, err := e.local.GetMessage(ctx, rm.Id)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if existing == nil {
		// Direct ingestion of history: the record may arrive already
		// advanced past pending, which is the one sanctioned skip.
		ingest := *rm
		ingest.SyncStatus = models.SyncSynced
		ingest.Revision = 0
		if _, err := e.local.UpsertMessage(ctx, &ingest); err != nil {
			return err
		}
		telemetry.PulledRecords.Inc()

		// First sight of a message addressed to us doubles as the delivery
		// ack: the propagated read status flows back to the sender.
		if ingest.Recipient == e.owner && ingest.ReadStatus != models.ReadRetracted {
			if _, err := e.local.AdvanceReadStatus(ctx, ingest.Id, models.ReadDelivered, true); err != nil {
				return err
			}
		}
		return e.notifier.Publish(ctx, notify.Event{Kind: notify.EventMessageUpdated, Id: ingest.Id})
	}

	merged := *existing
	merged.Body = rm.Body
	merged.Kind = rm.Kind
	merged.PaymentId = rm.PaymentId
	// The store merges without regression; a stale remote value is ignored.
	merged.ReadStatus = rm.ReadStatus
	// Keep the local propagation state: a queued outbound change must not be
	// silently marked synced by a pull.
	merged.SyncStatus = existing.SyncStatus

	upd, err := e.local.UpsertMessage(ctx, &merged)
	if err != nil {
		return err
	}
	if upd.Revision == existing.Revision {
		return nil
	}
	telemetry.PulledRecords.Inc()
	return e.notifier.Publish(ctx, notify.Event{Kind: notify.EventMessageUpdated, Id: upd.Id})
}
