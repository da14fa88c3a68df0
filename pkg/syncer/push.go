package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendlink/sendlink/pkg/delivery"
	"github.com/sendlink/sendlink/pkg/models"
	"github.com/sendlink/sendlink/pkg/notify"
	"github.com/sendlink/sendlink/pkg/storage"
	"github.com/sendlink/sendlink/pkg/telemetry"
)

// PushOnce drains dirty records to the remote store. Records come back from
// the pending scan grouped by thread and ordered by createdAt, and are
// transmitted in that order. A failure on one record never aborts the batch.
func (e *Engine) PushOnce(ctx context.Context) error {
	msgs, err := e.local.ListPendingMessages(ctx)
	if err != nil {
		return fmt.Errorf("push scan (messages): %w", err)
	}
	touchedThreads := map[string]bool{}
	for i := range msgs {
		if err := e.pushMessage(ctx, &msgs[i]); err != nil {
			return err
		}
		touchedThreads[msgs[i].ThreadId] = true
	}

	pays, err := e.local.ListPendingPayments(ctx)
	if err != nil {
		return fmt.Errorf("push scan (payments): %w", err)
	}
	for i := range pays {
		if err := e.pushPayment(ctx, &pays[i]); err != nil {
			return err
		}
	}

	// Keep the counterpart's thread list current for the threads we wrote to.
	for id := range touchedThreads {
		t, err := e.local.GetThread(ctx, id)
		if err != nil {
			continue
		}
		if err := e.remote.PutThread(ctx, t); err != nil {
			e.logger.Warn("thread push failed", "thread", id, "error", err)
		}
	}
	return nil
}

// pushMessage pushes a single message. It returns an error only for local
// persistence problems; remote failures are absorbed into the record's sync
// status so the next scan retries.
func (e *Engine) pushMessage(ctx context.Context, m *models.Message) error {
	if err := e.local.SetMessageSyncStatus(ctx, m.Id, models.SyncSyncing, m.Revision); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// Changed since the scan read it; requeued by nature.
			telemetry.PushConflicts.WithLabelValues(string(models.RecordMessage)).Inc()
			return nil
		}
		return err
	}

	remote := *m
	remote.SyncStatus = models.SyncSynced
	err := withRetry(ctx, e.retryBudget, e.retryBase, func() error {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		return e.remote.PutMessage(ctx, &remote)
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.logger.Warn("message push exhausted retries", "message", m.Id, "error", err)
		telemetry.PushFailures.WithLabelValues(string(models.RecordMessage)).Inc()
		// Leaves the record eligible for the next scan.
		return e.markFailed(ctx, models.RecordMessage, m.Id, m.Revision)
	}

	if err := e.local.SetMessageSyncStatus(ctx, m.Id, models.SyncSynced, m.Revision); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			// Mutated while in flight; the upsert already reset it to
			// pending, so the newer revision goes out next cycle.
			telemetry.PushConflicts.WithLabelValues(string(models.RecordMessage)).Inc()
			return nil
		}
		return err
	}
	telemetry.PushedRecords.WithLabelValues(string(models.RecordMessage)).Inc()

	// The sender's copy advances pending -> sent on push confirmation.
	if m.Sender == e.owner {
		if next, terr := delivery.Next(models.ReadPending, delivery.EventPushConfirmed); terr == nil {
			if _, aerr := e.local.AdvanceReadStatus(ctx, m.Id, next, false); aerr != nil {
				return aerr
			}
		}
	}
	return e.notifier.Publish(ctx, notify.Event{Kind: notify.EventMessageUpdated, Id: m.Id})
}

func (e *Engine) pushPayment(ctx context.Context, p *models.Payment) error {
	if err := e.local.SetPaymentSyncStatus(ctx, p.Id, models.SyncSyncing, p.Revision); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			telemetry.PushConflicts.WithLabelValues(string(models.RecordPayment)).Inc()
			return nil
		}
		return err
	}

	remote := *p
	remote.SyncStatus = models.SyncSynced
	err := withRetry(ctx, e.retryBudget, e.retryBase, func() error {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		return e.remote.PutPayment(ctx, &remote)
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.logger.Warn("payment push exhausted retries", "payment", p.Id, "error", err)
		telemetry.PushFailures.WithLabelValues(string(models.RecordPayment)).Inc()
		return e.markFailed(ctx, models.RecordPayment, p.Id, p.Revision)
	}

	if err := e.local.SetPaymentSyncStatus(ctx, p.Id, models.SyncSynced, p.Revision); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			telemetry.PushConflicts.WithLabelValues(string(models.RecordPayment)).Inc()
			return nil
		}
		return err
	}
	telemetry.PushedRecords.WithLabelValues(string(models.RecordPayment)).Inc()
	return e.notifier.Publish(ctx, notify.Event{Kind: notify.EventPaymentUpdated, Id: p.Id})
}

func (e *Engine) markFailed(ctx context.Context, kind models.RecordKind, id string, revision int64) error {
	var err error
	switch kind {
	case models.RecordMessage:
		err = e.local.SetMessageSyncStatus(ctx, id, models.SyncFailed, revision)
	case models.RecordPayment:
		err = e.local.SetPaymentSyncStatus(ctx, id, models.SyncFailed, revision)
	}
	if errors.Is(err, storage.ErrConflict) {
		// Mutated while we were failing it; the new revision is pending.
		return nil
	}
	return err
}
