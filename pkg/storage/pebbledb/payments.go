package pebbledb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sendlink/sendlink/pkg/models"
	"github.com/sendlink/sendlink/pkg/storage"
)

// UpsertPayment writes a payment idempotently by id. Status changes must
// follow the payment transition table, and a failed payment may never carry a
// linked message.
func (s *Store) UpsertPayment(ctx context.Context, p *models.Payment) (*models.Payment, error) {
	if err := validatePayment(p); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var existing models.Payment
	found, err := s.getJSON(paymentKey(p.Id), &existing)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	stored := *p
	if found {
		stored.CreatedAt = existing.CreatedAt
		if stored.ContentEquals(&existing) {
			return &existing, nil
		}
		if stored.Status != existing.Status && !existing.Status.CanTransition(stored.Status) {
			return nil, fmt.Errorf("payment %s status %s -> %s: %w", p.Id, existing.Status, stored.Status, storage.ErrInvalidTransition)
		}
		stored.Revision = existing.Revision + 1
		stored.UpdatedAt = now
	} else {
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = now
		}
		stored.UpdatedAt = now
		stored.Revision = 1
		if stored.Status == "" {
			stored.Status = models.PaymentPending
		}
		if stored.SyncStatus == "" {
			stored.SyncStatus = models.SyncPending
		}
	}

	if err := s.setJSON(paymentKey(stored.Id), &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// SetPaymentSyncStatus moves the record along the sync state machine with a
// compare-and-swap on the revision.
func (s *Store) SetPaymentSyncStatus(ctx context.Context, id string, to models.SyncStatus, expectedRevision int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cur models.Payment
	found, err := s.getJSON(paymentKey(id), &cur)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("payment %s: %w", id, storage.ErrNotFound)
	}
	if cur.Revision != expectedRevision {
		return fmt.Errorf("payment %s at revision %d, expected %d: %w", id, cur.Revision, expectedRevision, storage.ErrConflict)
	}
	if !cur.SyncStatus.CanTransition(to) {
		return fmt.Errorf("payment %s sync %s -> %s: %w", id, cur.SyncStatus, to, storage.ErrInvalidTransition)
	}

	cur.SyncStatus = to
	cur.UpdatedAt = time.Now().UTC()
	return s.setJSON(paymentKey(id), &cur)
}

// GetPayment retrieves a payment by id.
func (s *Store) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	var p models.Payment
	found, err := s.getJSON(paymentKey(id), &p)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("payment %s: %w", id, storage.ErrNotFound)
	}
	return &p, nil
}

// ListPendingPayments returns payments awaiting push (pending or failed sync).
func (s *Store) ListPendingPayments(ctx context.Context) ([]models.Payment, error) {
	return s.listPayments(func(p *models.Payment) bool {
		return p.SyncStatus == models.SyncPending || p.SyncStatus == models.SyncFailed
	})
}

// ListStalePayments returns payments stuck in the pending payment status for
// longer than olderThan, for the stale-payment sweep.
func (s *Store) ListStalePayments(ctx context.Context, olderThan time.Duration) ([]models.Payment, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	return s.listPayments(func(p *models.Payment) bool {
		return p.Status == models.PaymentPending && p.CreatedAt.Before(cutoff)
	})
}

func (s *Store) listPayments(keep func(*models.Payment) bool) ([]models.Payment, error) {
	iter, err := s.prefixIter([]byte("pay:"))
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []models.Payment
	for iter.First(); iter.Valid(); iter.Next() {
		var p models.Payment
		if err := json.Unmarshal(iter.Value(), &p); err != nil {
			return nil, fmt.Errorf("decode payment at %q: %w", iter.Key(), err)
		}
		if keep(&p) {
			out = append(out, p)
		}
	}
	return out, iter.Error()
}

func validatePayment(p *models.Payment) error {
	switch {
	case p.Id == "":
		return fmt.Errorf("payment id must not be empty")
	case p.Sender == "" || p.Recipient == "":
		return fmt.Errorf("payment %s: sender and recipient must not be empty", p.Id)
	case p.Amount <= 0:
		return fmt.Errorf("payment %s: amount must be positive", p.Id)
	case p.Status == models.PaymentFailed && p.MessageId != "":
		return fmt.Errorf("payment %s: failed payment must not link a message", p.Id)
	}
	return nil
}
