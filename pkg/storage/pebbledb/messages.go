package pebbledb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sendlink/sendlink/pkg/models"
	"github.com/sendlink/sendlink/pkg/storage"
)

// UpsertMessage writes a message idempotently by id. Immutable fields
// (createdAt, threadId) are taken from the stored copy when one exists, the
// read status is merged without regression, and the revision is bumped only
// when the observable content changed. The owning thread is created on the
// first message between the participants.
func (s *Store) UpsertMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if err := validateMessage(msg); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getMessageLocked(msg.Id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	stored := *msg
	if existing != nil {
		stored.ThreadId = existing.ThreadId
		stored.CreatedAt = existing.CreatedAt
		stored.ReadStatus = models.MergeRead(existing.ReadStatus, msg.ReadStatus)
		if stored.ContentEquals(existing) {
			return existing, nil
		}
		stored.Revision = existing.Revision + 1
		stored.UpdatedAt = now
	} else {
		if stored.ThreadId == "" {
			stored.ThreadId = models.DeriveThreadID(stored.Sender, stored.Recipient)
		}
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = now
		}
		stored.UpdatedAt = now
		stored.Revision = 1
		if stored.ReadStatus == "" {
			stored.ReadStatus = models.ReadPending
		}
		if stored.SyncStatus == "" {
			stored.SyncStatus = models.SyncPending
		}
	}

	if err := s.putMessageLocked(&stored); err != nil {
		return nil, err
	}
	if err := s.ensureThreadLocked(&stored); err != nil {
		return nil, err
	}
	if err := s.recomputeThreadLocked(stored.ThreadId); err != nil {
		return nil, err
	}
	return &stored, nil
}

// AdvanceReadStatus merges to into the stored read status. It is a no-op when
// the merge does not move the value forward. With propagate set, an effective
// change resets syncStatus to pending so the new state is pushed outward.
func (s *Store) AdvanceReadStatus(ctx context.Context, id string, to models.ReadStatus, propagate bool) (*models.Message, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("read status %q: %w", to, storage.ErrInvalidTransition)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.getMessageLocked(id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, fmt.Errorf("message %s: %w", id, storage.ErrNotFound)
	}

	merged := models.MergeRead(cur.ReadStatus, to)
	if merged == cur.ReadStatus {
		return cur, nil
	}

	upd := *cur
	upd.ReadStatus = merged
	upd.Revision = cur.Revision + 1
	upd.UpdatedAt = time.Now().UTC()
	if propagate {
		upd.SyncStatus = models.SyncPending
	}

	if err := s.putMessageLocked(&upd); err != nil {
		return nil, err
	}
	if err := s.recomputeThreadLocked(upd.ThreadId); err != nil {
		return nil, err
	}
	return &upd, nil
}

// SetMessageSyncStatus moves the record along the sync state machine. The
// expected revision detects concurrent local mutation during an in-flight
// push; a mismatch returns ErrConflict and leaves the record untouched.
func (s *Store) SetMessageSyncStatus(ctx context.Context, id string, to models.SyncStatus, expectedRevision int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.getMessageLocked(id)
	if err != nil {
		return err
	}
	if cur == nil {
		return fmt.Errorf("message %s: %w", id, storage.ErrNotFound)
	}
	if cur.Revision != expectedRevision {
		return fmt.Errorf("message %s at revision %d, expected %d: %w", id, cur.Revision, expectedRevision, storage.ErrConflict)
	}
	if !cur.SyncStatus.CanTransition(to) {
		return fmt.Errorf("message %s sync %s -> %s: %w", id, cur.SyncStatus, to, storage.ErrInvalidTransition)
	}

	cur.SyncStatus = to
	cur.UpdatedAt = time.Now().UTC()
	return s.putMessageLocked(cur)
}

// GetMessage retrieves a message by id.
func (s *Store) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, err := s.getMessageLocked(id)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, fmt.Errorf("message %s: %w", id, storage.ErrNotFound)
	}
	return msg, nil
}

// ListMessagesByThread returns a thread's messages in (createdAt, id) order.
func (s *Store) ListMessagesByThread(ctx context.Context, threadID string) ([]models.Message, error) {
	iter, err := s.prefixIter(messagePrefix(threadID))
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []models.Message
	for iter.First(); iter.Valid(); iter.Next() {
		var m models.Message
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			return nil, fmt.Errorf("decode message at %q: %w", iter.Key(), err)
		}
		out = append(out, m)
	}
	return out, iter.Error()
}

// ListPendingMessages returns messages awaiting push (pending or failed),
// grouped by thread and ordered by createdAt within each thread.
func (s *Store) ListPendingMessages(ctx context.Context) ([]models.Message, error) {
	iter, err := s.prefixIter([]byte("msg:"))
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []models.Message
	for iter.First(); iter.Valid(); iter.Next() {
		var m models.Message
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			return nil, fmt.Errorf("decode message at %q: %w", iter.Key(), err)
		}
		if m.SyncStatus == models.SyncPending || m.SyncStatus == models.SyncFailed {
			out = append(out, m)
		}
	}
	return out, iter.Error()
}

func (s *Store) getMessageLocked(id string) (*models.Message, error) {
	var key string
	found, err := s.getJSON(messageIndexKey(id), &key)
	if err != nil || !found {
		return nil, err
	}
	var m models.Message
	found, err = s.getJSON([]byte(key), &m)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("message index %s points at missing key %q", id, key)
	}
	return &m, nil
}

func (s *Store) putMessageLocked(m *models.Message) error {
	key := messageKey(m.ThreadId, m.CreatedAt, m.Id)
	if err := s.setJSON(key, m); err != nil {
		return err
	}
	return s.setJSON(messageIndexKey(m.Id), string(key))
}

func validateMessage(m *models.Message) error {
	switch {
	case m.Id == "":
		return fmt.Errorf("message id must not be empty")
	case m.Sender == "" || m.Recipient == "":
		return fmt.Errorf("message %s: sender and recipient must not be empty", m.Id)
	case m.Kind != models.KindText && m.Kind != models.KindPayment &&
		m.Kind != models.KindPaymentLink && m.Kind != models.KindImage:
		return fmt.Errorf("message %s: unknown kind %q", m.Id, m.Kind)
	case m.ReadStatus != "" && !m.ReadStatus.Valid():
		return fmt.Errorf("message %s: unknown read status %q", m.Id, m.ReadStatus)
	case m.SyncStatus != "" && !m.SyncStatus.Valid():
		return fmt.Errorf("message %s: unknown sync status %q", m.Id, m.SyncStatus)
	case m.Kind == models.KindPayment && m.PaymentId == "":
		return fmt.Errorf("message %s: payment message without payment id", m.Id)
	}
	return nil
}
