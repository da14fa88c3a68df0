package pebbledb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/sendlink/sendlink/pkg/models"
	"github.com/sendlink/sendlink/pkg/storage"
)

// GetThread retrieves thread metadata by id.
func (s *Store) GetThread(ctx context.Context, id string) (*models.Thread, error) {
	var t models.Thread
	found, err := s.getJSON(threadKey(id), &t)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("thread %s: %w", id, storage.ErrNotFound)
	}
	return &t, nil
}

// ListThreads returns all known threads.
func (s *Store) ListThreads(ctx context.Context) ([]models.Thread, error) {
	iter, err := s.prefixIter([]byte("thread:"))
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []models.Thread
	for iter.First(); iter.Valid(); iter.Next() {
		var t models.Thread
		if err := json.Unmarshal(iter.Value(), &t); err != nil {
			return nil, fmt.Errorf("decode thread at %q: %w", iter.Key(), err)
		}
		out = append(out, t)
	}
	return out, iter.Error()
}

// UpsertThread writes thread metadata idempotently by id.
func (s *Store) UpsertThread(ctx context.Context, t *models.Thread) (*models.Thread, error) {
	if t.Id == "" {
		return nil, fmt.Errorf("thread id must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	stored := *t
	var existing models.Thread
	found, err := s.getJSON(threadKey(t.Id), &existing)
	if err != nil {
		return nil, err
	}
	if found {
		// Local delivery bookkeeping wins over the pulled copy. Archived is
		// local-only state, so a pull never reverts it.
		stored.CreatedAt = existing.CreatedAt
		stored.LastMessageId = existing.LastMessageId
		stored.Unread = existing.Unread
		stored.Archived = existing.Archived
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	if err := s.setJSON(threadKey(stored.Id), &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// ArchiveThread marks a thread archived. Threads are never deleted.
func (s *Store) ArchiveThread(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var t models.Thread
	found, err := s.getJSON(threadKey(id), &t)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("thread %s: %w", id, storage.ErrNotFound)
	}
	t.Archived = true
	t.UpdatedAt = time.Now().UTC()
	return s.setJSON(threadKey(id), &t)
}

// ensureThreadLocked creates the thread for a message's participant pair if
// it does not exist yet.
func (s *Store) ensureThreadLocked(m *models.Message) error {
	var t models.Thread
	found, err := s.getJSON(threadKey(m.ThreadId), &t)
	if err != nil || found {
		return err
	}
	participants := []string{m.Sender, m.Recipient}
	sort.Strings(participants)
	now := time.Now().UTC()
	t = models.Thread{
		Id:           m.ThreadId,
		Participants: participants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return s.setJSON(threadKey(t.Id), &t)
}

// recomputeThreadLocked refreshes the thread's last-message reference and
// unread counter from the message table. Unread counts messages addressed to
// the device owner that have not reached the read state.
func (s *Store) recomputeThreadLocked(threadID string) error {
	var t models.Thread
	found, err := s.getJSON(threadKey(threadID), &t)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("thread %s: %w", threadID, storage.ErrNotFound)
	}

	iter, err := s.prefixIter(messagePrefix(threadID))
	if err != nil {
		return err
	}
	defer iter.Close()

	var lastID string
	unread := 0
	for iter.First(); iter.Valid(); iter.Next() {
		var m models.Message
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			return fmt.Errorf("decode message at %q: %w", iter.Key(), err)
		}
		lastID = m.Id
		if m.Recipient == s.owner && m.ReadStatus != models.ReadRetracted && m.ReadStatus != models.ReadRead {
			unread++
		}
	}
	if err := iter.Error(); err != nil {
		return err
	}

	if t.LastMessageId == lastID && t.Unread == unread {
		return nil
	}
	t.LastMessageId = lastID
	t.Unread = unread
	t.UpdatedAt = time.Now().UTC()
	return s.setJSON(threadKey(threadID), &t)
}
