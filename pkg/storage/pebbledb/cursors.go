package pebbledb

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cockroachdb/pebble"
)

// Cursor returns the per-thread pull cursor, zero when none is stored yet.
func (s *Store) Cursor(ctx context.Context, threadID string) (int64, error) {
	data, closer, err := s.db.Get(cursorKey(threadID))
	if err == pebble.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("pebble get cursor %s: %w", threadID, err)
	}
	defer closer.Close()
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt cursor for thread %s: %w", threadID, err)
	}
	return n, nil
}

// SetCursor stores the per-thread pull cursor. Cursors only move forward.
func (s *Store) SetCursor(ctx context.Context, threadID string, cursor int64) error {
	cur, err := s.Cursor(ctx, threadID)
	if err != nil {
		return err
	}
	if cursor <= cur {
		return nil
	}
	if err := s.db.Set(cursorKey(threadID), []byte(strconv.FormatInt(cursor, 10)), pebble.Sync); err != nil {
		return fmt.Errorf("pebble set cursor %s: %w", threadID, err)
	}
	return nil
}
