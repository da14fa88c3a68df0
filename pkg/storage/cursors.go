package storage

import "context"

// CursorStore persists the per-thread pull cursor (sync_meta). The cursor is
// the highest remote sequence number already applied locally.
type CursorStore interface {
	Cursor(ctx context.Context, threadID string) (int64, error)
	SetCursor(ctx context.Context, threadID string, cursor int64) error
}
