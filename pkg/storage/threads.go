package storage

import (
	"context"

	"github.com/sendlink/sendlink/pkg/models"
)

// ThreadStore defines the interface for thread metadata. Threads are never
// deleted, only archived.
type ThreadStore interface {
	GetThread(ctx context.Context, id string) (*models.Thread, error)
	ListThreads(ctx context.Context) ([]models.Thread, error)
	UpsertThread(ctx context.Context, t *models.Thread) (*models.Thread, error)
	ArchiveThread(ctx context.Context, id string) error
}
