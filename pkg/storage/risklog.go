package storage

import (
	"context"

	"github.com/sendlink/sendlink/pkg/models"
)

// RiskLogStore is the append-only risk audit log. There is deliberately no
// update or delete operation.
type RiskLogStore interface {
	AppendRiskLog(ctx context.Context, e *models.RiskLogEntry) error
	ListRiskLog(ctx context.Context, userID string) ([]models.RiskLogEntry, error)
}
