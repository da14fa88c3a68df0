package pebbledb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sendlink/sendlink/pkg/models"
)

// AppendRiskLog appends an entry to the risk audit log. There is no update or
// delete path; the log only grows.
func (s *Store) AppendRiskLog(ctx context.Context, e *models.RiskLogEntry) error {
	if e.UserId == "" || e.Destination == "" {
		return fmt.Errorf("risk log entry requires user id and destination")
	}
	entry := *e
	if entry.Id == "" {
		entry.Id = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return s.setJSON(riskKey(entry.UserId, entry.CreatedAt, entry.Id), &entry)
}

// ListRiskLog returns a user's risk log entries in append order.
func (s *Store) ListRiskLog(ctx context.Context, userID string) ([]models.RiskLogEntry, error) {
	iter, err := s.prefixIter(riskPrefix(userID))
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []models.RiskLogEntry
	for iter.First(); iter.Valid(); iter.Next() {
		var e models.RiskLogEntry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			return nil, fmt.Errorf("decode risk entry at %q: %w", iter.Key(), err)
		}
		out = append(out, e)
	}
	return out, iter.Error()
}
