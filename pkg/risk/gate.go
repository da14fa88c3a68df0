// Package risk wraps the external risk-scoring oracle and the append-only
// risk log that every over-threshold evaluation must reach.
package risk

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sendlink/sendlink/pkg/models"
	"github.com/sendlink/sendlink/pkg/storage"
	"github.com/sendlink/sendlink/pkg/telemetry"
)

// Gate bounds oracle calls with a timeout and caches the last evaluation per
// destination so an oracle outage degrades to the cached verdict instead of
// hanging or silently skipping the log.
type Gate struct {
	oracle  Oracle
	log     storage.RiskLogStore
	remote  storage.RemoteWriter // best-effort audit mirror, may be nil
	timeout time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]Evaluation
}

// NewGate creates a gate. remote may be nil when no audit mirror is wired.
func NewGate(oracle Oracle, log storage.RiskLogStore, remote storage.RemoteWriter, timeout time.Duration, logger *slog.Logger) *Gate {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		oracle:  oracle,
		log:     log,
		remote:  remote,
		timeout: timeout,
		logger:  logger,
		cache:   map[string]Evaluation{},
	}
}

// Evaluate scores the request. On oracle failure it falls back to the cached
// evaluation for the destination when one exists; cached reports whether the
// returned verdict came from the cache.
func (g *Gate) Evaluate(ctx context.Context, req EvalRequest) (eval Evaluation, cached bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	eval, err = g.oracle.Evaluate(ctx, req)
	if err == nil {
		g.mu.Lock()
		g.cache[req.Destination] = eval
		g.mu.Unlock()
		return eval, false, nil
	}

	g.mu.Lock()
	last, ok := g.cache[req.Destination]
	g.mu.Unlock()
	if ok {
		g.logger.Warn("risk oracle unavailable, using cached evaluation",
			"destination", req.Destination, "score", last.Score, "error", err)
		return last, true, nil
	}
	return Evaluation{}, false, err
}

// Record appends the evaluation to the risk log. Exactly one entry is
// written per over-threshold evaluation, whether or not the user proceeds.
// The remote mirror is best effort and never fails the append.
func (g *Gate) Record(ctx context.Context, userID string, req EvalRequest, eval Evaluation) error {
	entry := &models.RiskLogEntry{
		Id:          uuid.New().String(),
		UserId:      userID,
		Destination: req.Destination,
		Amount:      req.Amount,
		Score:       eval.Score,
		Reason:      eval.Reason,
		CreatedAt:   time.Now().UTC(),
	}
	if err := g.log.AppendRiskLog(ctx, entry); err != nil {
		return err
	}
	telemetry.RiskLogAppends.Inc()

	if g.remote != nil {
		if err := g.remote.AppendRiskLog(ctx, entry); err != nil {
			g.logger.Warn("remote risk log mirror failed", "entry", entry.Id, "error", err)
		}
	}
	return nil
}
