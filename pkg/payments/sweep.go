package payments

import (
	"context"
	"log/slog"
	"time"

	"github.com/sendlink/sendlink/pkg/models"
	"github.com/sendlink/sendlink/pkg/notify"
	"github.com/sendlink/sendlink/pkg/storage"
	"github.com/sendlink/sendlink/pkg/telemetry"
	"github.com/sendlink/sendlink/pkg/wallet"
)

// Sweeper resolves payments stuck in the pending status past a TTL, so a
// crash or timeout mid-send never leaves money in limbo forever. With a
// known signature the broadcast outcome is probed out of band; without one
// the payment can only have failed.
type Sweeper struct {
	local    storage.LocalStore
	wallet   wallet.Wallet
	ttl      time.Duration
	interval time.Duration
	notifier notify.Publisher
	logger   *slog.Logger
}

// NewSweeper creates a sweeper. ttl is how long a payment may stay pending
// before it is considered stuck; interval is the scan period.
func NewSweeper(local storage.LocalStore, w wallet.Wallet, ttl, interval time.Duration, notifier notify.Publisher, logger *slog.Logger) *Sweeper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if notifier == nil {
		notifier = notify.NoOpPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{local: local, wallet: w, ttl: ttl, interval: interval, notifier: notifier, logger: logger}
}

// Run scans periodically until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("stale payment sweep failed", "error", err)
		}
	}
}

// SweepOnce resolves every stale pending payment it can. Payments whose
// outcome is still unknowable (status probe unreachable) are left for the
// next sweep.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	stale, err := s.local.ListStalePayments(ctx, s.ttl)
	if err != nil {
		return err
	}

	for i := range stale {
		p := &stale[i]
		if p.Signature != "" {
			confirmed, err := s.wallet.SignatureStatus(ctx, p.Signature)
			if err != nil {
				s.logger.Warn("broadcast probe failed, retrying next sweep", "payment", p.Id, "error", err)
				continue
			}
			if confirmed {
				if err := s.resolveCompleted(ctx, p); err != nil {
					return err
				}
				continue
			}
		}
		if err := s.resolveFailed(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sweeper) resolveCompleted(ctx context.Context, p *models.Payment) error {
	p.Status = models.PaymentCompleted
	// The resolution is a local mutation: an already-pushed row goes back to
	// the outbox so the counterpart device sees the outcome.
	p.SyncStatus = models.SyncPending
	upd, err := s.local.UpsertPayment(ctx, p)
	if err != nil {
		return err
	}
	telemetry.SweptPayments.WithLabelValues(string(models.PaymentCompleted)).Inc()
	s.logger.Info("stale payment confirmed out of band", "payment", p.Id)
	s.notifier.Publish(ctx, notify.Event{Kind: notify.EventPaymentUpdated, Id: upd.Id})
	return nil
}

func (s *Sweeper) resolveFailed(ctx context.Context, p *models.Payment) error {
	p.Status = models.PaymentFailed
	p.MessageId = ""
	p.SyncStatus = models.SyncPending
	upd, err := s.local.UpsertPayment(ctx, p)
	if err != nil {
		return err
	}
	telemetry.SweptPayments.WithLabelValues(string(models.PaymentFailed)).Inc()
	s.logger.Info("stale payment marked failed", "payment", p.Id)
	s.notifier.Publish(ctx, notify.Event{Kind: notify.EventPaymentUpdated, Id: upd.Id})
	return nil
}
