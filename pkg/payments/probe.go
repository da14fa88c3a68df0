package payments

import (
	"context"

	"github.com/sendlink/sendlink/pkg/models"
	"github.com/sendlink/sendlink/pkg/storage"
	"github.com/sendlink/sendlink/pkg/wallet"
)

// ResolveProbe records the broadcast outcome for a payment flagged stale by
// the fleet sweep. With a known signature the outcome is probed against the
// wallet; without one the broadcast never happened, so the payment can only
// have failed. An unreachable probe returns the error so the queue redelivers
// the record.
func ResolveProbe(ctx context.Context, store storage.RemoteSweepStore, w wallet.Wallet, p *models.Payment) error {
	status := models.PaymentFailed
	if p.Signature != "" {
		confirmed, err := w.SignatureStatus(ctx, p.Signature)
		if err != nil {
			return err
		}
		if confirmed {
			status = models.PaymentCompleted
		}
	}
	return store.ResolvePayment(ctx, p.Id, status, p.Signature)
}
