package payments

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendlink/sendlink/pkg/models"
	"github.com/sendlink/sendlink/pkg/storage/pebbledb"
	"github.com/sendlink/sendlink/pkg/wallet"
)

func newSweepFixture(t *testing.T, w *wallet.ScriptedWallet) (*Sweeper, *pebbledb.Store) {
	t.Helper()
	local, err := pebbledb.Open(filepath.Join(t.TempDir(), "db"), "alice")
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })
	return NewSweeper(local, w, 10*time.Minute, time.Minute, nil, nil), local
}

func stalePayment(id, signature string) *models.Payment {
	return &models.Payment{
		Id: id, Sender: "alice", Recipient: "bob", Amount: 100,
		Status: models.PaymentPending, Signature: signature,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
}

func TestSweepOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("a stale payment without a signature can only have failed", func(t *testing.T) {
		w := &wallet.ScriptedWallet{}
		sweeper, local := newSweepFixture(t, w)
		_, err := local.UpsertPayment(ctx, stalePayment("p1", ""))
		require.NoError(t, err)

		require.NoError(t, sweeper.SweepOnce(ctx))

		got, err := local.GetPayment(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentFailed, got.Status)
		assert.Empty(t, got.MessageId)
		assert.Zero(t, w.StatusCalls)
	})

	t.Run("a confirmed signature completes the payment", func(t *testing.T) {
		w := &wallet.ScriptedWallet{Confirmed: true}
		sweeper, local := newSweepFixture(t, w)
		_, err := local.UpsertPayment(ctx, stalePayment("p1", "sig123"))
		require.NoError(t, err)

		require.NoError(t, sweeper.SweepOnce(ctx))

		got, err := local.GetPayment(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentCompleted, got.Status)
		assert.Equal(t, "sig123", got.Signature)
	})

	t.Run("an unconfirmed signature fails the payment", func(t *testing.T) {
		w := &wallet.ScriptedWallet{Confirmed: false}
		sweeper, local := newSweepFixture(t, w)
		_, err := local.UpsertPayment(ctx, stalePayment("p1", "sig123"))
		require.NoError(t, err)

		require.NoError(t, sweeper.SweepOnce(ctx))

		got, err := local.GetPayment(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentFailed, got.Status)
	})

	t.Run("a resolved payment goes back to the outbox", func(t *testing.T) {
		w := &wallet.ScriptedWallet{}
		sweeper, local := newSweepFixture(t, w)
		created, err := local.UpsertPayment(ctx, stalePayment("p1", ""))
		require.NoError(t, err)

		// The payment was already pushed before it went stale.
		require.NoError(t, local.SetPaymentSyncStatus(ctx, "p1", models.SyncSyncing, created.Revision))
		require.NoError(t, local.SetPaymentSyncStatus(ctx, "p1", models.SyncSynced, created.Revision))

		require.NoError(t, sweeper.SweepOnce(ctx))

		got, err := local.GetPayment(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentFailed, got.Status)
		assert.Equal(t, models.SyncPending, got.SyncStatus)

		pending, err := local.ListPendingPayments(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "p1", pending[0].Id)
	})

	t.Run("an unreachable probe leaves the payment for the next sweep", func(t *testing.T) {
		w := &wallet.ScriptedWallet{StatusErr: errors.New("rpc down")}
		sweeper, local := newSweepFixture(t, w)
		_, err := local.UpsertPayment(ctx, stalePayment("p1", "sig123"))
		require.NoError(t, err)

		require.NoError(t, sweeper.SweepOnce(ctx))

		got, err := local.GetPayment(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentPending, got.Status)
	})

	t.Run("fresh pending payments are untouched", func(t *testing.T) {
		w := &wallet.ScriptedWallet{}
		sweeper, local := newSweepFixture(t, w)
		fresh := stalePayment("p1", "")
		fresh.CreatedAt = time.Now().UTC()
		_, err := local.UpsertPayment(ctx, fresh)
		require.NoError(t, err)

		require.NoError(t, sweeper.SweepOnce(ctx))

		got, err := local.GetPayment(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentPending, got.Status)
	})
}
