package syncer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sendlink/sendlink/pkg/faults"
	"github.com/sendlink/sendlink/pkg/models"
	"github.com/sendlink/sendlink/pkg/storage/mocks"
	"github.com/sendlink/sendlink/pkg/storage/pebbledb"
)

func newTestEngine(t *testing.T, owner string) (*Engine, *pebbledb.Store, *mocks.RemoteStore) {
	t.Helper()
	local, err := pebbledb.Open(filepath.Join(t.TempDir(), "db"), owner)
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	remote := mocks.NewRemoteStore(t)
	engine := New(local, remote, owner, Options{
		RetryBudget: 1,
		RetryBase:   time.Millisecond,
		RateLimit:   1000,
	})
	return engine, local, remote
}

func TestPushOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("drains a composed message and marks it sent", func(t *testing.T) {
		engine, local, remote := newTestEngine(t, "alice")
		m, err := local.UpsertMessage(ctx, &models.Message{Id: "m1", Sender: "alice", Recipient: "bob", Kind: models.KindText, Body: "offline hello"})
		require.NoError(t, err)

		remote.On("PutMessage", mock.Anything, mock.MatchedBy(func(rm *models.Message) bool {
			return rm.Id == "m1" && rm.SyncStatus == models.SyncSynced
		})).Return(nil)
		remote.On("PutThread", mock.Anything, mock.Anything).Return(nil)

		require.NoError(t, engine.PushOnce(ctx))

		got, err := local.GetMessage(ctx, m.Id)
		require.NoError(t, err)
		assert.Equal(t, models.SyncSynced, got.SyncStatus)
		assert.Equal(t, models.ReadSent, got.ReadStatus)
	})

	t.Run("a received message pushes without advancing read status", func(t *testing.T) {
		engine, local, remote := newTestEngine(t, "alice")
		m, err := local.UpsertMessage(ctx, &models.Message{Id: "m1", Sender: "bob", Recipient: "alice", Kind: models.KindText, Body: "hi", ReadStatus: models.ReadDelivered})
		require.NoError(t, err)
		_, err = local.AdvanceReadStatus(ctx, m.Id, models.ReadRead, true)
		require.NoError(t, err)

		remote.On("PutMessage", mock.Anything, mock.MatchedBy(func(rm *models.Message) bool {
			return rm.ReadStatus == models.ReadRead
		})).Return(nil)
		remote.On("PutThread", mock.Anything, mock.Anything).Return(nil)

		require.NoError(t, engine.PushOnce(ctx))

		got, err := local.GetMessage(ctx, m.Id)
		require.NoError(t, err)
		assert.Equal(t, models.ReadRead, got.ReadStatus)
		assert.Equal(t, models.SyncSynced, got.SyncStatus)
	})

	t.Run("an exhausted push marks the record failed and retries next cycle", func(t *testing.T) {
		engine, local, remote := newTestEngine(t, "alice")
		m, err := local.UpsertMessage(ctx, &models.Message{Id: "m1", Sender: "alice", Recipient: "bob", Kind: models.KindText, Body: "flaky"})
		require.NoError(t, err)

		remote.On("PutMessage", mock.Anything, mock.Anything).
			Return(faults.New(faults.Network, "dynamodb.put_message", errors.New("offline"))).Once()
		remote.On("PutThread", mock.Anything, mock.Anything).Return(nil)

		require.NoError(t, engine.PushOnce(ctx))
		got, err := local.GetMessage(ctx, m.Id)
		require.NoError(t, err)
		assert.Equal(t, models.SyncFailed, got.SyncStatus)

		remote.On("PutMessage", mock.Anything, mock.Anything).Return(nil).Once()
		require.NoError(t, engine.PushOnce(ctx))
		got, err = local.GetMessage(ctx, m.Id)
		require.NoError(t, err)
		assert.Equal(t, models.SyncSynced, got.SyncStatus)
		assert.Equal(t, models.ReadSent, got.ReadStatus)
	})

	t.Run("drains a pending payment", func(t *testing.T) {
		engine, local, remote := newTestEngine(t, "alice")
		p, err := local.UpsertPayment(ctx, &models.Payment{Id: "p1", Sender: "alice", Recipient: "bob", Amount: 500, Status: models.PaymentPending})
		require.NoError(t, err)

		remote.On("PutPayment", mock.Anything, mock.MatchedBy(func(rp *models.Payment) bool {
			return rp.Id == "p1" && rp.SyncStatus == models.SyncSynced
		})).Return(nil)

		require.NoError(t, engine.PushOnce(ctx))

		got, err := local.GetPayment(ctx, p.Id)
		require.NoError(t, err)
		assert.Equal(t, models.SyncSynced, got.SyncStatus)
	})

	t.Run("a record edited after a successful push goes out again", func(t *testing.T) {
		engine, local, remote := newTestEngine(t, "alice")
		m, err := local.UpsertMessage(ctx, &models.Message{Id: "m1", Sender: "alice", Recipient: "bob", Kind: models.KindText, Body: "v1"})
		require.NoError(t, err)

		remote.On("PutMessage", mock.Anything, mock.Anything).Return(nil)
		remote.On("PutThread", mock.Anything, mock.Anything).Return(nil)
		require.NoError(t, engine.PushOnce(ctx))

		edited, err := local.GetMessage(ctx, m.Id)
		require.NoError(t, err)
		edited.Body = "v2"
		edited.SyncStatus = models.SyncPending
		_, err = local.UpsertMessage(ctx, edited)
		require.NoError(t, err)

		require.NoError(t, engine.PushOnce(ctx))
		got, err := local.GetMessage(ctx, m.Id)
		require.NoError(t, err)
		assert.Equal(t, models.SyncSynced, got.SyncStatus)
		assert.Equal(t, "v2", got.Body)
	})
}
