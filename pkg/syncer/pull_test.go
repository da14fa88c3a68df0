package syncer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sendlink/sendlink/pkg/models"
)

func TestPullOnce(t *testing.T) {
	ctx := context.Background()
	threadID := models.DeriveThreadID("alice", "bob")
	remoteThread := models.Thread{Id: threadID, Participants: []string{"alice", "bob"}}

	t.Run("ingests an inbound message and acks delivery", func(t *testing.T) {
		engine, local, remote := newTestEngine(t, "alice")

		inbound := models.Message{
			Id: "m1", ThreadId: threadID, Sender: "bob", Recipient: "alice",
			Kind: models.KindText, Body: "hello alice", ReadStatus: models.ReadSent,
			SyncStatus: models.SyncSynced, Seq: 100,
		}
		remote.On("ListThreads", mock.Anything, "alice").Return([]models.Thread{remoteThread}, nil)
		remote.On("MessagesSince", mock.Anything, threadID, int64(0)).Return([]models.Message{inbound}, int64(100), nil)

		require.NoError(t, engine.PullOnce(ctx))

		got, err := local.GetMessage(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, "hello alice", got.Body)
		// The delivery ack is queued for the next push.
		assert.Equal(t, models.ReadDelivered, got.ReadStatus)
		assert.Equal(t, models.SyncPending, got.SyncStatus)

		cursor, err := local.Cursor(ctx, threadID)
		require.NoError(t, err)
		assert.Equal(t, int64(100), cursor)
	})

	t.Run("replaying a pull changes nothing", func(t *testing.T) {
		engine, local, remote := newTestEngine(t, "alice")

		inbound := models.Message{
			Id: "m1", ThreadId: threadID, Sender: "bob", Recipient: "alice",
			Kind: models.KindText, Body: "hello alice", ReadStatus: models.ReadSent,
			SyncStatus: models.SyncSynced, Seq: 100,
		}
		remote.On("ListThreads", mock.Anything, "alice").Return([]models.Thread{remoteThread}, nil).Twice()
		remote.On("MessagesSince", mock.Anything, threadID, int64(0)).Return([]models.Message{inbound}, int64(100), nil).Once()
		remote.On("MessagesSince", mock.Anything, threadID, int64(100)).Return(nil, int64(100), nil).Once()

		require.NoError(t, engine.PullOnce(ctx))
		first, err := local.GetMessage(ctx, "m1")
		require.NoError(t, err)

		require.NoError(t, engine.PullOnce(ctx))
		second, err := local.GetMessage(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, first.Revision, second.Revision)
	})

	t.Run("a pulled read receipt advances the sender's copy", func(t *testing.T) {
		engine, local, remote := newTestEngine(t, "alice")

		m, err := local.UpsertMessage(ctx, &models.Message{Id: "m1", Sender: "alice", Recipient: "bob", Kind: models.KindText, Body: "hi"})
		require.NoError(t, err)
		require.NoError(t, local.SetMessageSyncStatus(ctx, m.Id, models.SyncSyncing, m.Revision))
		require.NoError(t, local.SetMessageSyncStatus(ctx, m.Id, models.SyncSynced, m.Revision))

		receipt := *m
		receipt.ReadStatus = models.ReadRead
		receipt.SyncStatus = models.SyncSynced
		receipt.Seq = 200
		remote.On("ListThreads", mock.Anything, "alice").Return([]models.Thread{remoteThread}, nil)
		remote.On("MessagesSince", mock.Anything, m.ThreadId, int64(0)).Return([]models.Message{receipt}, int64(200), nil)

		require.NoError(t, engine.PullOnce(ctx))

		got, err := local.GetMessage(ctx, m.Id)
		require.NoError(t, err)
		assert.Equal(t, models.ReadRead, got.ReadStatus)
		// No outbound propagation: the receipt came from the remote side.
		assert.Equal(t, models.SyncSynced, got.SyncStatus)
	})

	t.Run("a stale remote read status never regresses the local one", func(t *testing.T) {
		engine, local, remote := newTestEngine(t, "alice")

		m, err := local.UpsertMessage(ctx, &models.Message{Id: "m1", Sender: "bob", Recipient: "alice", Kind: models.KindText, Body: "hi", ReadStatus: models.ReadDelivered})
		require.NoError(t, err)
		_, err = local.AdvanceReadStatus(ctx, m.Id, models.ReadRead, true)
		require.NoError(t, err)

		stale := *m
		stale.ReadStatus = models.ReadSent
		stale.Seq = 300
		remote.On("ListThreads", mock.Anything, "alice").Return([]models.Thread{remoteThread}, nil)
		remote.On("MessagesSince", mock.Anything, m.ThreadId, int64(0)).Return([]models.Message{stale}, int64(300), nil)

		require.NoError(t, engine.PullOnce(ctx))

		got, err := local.GetMessage(ctx, m.Id)
		require.NoError(t, err)
		assert.Equal(t, models.ReadRead, got.ReadStatus)
		// The queued read-receipt push survives the pull.
		assert.Equal(t, models.SyncPending, got.SyncStatus)
	})

	t.Run("a pulled retraction tombstones the local copy", func(t *testing.T) {
		engine, local, remote := newTestEngine(t, "alice")

		m, err := local.UpsertMessage(ctx, &models.Message{Id: "m1", Sender: "bob", Recipient: "alice", Kind: models.KindText, Body: "oops", ReadStatus: models.ReadDelivered})
		require.NoError(t, err)

		retracted := *m
		retracted.ReadStatus = models.ReadRetracted
		retracted.Seq = 400
		remote.On("ListThreads", mock.Anything, "alice").Return([]models.Thread{remoteThread}, nil)
		remote.On("MessagesSince", mock.Anything, m.ThreadId, int64(0)).Return([]models.Message{retracted}, int64(400), nil)

		require.NoError(t, engine.PullOnce(ctx))

		got, err := local.GetMessage(ctx, m.Id)
		require.NoError(t, err)
		assert.Equal(t, models.ReadRetracted, got.ReadStatus)
	})

	t.Run("a failed apply leaves the cursor so the batch replays", func(t *testing.T) {
		engine, local, remote := newTestEngine(t, "alice")

		corrupt := models.Message{
			Id: "m1", ThreadId: threadID, Sender: "bob", Recipient: "alice",
			Kind: "sticker", Body: "??", Seq: 500,
		}
		remote.On("ListThreads", mock.Anything, "alice").Return([]models.Thread{remoteThread}, nil)
		remote.On("MessagesSince", mock.Anything, threadID, int64(0)).Return([]models.Message{corrupt}, int64(500), nil)

		require.NoError(t, engine.PullOnce(ctx))

		cursor, err := local.Cursor(ctx, threadID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), cursor)
	})
}
