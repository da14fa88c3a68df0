package threads

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendlink/sendlink/pkg/api"
	"github.com/sendlink/sendlink/pkg/models"
	"github.com/sendlink/sendlink/pkg/storage/pebbledb"
)

func newTestHandler(t *testing.T) (*ThreadsHandler, *pebbledb.Store) {
	t.Helper()
	store, err := pebbledb.Open(filepath.Join(t.TempDir(), "db"), "alice")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewThreadsHandler(store, store), store
}

func seedThread(t *testing.T, store *pebbledb.Store) string {
	t.Helper()
	m, err := store.UpsertMessage(context.Background(), &models.Message{Id: "m1", Sender: "bob", Recipient: "alice", Kind: models.KindText, Body: "hi"})
	require.NoError(t, err)
	return m.ThreadId
}

func TestListThreads(t *testing.T) {
	h, store := newTestHandler(t)
	seedThread(t, store)

	rr := httptest.NewRecorder()
	h.ListThreads(rr, httptest.NewRequest(http.MethodGet, "/v1/threads", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var got []api.Thread
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Unread)
	assert.Equal(t, "m1", got[0].LastMessageId)
}

func TestGetThreadById(t *testing.T) {
	h, store := newTestHandler(t)
	threadID := seedThread(t, store)

	t.Run("returns the thread", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.GetThreadById(rr, httptest.NewRequest(http.MethodGet, "/v1/threads/"+threadID, nil), threadID)

		require.Equal(t, http.StatusOK, rr.Code)
		var got api.Thread
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, threadID, got.Id)
	})

	t.Run("unknown thread", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.GetThreadById(rr, httptest.NewRequest(http.MethodGet, "/v1/threads/ghost", nil), "ghost")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestListThreadMessages(t *testing.T) {
	h, store := newTestHandler(t)
	threadID := seedThread(t, store)
	_, err := store.UpsertMessage(context.Background(), &models.Message{Id: "m2", Sender: "alice", Recipient: "bob", Kind: models.KindText, Body: "hey"})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.ListThreadMessages(rr, httptest.NewRequest(http.MethodGet, "/v1/threads/"+threadID+"/messages", nil), threadID)

	require.Equal(t, http.StatusOK, rr.Code)
	var got []api.Message
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}

func TestArchiveThread(t *testing.T) {
	h, store := newTestHandler(t)
	threadID := seedThread(t, store)

	rr := httptest.NewRecorder()
	h.ArchiveThread(rr, httptest.NewRequest(http.MethodPost, "/v1/threads/"+threadID+"/archive", nil), threadID)
	require.Equal(t, http.StatusNoContent, rr.Code)

	thread, err := store.GetThread(context.Background(), threadID)
	require.NoError(t, err)
	assert.True(t, thread.Archived)
}
