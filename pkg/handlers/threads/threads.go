package threads

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sendlink/sendlink/pkg/api"
	"github.com/sendlink/sendlink/pkg/mapping"
	"github.com/sendlink/sendlink/pkg/storage"
)

// ThreadsHandler holds the dependencies for thread-related handlers.
type ThreadsHandler struct {
	Threads  storage.ThreadStore
	Messages storage.MessageReader
}

// NewThreadsHandler creates a new ThreadsHandler.
func NewThreadsHandler(threads storage.ThreadStore, messages storage.MessageReader) *ThreadsHandler {
	return &ThreadsHandler{Threads: threads, Messages: messages}
}

// ListThreads handles the logic for retrieving all local threads.
func (h *ThreadsHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	domainThreads, err := h.Threads.ListThreads(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve threads: %v", err), http.StatusInternalServerError)
		return
	}

	apiThreads := make([]*api.Thread, len(domainThreads))
	for i, thread := range domainThreads {
		apiThreads[i] = mapping.ToApiThread(&thread)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiThreads); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// GetThreadById handles the logic for retrieving a thread by its ID.
func (h *ThreadsHandler) GetThreadById(w http.ResponseWriter, r *http.Request, threadId string) {
	domainThread, err := h.Threads.GetThread(r.Context(), threadId)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Thread not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to retrieve thread: %v", err), http.StatusInternalServerError)
		}
		return
	}

	apiThread := mapping.ToApiThread(domainThread)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiThread); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// ListThreadMessages handles the logic for retrieving a thread's messages in
// chronological order.
func (h *ThreadsHandler) ListThreadMessages(w http.ResponseWriter, r *http.Request, threadId string) {
	domainMsgs, err := h.Messages.ListMessagesByThread(r.Context(), threadId)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve messages: %v", err), http.StatusInternalServerError)
		return
	}

	apiMsgs := make([]*api.Message, len(domainMsgs))
	for i, msg := range domainMsgs {
		apiMsgs[i] = mapping.ToApiMessage(&msg)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiMsgs); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// ArchiveThread handles the logic for archiving a thread locally.
func (h *ThreadsHandler) ArchiveThread(w http.ResponseWriter, r *http.Request, threadId string) {
	if err := h.Threads.ArchiveThread(r.Context(), threadId); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Thread not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to archive thread: %v", err), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
