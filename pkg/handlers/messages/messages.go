package messages

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sendlink/sendlink/pkg/api"
	"github.com/sendlink/sendlink/pkg/mapping"
	"github.com/sendlink/sendlink/pkg/models"
	"github.com/sendlink/sendlink/pkg/storage"
)

// Kicker wakes the sync engine after a local write so the outbox drains
// without waiting for the next tick.
type Kicker interface {
	Kick()
}

// MessagesHandler holds the dependencies for message-related handlers.
type MessagesHandler struct {
	Store  storage.MessageStore
	Owner  string
	Kicker Kicker
	Logger *slog.Logger
}

// NewMessagesHandler creates a new MessagesHandler.
func NewMessagesHandler(store storage.MessageStore, owner string, kicker Kicker, logger *slog.Logger) *MessagesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessagesHandler{Store: store, Owner: owner, Kicker: kicker, Logger: logger}
}

// SendMessage handles the logic for composing a new outbound message. The
// message is committed locally first; delivery happens asynchronously.
func (h *MessagesHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var nm api.NewMessage
	if err := json.NewDecoder(r.Body).Decode(&nm); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	kind := models.MessageKind(nm.Kind)
	if kind == "" {
		kind = models.KindText
	}
	if kind != models.KindText && kind != models.KindImage {
		http.Error(w, "Only text and image messages can be sent directly", http.StatusBadRequest)
		return
	}
	nm.Kind = string(kind)

	domainMsg := mapping.ToDomainNewMessage(h.Owner, &nm)

	createdMsg, err := h.Store.UpsertMessage(r.Context(), domainMsg)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidTransition) {
			http.Error(w, err.Error(), http.StatusConflict)
		} else {
			h.Logger.Error("failed to store outbound message", "error", err)
			http.Error(w, fmt.Sprintf("Failed to send message: %v", err), http.StatusInternalServerError)
		}
		return
	}

	if h.Kicker != nil {
		h.Kicker.Kick()
	}

	apiMsg := mapping.ToApiMessage(createdMsg)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(apiMsg); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// GetMessageById handles the logic for retrieving a message by its ID.
func (h *MessagesHandler) GetMessageById(w http.ResponseWriter, r *http.Request, messageId string) {
	domainMsg, err := h.Store.GetMessage(r.Context(), messageId)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Message not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to retrieve message: %v", err), http.StatusInternalServerError)
		}
		return
	}

	apiMsg := mapping.ToApiMessage(domainMsg)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiMsg); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// MarkRead handles the logic for marking an inbound message as read. Only the
// recipient may mark a message read; the advancement is queued for sync so the
// sender's device converges.
func (h *MessagesHandler) MarkRead(w http.ResponseWriter, r *http.Request, messageId string) {
	h.advance(w, r, messageId, models.ReadRead, func(m *models.Message) bool {
		return m.Recipient == h.Owner
	})
}

// Retract handles the logic for retracting a message. Only the sender may
// retract.
func (h *MessagesHandler) Retract(w http.ResponseWriter, r *http.Request, messageId string) {
	h.advance(w, r, messageId, models.ReadRetracted, func(m *models.Message) bool {
		return m.Sender == h.Owner
	})
}

func (h *MessagesHandler) advance(w http.ResponseWriter, r *http.Request, messageId string, to models.ReadStatus, allowed func(*models.Message) bool) {
	domainMsg, err := h.Store.GetMessage(r.Context(), messageId)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Message not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to retrieve message: %v", err), http.StatusInternalServerError)
		}
		return
	}
	if !allowed(domainMsg) {
		http.Error(w, "Not allowed for this message", http.StatusForbidden)
		return
	}

	updatedMsg, err := h.Store.AdvanceReadStatus(r.Context(), messageId, to, true)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to update message: %v", err), http.StatusInternalServerError)
		return
	}

	if h.Kicker != nil {
		h.Kicker.Kick()
	}

	apiMsg := mapping.ToApiMessage(updatedMsg)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiMsg); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
