package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sendlink/sendlink/pkg/api"
	"github.com/sendlink/sendlink/pkg/faults"
	"github.com/sendlink/sendlink/pkg/mapping"
	"github.com/sendlink/sendlink/pkg/models"
	"github.com/sendlink/sendlink/pkg/payments"
	"github.com/sendlink/sendlink/pkg/storage"
)

// Sender runs the full send pipeline for a payment.
type Sender interface {
	Send(ctx context.Context, req payments.SendRequest) (*models.Payment, error)
}

// PaymentsHandler holds the dependencies for payment-related handlers.
type PaymentsHandler struct {
	Pipeline Sender
	Store    storage.PaymentReader
	RiskLog  storage.RiskLogStore
	Owner    string
	Logger   *slog.Logger
}

// NewPaymentsHandler creates a new PaymentsHandler.
func NewPaymentsHandler(pipeline Sender, store storage.PaymentReader, riskLog storage.RiskLogStore, owner string, logger *slog.Logger) *PaymentsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentsHandler{Pipeline: pipeline, Store: store, RiskLog: riskLog, Owner: owner, Logger: logger}
}

// SendPayment handles the logic for sending a new payment. The call blocks
// until the payment resolves or the broadcast deadline fires.
func (h *PaymentsHandler) SendPayment(w http.ResponseWriter, r *http.Request) {
	var np api.NewPayment
	if err := json.NewDecoder(r.Body).Decode(&np); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	domainPayment, err := h.Pipeline.Send(r.Context(), payments.SendRequest{
		Recipient:      np.Recipient,
		Amount:         np.Amount,
		Memo:           np.Memo,
		Link:           np.Link,
		IdempotencyKey: np.IdempotencyKey,
		Confirmed:      np.Confirmed,
	})
	if err != nil {
		h.writeSendError(w, err)
		return
	}

	apiPayment := mapping.ToApiPayment(domainPayment)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(apiPayment); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

func (h *PaymentsHandler) writeSendError(w http.ResponseWriter, err error) {
	var declined *payments.ConfirmationError
	if errors.As(err, &declined) {
		// The 409 carries the challenge; the caller confirms with the user
		// and resends with confirmed set.
		h.writeChallenge(w, &declined.Challenge)
		return
	}
	if errors.Is(err, payments.ErrConfirmationDeclined) {
		h.writeError(w, http.StatusConflict, "confirmation_declined", "Payment declined at confirmation")
		return
	}
	switch faults.KindOf(err) {
	case faults.Validation:
		h.writeError(w, http.StatusBadRequest, "validation", err.Error())
	case faults.RiskService:
		h.writeError(w, http.StatusServiceUnavailable, "risk_service", "Risk evaluation unavailable")
	case faults.Signing, faults.Broadcast:
		h.writeError(w, http.StatusBadGateway, "wallet", "Wallet operation failed")
	default:
		h.Logger.Error("payment send failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal", "Failed to send payment")
	}
}

func (h *PaymentsHandler) writeChallenge(w http.ResponseWriter, c *payments.Confirmation) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusConflict)
	_ = json.NewEncoder(w).Encode(api.Error{
		Kind:    "confirmation_declined",
		Message: "Payment requires confirmation",
		Confirmation: &api.Confirmation{
			Recipient: c.Recipient,
			Amount:    c.Amount,
			Score:     c.Score,
			Reason:    c.Reason,
		},
	})
}

func (h *PaymentsHandler) writeError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.Error{Kind: kind, Message: msg})
}

// GetPaymentById handles the logic for retrieving a payment by its ID.
func (h *PaymentsHandler) GetPaymentById(w http.ResponseWriter, r *http.Request, paymentId string) {
	domainPayment, err := h.Store.GetPayment(r.Context(), paymentId)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Payment not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to retrieve payment: %v", err), http.StatusInternalServerError)
		}
		return
	}

	apiPayment := mapping.ToApiPayment(domainPayment)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiPayment); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// ListRiskLog handles the logic for retrieving the owner's risk audit log.
func (h *PaymentsHandler) ListRiskLog(w http.ResponseWriter, r *http.Request) {
	domainEntries, err := h.RiskLog.ListRiskLog(r.Context(), h.Owner)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve risk log: %v", err), http.StatusInternalServerError)
		return
	}

	apiEntries := make([]*api.RiskLogEntry, len(domainEntries))
	for i, entry := range domainEntries {
		apiEntries[i] = mapping.ToApiRiskLogEntry(&entry)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(apiEntries); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
