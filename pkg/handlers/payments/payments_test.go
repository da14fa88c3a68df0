package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendlink/sendlink/pkg/api"
	"github.com/sendlink/sendlink/pkg/faults"
	"github.com/sendlink/sendlink/pkg/models"
	sendpipeline "github.com/sendlink/sendlink/pkg/payments"
	"github.com/sendlink/sendlink/pkg/storage/pebbledb"
)

type stubSender struct {
	payment *models.Payment
	err     error
	lastReq sendpipeline.SendRequest
}

func (s *stubSender) Send(ctx context.Context, req sendpipeline.SendRequest) (*models.Payment, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.payment, nil
}

func newTestHandler(t *testing.T, sender *stubSender) (*PaymentsHandler, *pebbledb.Store) {
	t.Helper()
	store, err := pebbledb.Open(filepath.Join(t.TempDir(), "db"), "alice")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewPaymentsHandler(sender, store, store, "alice", nil), store
}

func postPayment(t *testing.T, h *PaymentsHandler, np api.NewPayment) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(np)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	h.SendPayment(rr, httptest.NewRequest(http.MethodPost, "/v1/payments", bytes.NewReader(body)))
	return rr
}

func TestSendPayment(t *testing.T) {
	t.Run("returns the completed payment", func(t *testing.T) {
		sender := &stubSender{payment: &models.Payment{Id: "p1", Sender: "alice", Recipient: "bob", Amount: 500, Status: models.PaymentCompleted, Signature: "sig"}}
		h, _ := newTestHandler(t, sender)

		rr := postPayment(t, h, api.NewPayment{Recipient: "bob", Amount: 500, Memo: "lunch", Link: true})

		require.Equal(t, http.StatusCreated, rr.Code)
		var got api.Payment
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "p1", got.Id)
		assert.Equal(t, string(models.PaymentCompleted), got.Status)
		assert.Equal(t, "lunch", sender.lastReq.Memo)
		assert.True(t, sender.lastReq.Link)
	})

	t.Run("forwards the confirmed flag", func(t *testing.T) {
		sender := &stubSender{payment: &models.Payment{Id: "p1", Sender: "alice", Recipient: "bob", Amount: 500, Status: models.PaymentCompleted}}
		h, _ := newTestHandler(t, sender)

		rr := postPayment(t, h, api.NewPayment{Recipient: "bob", Amount: 500, Confirmed: true})

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.True(t, sender.lastReq.Confirmed)
	})

	t.Run("an unconfirmed high-risk send returns the challenge", func(t *testing.T) {
		sender := &stubSender{err: &sendpipeline.ConfirmationError{Challenge: sendpipeline.Confirmation{Recipient: "bob", Amount: 9000, Score: 85, Reason: "new counterparty"}}}
		h, _ := newTestHandler(t, sender)

		rr := postPayment(t, h, api.NewPayment{Recipient: "bob", Amount: 9000})

		require.Equal(t, http.StatusConflict, rr.Code)
		var got api.Error
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "confirmation_declined", got.Kind)
		require.NotNil(t, got.Confirmation)
		assert.Equal(t, 85, got.Confirmation.Score)
		assert.Equal(t, "new counterparty", got.Confirmation.Reason)
	})

	t.Run("maps pipeline errors to stable statuses", func(t *testing.T) {
		testCases := []struct {
			name       string
			err        error
			wantStatus int
			wantKind   string
		}{
			{"declined confirmation", sendpipeline.ErrConfirmationDeclined, http.StatusConflict, "confirmation_declined"},
			{"validation", faults.Newf(faults.Validation, "payments.send", "amount must be positive"), http.StatusBadRequest, "validation"},
			{"risk oracle outage", faults.Newf(faults.RiskService, "risk.evaluate", "oracle unreachable"), http.StatusServiceUnavailable, "risk_service"},
			{"signing failure", faults.Newf(faults.Signing, "payments.send", "wallet locked"), http.StatusBadGateway, "wallet"},
			{"broadcast failure", faults.Newf(faults.Broadcast, "payments.send", "not confirmed"), http.StatusBadGateway, "wallet"},
			{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal"},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				h, _ := newTestHandler(t, &stubSender{err: tc.err})
				rr := postPayment(t, h, api.NewPayment{Recipient: "bob", Amount: 500})

				assert.Equal(t, tc.wantStatus, rr.Code)
				var got api.Error
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
				assert.Equal(t, tc.wantKind, got.Kind)
			})
		}
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		h, _ := newTestHandler(t, &stubSender{})
		rr := httptest.NewRecorder()
		h.SendPayment(rr, httptest.NewRequest(http.MethodPost, "/v1/payments", bytes.NewReader([]byte("{not json"))))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetPaymentById(t *testing.T) {
	t.Run("returns a stored payment", func(t *testing.T) {
		h, store := newTestHandler(t, &stubSender{})
		_, err := store.UpsertPayment(context.Background(), &models.Payment{Id: "p1", Sender: "alice", Recipient: "bob", Amount: 100, Status: models.PaymentPending})
		require.NoError(t, err)

		rr := httptest.NewRecorder()
		h.GetPaymentById(rr, httptest.NewRequest(http.MethodGet, "/v1/payments/p1", nil), "p1")

		require.Equal(t, http.StatusOK, rr.Code)
		var got api.Payment
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, "p1", got.Id)
	})

	t.Run("unknown payment", func(t *testing.T) {
		h, _ := newTestHandler(t, &stubSender{})
		rr := httptest.NewRecorder()
		h.GetPaymentById(rr, httptest.NewRequest(http.MethodGet, "/v1/payments/ghost", nil), "ghost")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestListRiskLog(t *testing.T) {
	h, store := newTestHandler(t, &stubSender{})
	require.NoError(t, store.AppendRiskLog(context.Background(), &models.RiskLogEntry{UserId: "alice", Destination: "bob", Amount: 900, Score: 85, Reason: "spike"}))

	rr := httptest.NewRecorder()
	h.ListRiskLog(rr, httptest.NewRequest(http.MethodGet, "/v1/risklog", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var got []api.RiskLogEntry
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 85, got[0].Score)
}
