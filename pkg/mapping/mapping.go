// Package mapping converts between the API transport models and the internal
// domain models.
package mapping

import (
	"github.com/google/uuid"

	"github.com/sendlink/sendlink/pkg/api"
	"github.com/sendlink/sendlink/pkg/models"
)

// ToApiThread converts a domain Thread to its API model.
func ToApiThread(t *models.Thread) *api.Thread {
	return &api.Thread{
		Id:            t.Id,
		Participants:  t.Participants,
		LastMessageId: t.LastMessageId,
		Unread:        t.Unread,
		Archived:      t.Archived,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// ToApiMessage converts a domain Message to its API model.
func ToApiMessage(m *models.Message) *api.Message {
	return &api.Message{
		Id:         m.Id,
		ThreadId:   m.ThreadId,
		Sender:     m.Sender,
		Recipient:  m.Recipient,
		Kind:       string(m.Kind),
		Body:       m.Body,
		PaymentId:  m.PaymentId,
		ReadStatus: string(m.ReadStatus),
		SyncStatus: string(m.SyncStatus),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// ToDomainNewMessage builds the domain Message for a send request from the
// device owner. A message id is generated when the caller supplies none.
func ToDomainNewMessage(owner string, nm *api.NewMessage) *models.Message {
	id := nm.Id
	if id == "" {
		id = uuid.New().String()
	}
	return &models.Message{
		Id:         id,
		Sender:     owner,
		Recipient:  nm.Recipient,
		Kind:       models.MessageKind(nm.Kind),
		Body:       nm.Body,
		ReadStatus: models.ReadPending,
		SyncStatus: models.SyncPending,
	}
}

// ToApiPayment converts a domain Payment to its API model.
func ToApiPayment(p *models.Payment) *api.Payment {
	return &api.Payment{
		Id:         p.Id,
		MessageId:  p.MessageId,
		Sender:     p.Sender,
		Recipient:  p.Recipient,
		Amount:     p.Amount,
		Status:     string(p.Status),
		RiskScore:  p.RiskScore,
		RiskReason: p.RiskReason,
		Signature:  p.Signature,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// ToApiRiskLogEntry converts a domain RiskLogEntry to its API model.
func ToApiRiskLogEntry(e *models.RiskLogEntry) *api.RiskLogEntry {
	return &api.RiskLogEntry{
		Id:          e.Id,
		Destination: e.Destination,
		Amount:      e.Amount,
		Score:       e.Score,
		Reason:      e.Reason,
		CreatedAt:   e.CreatedAt,
	}
}
