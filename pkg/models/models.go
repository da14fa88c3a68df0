package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageKind defines the payload type of a message.
type MessageKind string

const (
	KindText        MessageKind = "text"
	KindPayment     MessageKind = "payment"
	KindPaymentLink MessageKind = "payment_link"
	KindImage       MessageKind = "image"
)

// RecordKind identifies which local table a sync operation targets.
type RecordKind string

const (
	RecordMessage RecordKind = "message"
	RecordPayment RecordKind = "payment"
)

// Thread represents a conversation between a fixed pair of participants.
// Threads are created on the first message between two participants and are
// never deleted, only archived.
type Thread struct {
	Id            string    `json:"id" dynamodbav:"id"`
	Participants  []string  `json:"participants" dynamodbav:"participants"`
	LastMessageId string    `json:"last_message_id,omitempty" dynamodbav:"last_message_id,omitempty"`
	Unread        int       `json:"unread" dynamodbav:"unread"`
	Archived      bool      `json:"archived" dynamodbav:"archived"`
	CreatedAt     time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// DeriveThreadID returns the deterministic thread id for a participant pair.
// Both devices derive the same id independently, so the first message from
// either side lands in the same thread without coordination.
func DeriveThreadID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(pair, "|"))).String()
}

// Message is the internal domain model for a chat message. Body holds
// plaintext on the device; it is sealed before it leaves for the remote store.
type Message struct {
	Id         string      `json:"id" dynamodbav:"id"`
	ThreadId   string      `json:"thread_id" dynamodbav:"thread_id"`
	Sender     string      `json:"sender" dynamodbav:"sender"`
	Recipient  string      `json:"recipient" dynamodbav:"recipient"`
	Kind       MessageKind `json:"kind" dynamodbav:"kind"`
	Body       string      `json:"body" dynamodbav:"body"`
	PaymentId  string      `json:"payment_id,omitempty" dynamodbav:"payment_id,omitempty"`
	ReadStatus ReadStatus  `json:"read_status" dynamodbav:"read_status"`
	SyncStatus SyncStatus  `json:"sync_status" dynamodbav:"sync_status"`
	Revision   int64       `json:"revision" dynamodbav:"revision"`
	Seq        int64       `json:"seq,omitempty" dynamodbav:"seq,omitempty"`
	CreatedAt  time.Time   `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" dynamodbav:"updated_at"`
}

// ContentEquals reports whether two messages carry the same observable state.
// Revision, Seq, SyncStatus and UpdatedAt are bookkeeping, not content;
// re-applying an upsert that only differs in bookkeeping is a no-op.
func (m *Message) ContentEquals(o *Message) bool {
	return m.Id == o.Id &&
		m.ThreadId == o.ThreadId &&
		m.Sender == o.Sender &&
		m.Recipient == o.Recipient &&
		m.Kind == o.Kind &&
		m.Body == o.Body &&
		m.PaymentId == o.PaymentId &&
		m.ReadStatus == o.ReadStatus
}

// Payment is the internal domain model for a value transfer. A payment is
// created before any signing happens; MessageId stays empty until the linked
// payment message exists, and is never set for failed payments.
type Payment struct {
	Id         string        `json:"id" dynamodbav:"id"`
	MessageId  string        `json:"message_id,omitempty" dynamodbav:"message_id,omitempty"`
	Sender     string        `json:"sender" dynamodbav:"sender"`
	Recipient  string        `json:"recipient" dynamodbav:"recipient"`
	Amount     int64         `json:"amount" dynamodbav:"amount"`
	Status     PaymentStatus `json:"status" dynamodbav:"status"`
	RiskScore  int           `json:"risk_score" dynamodbav:"risk_score"`
	RiskReason string        `json:"risk_reason,omitempty" dynamodbav:"risk_reason,omitempty"`
	Signature  string        `json:"signature,omitempty" dynamodbav:"signature,omitempty"`
	SyncStatus SyncStatus    `json:"sync_status" dynamodbav:"sync_status"`
	Revision   int64         `json:"revision" dynamodbav:"revision"`
	CreatedAt  time.Time     `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" dynamodbav:"updated_at"`
}

// ContentEquals reports whether two payments carry the same observable state.
func (p *Payment) ContentEquals(o *Payment) bool {
	return p.Id == o.Id &&
		p.MessageId == o.MessageId &&
		p.Sender == o.Sender &&
		p.Recipient == o.Recipient &&
		p.Amount == o.Amount &&
		p.Status == o.Status &&
		p.RiskScore == o.RiskScore &&
		p.RiskReason == o.RiskReason &&
		p.Signature == o.Signature
}

// RiskLogEntry is an append-only audit record. Entries are never mutated or
// deleted once written.
type RiskLogEntry struct {
	Id          string    `json:"id" dynamodbav:"id"`
	UserId      string    `json:"user_id" dynamodbav:"user_id"`
	Destination string    `json:"destination" dynamodbav:"destination"`
	Amount      int64     `json:"amount" dynamodbav:"amount"`
	Score       int       `json:"score" dynamodbav:"score"`
	Reason      string    `json:"reason" dynamodbav:"reason"`
	CreatedAt   time.Time `json:"created_at" dynamodbav:"created_at"`
}
