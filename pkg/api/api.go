// Package api holds the transport types of the local HTTP surface consumed
// by the UI layer.
package api

import "time"

// Thread is the API model for a conversation.
type Thread struct {
	Id            string    `json:"id"`
	Participants  []string  `json:"participants"`
	LastMessageId string    `json:"last_message_id,omitempty"`
	Unread        int       `json:"unread"`
	Archived      bool      `json:"archived"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Message is the API model for a message.
type Message struct {
	Id         string    `json:"id"`
	ThreadId   string    `json:"thread_id"`
	Sender     string    `json:"sender"`
	Recipient  string    `json:"recipient"`
	Kind       string    `json:"kind"`
	Body       string    `json:"body"`
	PaymentId  string    `json:"payment_id,omitempty"`
	ReadStatus string    `json:"read_status"`
	SyncStatus string    `json:"sync_status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewMessage is the request body for sending a message. Id is the caller's
// idempotency key; one is generated when omitted.
type NewMessage struct {
	Id        string `json:"id,omitempty"`
	Recipient string `json:"recipient"`
	Kind      string `json:"kind"`
	Body      string `json:"body"`
}

// Payment is the API model for a payment.
type Payment struct {
	Id         string    `json:"id"`
	MessageId  string    `json:"message_id,omitempty"`
	Sender     string    `json:"sender"`
	Recipient  string    `json:"recipient"`
	Amount     int64     `json:"amount"`
	Status     string    `json:"status"`
	RiskScore  int       `json:"risk_score"`
	RiskReason string    `json:"risk_reason,omitempty"`
	Signature  string    `json:"signature,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewPayment is the request body for sending a payment. Confirmed replays a
// send after the user accepted the risk challenge from an earlier attempt.
type NewPayment struct {
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	Recipient      string `json:"recipient"`
	Amount         int64  `json:"amount"`
	Memo           string `json:"memo,omitempty"`
	Link           bool   `json:"link,omitempty"`
	Confirmed      bool   `json:"confirmed,omitempty"`
}

// Confirmation is the risk challenge a high-risk send must answer. The caller
// shows it to the user and resends with Confirmed set.
type Confirmation struct {
	Recipient string `json:"recipient"`
	Amount    int64  `json:"amount"`
	Score     int    `json:"score"`
	Reason    string `json:"reason"`
}

// RiskLogEntry is the API model for a risk audit entry.
type RiskLogEntry struct {
	Id          string    `json:"id"`
	Destination string    `json:"destination"`
	Amount      int64     `json:"amount"`
	Score       int       `json:"score"`
	Reason      string    `json:"reason"`
	CreatedAt   time.Time `json:"created_at"`
}

// Error is the stable error envelope. Kind never carries a raw transport
// error. Confirmation is set when the error is a risk challenge.
type Error struct {
	Kind         string        `json:"kind"`
	Message      string        `json:"message"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
}
