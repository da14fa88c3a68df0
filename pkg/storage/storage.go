package storage

// LocalStore is the root interface for the device-local data layer. It is the
// single source of truth for the UI. Components should depend on the more
// granular interfaces (MessageStore, PaymentStore, etc.) where they can.
type LocalStore interface {
	MessageStore
	PaymentStore
	ThreadStore
	RiskLogStore
	CursorStore
}
