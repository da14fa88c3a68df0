package models

// SyncStatus tracks the propagation of a local record to the remote store.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSyncing SyncStatus = "syncing"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// syncTransitions is the closed transition table for SyncStatus. The only
// backward edge is failed -> pending (retry); synced -> pending happens only
// through a content-changing upsert, never through SetSyncStatus.
var syncTransitions = map[SyncStatus]map[SyncStatus]bool{
	SyncPending: {SyncSyncing: true},
	SyncSyncing: {SyncSynced: true, SyncFailed: true},
	SyncFailed:  {SyncPending: true, SyncSyncing: true},
	SyncSynced:  {},
}

// CanTransition reports whether moving from s to next is a legal sync edge.
func (s SyncStatus) CanTransition(next SyncStatus) bool {
	return syncTransitions[s][next]
}

// Valid reports whether s is a known sync status.
func (s SyncStatus) Valid() bool {
	switch s {
	case SyncPending, SyncSyncing, SyncSynced, SyncFailed:
		return true
	}
	return false
}

// ReadStatus tracks delivery and visibility of a message to its recipient.
type ReadStatus string

const (
	ReadPending   ReadStatus = "pending"
	ReadSent      ReadStatus = "sent"
	ReadDelivered ReadStatus = "delivered"
	ReadRead      ReadStatus = "read"
	// ReadRetracted is the terminal tombstone. It is the only value allowed
	// to move "backward" in the ordering.
	ReadRetracted ReadStatus = "retracted"
)

// readRank orders the forward progression pending < sent < delivered < read.
var readRank = map[ReadStatus]int{
	ReadPending:   0,
	ReadSent:      1,
	ReadDelivered: 2,
	ReadRead:      3,
}

// Rank returns the position of r in the forward ordering, and false for the
// retracted tombstone which sits outside it.
func (r ReadStatus) Rank() (int, bool) {
	n, ok := readRank[r]
	return n, ok
}

// Valid reports whether r is a known read status.
func (r ReadStatus) Valid() bool {
	if r == ReadRetracted {
		return true
	}
	_, ok := readRank[r]
	return ok
}

// MergeRead combines a locally stored read status with an incoming one. The
// result never regresses: the later value in the ordering wins, and a
// retraction on either side is terminal.
func MergeRead(local, incoming ReadStatus) ReadStatus {
	if local == ReadRetracted || incoming == ReadRetracted {
		return ReadRetracted
	}
	li, _ := local.Rank()
	ii, ok := incoming.Rank()
	if !ok || ii <= li {
		return local
	}
	return incoming
}

// PaymentStatus is the lifecycle of a payment record.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

var paymentTransitions = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending:   {PaymentCompleted: true, PaymentFailed: true},
	PaymentCompleted: {},
	PaymentFailed:    {},
}

// CanTransition reports whether moving from p to next is a legal payment edge.
// Both completed and failed are terminal.
func (p PaymentStatus) CanTransition(next PaymentStatus) bool {
	return paymentTransitions[p][next]
}
