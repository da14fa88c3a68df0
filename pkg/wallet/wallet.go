// Package wallet defines the signing capability the payment pipeline
// depends on. Key custody and signing internals live outside this core.
package wallet

import "context"

// BroadcastResult is the outcome of submitting a signed payload.
type BroadcastResult struct {
	Signature string `json:"signature"`
	Confirmed bool   `json:"confirmed"`
}

// Wallet defines the interface to the external signing capability.
type Wallet interface {
	// PublicKey returns the wallet's address.
	PublicKey() string

	// Sign signs an opaque payload.
	Sign(ctx context.Context, payload []byte) ([]byte, error)

	// Broadcast submits a signed payload to the network.
	Broadcast(ctx context.Context, signed []byte) (BroadcastResult, error)

	// SignatureStatus reports whether a previously broadcast transaction
	// has been confirmed. Used by the stale-payment sweep to resolve
	// payments whose broadcast outcome was never observed.
	SignatureStatus(ctx context.Context, signature string) (bool, error)
}
