package wallet

import "context"

// ScriptedWallet is a deterministic wallet for tests.
type ScriptedWallet struct {
	Address      string
	Signature    string
	SignErr      error
	BroadcastErr error
	Confirmed    bool
	StatusErr    error

	SignCalls      int
	BroadcastCalls int
	StatusCalls    int
}

// Make sure we conform to the interface.
var _ Wallet = (*ScriptedWallet)(nil)

func (w *ScriptedWallet) PublicKey() string { return w.Address }

func (w *ScriptedWallet) Sign(ctx context.Context, payload []byte) ([]byte, error) {
	w.SignCalls++
	if w.SignErr != nil {
		return nil, w.SignErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return payload, nil
}

func (w *ScriptedWallet) Broadcast(ctx context.Context, signed []byte) (BroadcastResult, error) {
	w.BroadcastCalls++
	if w.BroadcastErr != nil {
		return BroadcastResult{}, w.BroadcastErr
	}
	if err := ctx.Err(); err != nil {
		return BroadcastResult{}, err
	}
	return BroadcastResult{Signature: w.Signature, Confirmed: true}, nil
}

func (w *ScriptedWallet) SignatureStatus(ctx context.Context, signature string) (bool, error) {
	w.StatusCalls++
	if w.StatusErr != nil {
		return false, w.StatusErr
	}
	return w.Confirmed, nil
}
