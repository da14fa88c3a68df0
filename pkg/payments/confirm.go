package payments

import "context"

// Confirmation carries the details shown to the user before a high-risk send.
type Confirmation struct {
	Recipient string `json:"recipient"`
	Amount    int64  `json:"amount"`
	Score     int    `json:"score"`
	Reason    string `json:"reason"`
}

// Confirmer is the confirmation capability supplied by the UI layer. It
// returns true to proceed, false to cancel.
type Confirmer interface {
	Confirm(ctx context.Context, c Confirmation) (bool, error)
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(ctx context.Context, c Confirmation) (bool, error)

// Confirm calls f.
func (f ConfirmerFunc) Confirm(ctx context.Context, c Confirmation) (bool, error) {
	return f(ctx, c)
}

// AutoConfirmer answers every confirmation the same way. Used when no UI is
// attached.
type AutoConfirmer struct {
	Accept bool
}

// Confirm returns the configured answer.
func (a AutoConfirmer) Confirm(ctx context.Context, c Confirmation) (bool, error) {
	return a.Accept, nil
}
