package risk

import "context"

// EvalRequest describes the payment being scored.
type EvalRequest struct {
	Destination string   `json:"destination"`
	Amount      int64    `json:"amount"`
	ProgramIds  []string `json:"program_ids,omitempty"`
}

// Evaluation is the oracle's verdict.
type Evaluation struct {
	Score  int    `json:"score"` // 0..100
	Reason string `json:"reason"`
}

// Oracle defines the interface to the external risk-scoring service.
type Oracle interface {
	Evaluate(ctx context.Context, req EvalRequest) (Evaluation, error)
}
