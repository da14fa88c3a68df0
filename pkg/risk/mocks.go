package risk

import "context"

// StaticOracle returns a fixed evaluation, or a fixed error. Test use only.
type StaticOracle struct {
	Eval  Evaluation
	Err   error
	Calls int
}

// Evaluate returns the configured verdict.
func (o *StaticOracle) Evaluate(ctx context.Context, req EvalRequest) (Evaluation, error) {
	o.Calls++
	if o.Err != nil {
		return Evaluation{}, o.Err
	}
	return o.Eval, nil
}
