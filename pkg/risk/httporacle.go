package risk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sendlink/sendlink/pkg/faults"
)

// HTTPOracle calls a remote risk-scoring service over HTTP.
type HTTPOracle struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPOracle creates an oracle client for the given base URL.
func NewHTTPOracle(baseURL string) *HTTPOracle {
	return &HTTPOracle{BaseURL: baseURL, Client: http.DefaultClient}
}

// Make sure we conform to the interface.
var _ Oracle = (*HTTPOracle)(nil)

// Evaluate posts the request to the oracle's evaluate endpoint. Any
// transport or server failure surfaces as a risk-service fault; the gate
// decides how to degrade.
func (o *HTTPOracle) Evaluate(ctx context.Context, req EvalRequest) (Evaluation, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Evaluation{}, fmt.Errorf("failed to marshal risk request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/v1/evaluate", bytes.NewReader(body))
	if err != nil {
		return Evaluation{}, fmt.Errorf("failed to build risk request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(httpReq)
	if err != nil {
		return Evaluation{}, faults.New(faults.RiskService, "risk.evaluate", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Evaluation{}, faults.Newf(faults.RiskService, "risk.evaluate", "oracle returned status %d", resp.StatusCode)
	}

	var eval Evaluation
	if err := json.NewDecoder(resp.Body).Decode(&eval); err != nil {
		return Evaluation{}, faults.New(faults.RiskService, "risk.evaluate", err)
	}
	if eval.Score < 0 || eval.Score > 100 {
		return Evaluation{}, faults.Newf(faults.RiskService, "risk.evaluate", "score %d out of range", eval.Score)
	}
	return eval, nil
}
