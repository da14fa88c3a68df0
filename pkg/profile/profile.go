// Package profile supplies the per-user risk policy from the external
// profile collaborator.
package profile

import "context"

// Policy is the caller's risk posture.
type Policy struct {
	RiskThreshold     int  `json:"risk_threshold"`
	RiskAlertsEnabled bool `json:"risk_alerts_enabled"`
}

// DefaultPolicy is applied when no profile is available at all.
func DefaultPolicy() Policy {
	return Policy{RiskThreshold: 70, RiskAlertsEnabled: true}
}

// Source defines the interface to the profile collaborator.
type Source interface {
	Policy(ctx context.Context, userID string) (Policy, error)
}

// Static always returns the same policy.
type Static struct {
	P Policy
}

// Make sure we conform to the interface.
var _ Source = (*Static)(nil)

// Policy returns the fixed policy.
func (s *Static) Policy(ctx context.Context, userID string) (Policy, error) {
	return s.P, nil
}
