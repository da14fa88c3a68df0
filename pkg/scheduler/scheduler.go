package scheduler

import (
	"context"
	"time"

	"github.com/sendlink/sendlink/pkg/models"
)

// ProbeScheduler defines the interface for enqueueing a stale payment so its
// broadcast outcome can be probed asynchronously.
type ProbeScheduler interface {
	// SchedulePaymentProbe enqueues the payment for an out-of-band
	// broadcast-outcome check after the given delay.
	SchedulePaymentProbe(ctx context.Context, p *models.Payment, delay time.Duration) error
}
