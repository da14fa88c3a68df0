package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/sendlink/sendlink/pkg/models"
)

// SQSScheduler implements ProbeScheduler on an SQS queue.
type SQSScheduler struct {
	Client   *sqs.Client
	QueueURL string
}

// NewSQSScheduler creates a new SQSScheduler.
func NewSQSScheduler(client *sqs.Client, queueURL string) *SQSScheduler {
	return &SQSScheduler{Client: client, QueueURL: queueURL}
}

// Make sure we conform to the interface.
var _ ProbeScheduler = (*SQSScheduler)(nil)

// SchedulePaymentProbe sends the payment to the probe queue. SQS caps the
// per-message delay at 15 minutes.
func (s *SQSScheduler) SchedulePaymentProbe(ctx context.Context, p *models.Payment, delay time.Duration) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal payment for SQS: %w", err)
	}

	_, err = s.Client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:     aws.String(s.QueueURL),
		MessageBody:  aws.String(string(body)),
		DelaySeconds: int32(delay / time.Second),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}
	return nil
}
