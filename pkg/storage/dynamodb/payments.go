package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/sendlink/sendlink/pkg/faults"
	"github.com/sendlink/sendlink/pkg/models"
)

// remotePayment adds a numeric creation timestamp. RFC3339Nano strings with
// and without fractional seconds do not sort chronologically, so the stale
// scan compares on the epoch attribute instead.
type remotePayment struct {
	models.Payment
	CreatedAtEpoch int64 `dynamodbav:"created_at_epoch"`
}

// PutPayment writes a payment record to the remote store.
func (s *Store) PutPayment(ctx context.Context, p *models.Payment) error {
	item, err := attributevalue.MarshalMap(&remotePayment{Payment: *p, CreatedAtEpoch: p.CreatedAt.UnixNano()})
	if err != nil {
		return fmt.Errorf("failed to marshal payment %s: %w", p.Id, err)
	}
	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.PaymentsTableName),
		Item:      item,
	})
	if err != nil {
		return faults.New(faults.Network, "dynamodb.put_payment", err)
	}
	return nil
}

// StalePayments returns remotely stored payments stuck in the pending status
// for longer than olderThan.
func (s *Store) StalePayments(ctx context.Context, olderThan time.Duration) ([]models.Payment, error) {
	cutoff := time.Now().UTC().Add(-olderThan).UnixNano()

	out, err := s.Client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.PaymentsTableName),
		FilterExpression: aws.String("#status = :pending AND created_at_epoch < :cutoff"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: string(models.PaymentPending)},
			":cutoff":  &types.AttributeValueMemberN{Value: strconv.FormatInt(cutoff, 10)},
		},
	})
	if err != nil {
		return nil, faults.New(faults.Network, "dynamodb.stale_payments", err)
	}

	var payments []models.Payment
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &payments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stale payments: %w", err)
	}
	return payments, nil
}

// ResolvePayment records the out-of-band broadcast outcome for a stuck
// payment. The update is conditional on the payment still being pending, so
// a device that resolved it first wins and the sweep stays idempotent.
func (s *Store) ResolvePayment(ctx context.Context, id string, status models.PaymentStatus, signature string) error {
	if !models.PaymentPending.CanTransition(status) {
		return fmt.Errorf("cannot resolve payment %s to %s", id, status)
	}

	_, err := s.Client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.PaymentsTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:    aws.String("SET #status = :status, signature = :sig, updated_at = :now"),
		ConditionExpression: aws.String("#status = :pending"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":  &types.AttributeValueMemberS{Value: string(status)},
			":sig":     &types.AttributeValueMemberS{Value: signature},
			":now":     &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
			":pending": &types.AttributeValueMemberS{Value: string(models.PaymentPending)},
		},
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			// Already resolved elsewhere.
			return nil
		}
		return faults.New(faults.Network, "dynamodb.resolve_payment", err)
	}
	return nil
}
