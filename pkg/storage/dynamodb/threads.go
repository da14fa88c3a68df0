package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/sendlink/sendlink/pkg/faults"
	"github.com/sendlink/sendlink/pkg/models"
)

// remoteThread is the stored shape of a thread: one item per participant so
// each owner can list their threads with a single partition query.
type remoteThread struct {
	OwnerId string `dynamodbav:"owner_id"`
	models.Thread
}

// PutThread writes one thread item per participant.
func (s *Store) PutThread(ctx context.Context, t *models.Thread) error {
	for _, owner := range t.Participants {
		item, err := attributevalue.MarshalMap(&remoteThread{OwnerId: owner, Thread: *t})
		if err != nil {
			return fmt.Errorf("failed to marshal thread %s: %w", t.Id, err)
		}
		_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.ThreadsTableName),
			Item:      item,
		})
		if err != nil {
			return faults.New(faults.Network, "dynamodb.put_thread", err)
		}
	}
	return nil
}

// ListThreads returns every thread the owner participates in.
func (s *Store) ListThreads(ctx context.Context, owner string) ([]models.Thread, error) {
	out, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.ThreadsTableName),
		KeyConditionExpression: aws.String("owner_id = :owner"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil {
		return nil, faults.New(faults.Network, "dynamodb.list_threads", err)
	}

	var rows []remoteThread
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal threads for %s: %w", owner, err)
	}
	threads := make([]models.Thread, len(rows))
	for i, r := range rows {
		threads[i] = r.Thread
	}
	return threads, nil
}
