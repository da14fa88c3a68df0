package dynamodb

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/sendlink/sendlink/pkg/faults"
	"github.com/sendlink/sendlink/pkg/models"
)

// PutMessage writes a message to the remote store. The body is sealed first
// and the remote sequence is assigned here, so pulls on other devices observe
// the write through the changes-since-cursor query.
func (s *Store) PutMessage(ctx context.Context, msg *models.Message) error {
	sealed, err := s.Sealer.Seal([]byte(msg.Body))
	if err != nil {
		return fmt.Errorf("failed to seal message %s: %w", msg.Id, err)
	}

	remote := *msg
	remote.Body = base64.StdEncoding.EncodeToString(sealed)
	remote.Seq = time.Now().UTC().UnixNano()

	item, err := attributevalue.MarshalMap(&remote)
	if err != nil {
		return fmt.Errorf("failed to marshal message %s: %w", msg.Id, err)
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.MessagesTableName),
		Item:      item,
	})
	if err != nil {
		return faults.New(faults.Network, "dynamodb.put_message", err)
	}
	return nil
}

// MessagesSince returns a thread's records with a remote sequence newer than
// cursor, in sequence order, together with the new cursor value.
func (s *Store) MessagesSince(ctx context.Context, threadID string, cursor int64) ([]models.Message, int64, error) {
	out, err := s.Client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.MessagesTableName),
		IndexName:              aws.String(threadSeqIndex),
		KeyConditionExpression: aws.String("thread_id = :tid AND seq > :cursor"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tid":    &types.AttributeValueMemberS{Value: threadID},
			":cursor": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", cursor)},
		},
	})
	if err != nil {
		return nil, cursor, faults.New(faults.Network, "dynamodb.messages_since", err)
	}

	var msgs []models.Message
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &msgs); err != nil {
		return nil, cursor, fmt.Errorf("failed to unmarshal messages for thread %s: %w", threadID, err)
	}

	next := cursor
	for i := range msgs {
		sealed, err := base64.StdEncoding.DecodeString(msgs[i].Body)
		if err != nil {
			return nil, cursor, fmt.Errorf("corrupt sealed body on message %s: %w", msgs[i].Id, err)
		}
		plain, err := s.Sealer.Open(sealed)
		if err != nil {
			return nil, cursor, fmt.Errorf("failed to open message %s: %w", msgs[i].Id, err)
		}
		msgs[i].Body = string(plain)
		if msgs[i].Seq > next {
			next = msgs[i].Seq
		}
	}
	return msgs, next, nil
}
