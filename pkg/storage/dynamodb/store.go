// Package dynamodb implements the remote store on AWS DynamoDB.
//
// Tables:
//
//	messages  pk id, GSI thread_seq (pk thread_id, sk seq)
//	payments  pk id
//	threads   pk owner_id, sk id (one item per participant)
//	risk_log  pk id
package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/sendlink/sendlink/pkg/seal"
	"github.com/sendlink/sendlink/pkg/storage"
)

// DynamoDBAPI is the subset of the DynamoDB client the store uses, extracted
// for mocking.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Store implements the remote store interfaces against DynamoDB. Message
// bodies are sealed on the way out and opened on the way in; the remote store
// only ever holds ciphertext.
type Store struct {
	Client            DynamoDBAPI
	Sealer            seal.Sealer
	MessagesTableName string
	PaymentsTableName string
	ThreadsTableName  string
	RiskLogTableName  string
}

// New creates a new Store.
func New(client DynamoDBAPI, sealer seal.Sealer, messagesTable, paymentsTable, threadsTable, riskLogTable string) *Store {
	return &Store{
		Client:            client,
		Sealer:            sealer,
		MessagesTableName: messagesTable,
		PaymentsTableName: paymentsTable,
		ThreadsTableName:  threadsTable,
		RiskLogTableName:  riskLogTable,
	}
}

// Make sure we conform to the interfaces.
var (
	_ storage.RemoteStore      = (*Store)(nil)
	_ storage.RemoteSweepStore = (*Store)(nil)
)

// threadSeqIndex is the GSI used by the changes-since-cursor query.
const threadSeqIndex = "thread_seq"
