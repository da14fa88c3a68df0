package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/sendlink/sendlink/pkg/models"
	"github.com/sendlink/sendlink/pkg/payments"
	"github.com/sendlink/sendlink/pkg/seal"
	"github.com/sendlink/sendlink/pkg/storage"
	dydbstore "github.com/sendlink/sendlink/pkg/storage/dynamodb"
	"github.com/sendlink/sendlink/pkg/wallet"
)

var store storage.RemoteSweepStore
var signer wallet.Wallet

func init() {
	// Load environment variables for local testing.
	godotenv.Load()

	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := dynamodb.NewFromConfig(cfg)

	walletURL := os.Getenv("WALLET_URL")
	if walletURL == "" {
		log.Fatal("WALLET_URL environment variable not set")
	}
	signer = wallet.NewHTTPWallet(walletURL, "")

	messagesTable := os.Getenv("DYNAMODB_MESSAGES_TABLE_NAME")
	paymentsTable := os.Getenv("DYNAMODB_PAYMENTS_TABLE_NAME")
	threadsTable := os.Getenv("DYNAMODB_THREADS_TABLE_NAME")
	riskLogTable := os.Getenv("DYNAMODB_RISKLOG_TABLE_NAME")

	// The probe never reads message bodies, so no seal key is needed here.
	store = dydbstore.New(dbClient, seal.Noop{}, messagesTable, paymentsTable, threadsTable, riskLogTable)
}

// HandleRequest processes probe messages enqueued by the sweeper lambda and
// records each payment's broadcast outcome.
func HandleRequest(ctx context.Context, sqsEvent events.SQSEvent) error {
	for _, message := range sqsEvent.Records {
		log.Printf("Processing message %s", message.MessageId)

		var p models.Payment
		if err := json.Unmarshal([]byte(message.Body), &p); err != nil {
			log.Printf("ERROR: failed to unmarshal payment from SQS message %s: %v", message.MessageId, err)
			// Returning an error will cause SQS to retry the message.
			return err
		}

		if err := payments.ResolveProbe(ctx, store, signer, &p); err != nil {
			log.Printf("ERROR: failed to resolve payment %s: %v", p.Id, err)
			return err
		}

		log.Printf("Successfully resolved payment %s", p.Id)
	}

	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
