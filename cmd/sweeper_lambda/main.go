package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"

	"github.com/sendlink/sendlink/pkg/scheduler"
	"github.com/sendlink/sendlink/pkg/seal"
	"github.com/sendlink/sendlink/pkg/storage"
	dydbstore "github.com/sendlink/sendlink/pkg/storage/dynamodb"
)

var store storage.RemoteSweepStore
var probeScheduler scheduler.ProbeScheduler

const stalePaymentThreshold = 20 * time.Minute

func init() {
	// Load environment variables for local testing.
	godotenv.Load()

	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := dynamodb.NewFromConfig(cfg)
	sqsClient := sqs.NewFromConfig(cfg)

	// Initialize dependencies.
	sqsQueueURL := os.Getenv("SQS_QUEUE_URL")
	if sqsQueueURL == "" {
		log.Fatal("SQS_QUEUE_URL environment variable not set")
	}
	probeScheduler = scheduler.NewSQSScheduler(sqsClient, sqsQueueURL)

	messagesTable := os.Getenv("DYNAMODB_MESSAGES_TABLE_NAME")
	paymentsTable := os.Getenv("DYNAMODB_PAYMENTS_TABLE_NAME")
	threadsTable := os.Getenv("DYNAMODB_THREADS_TABLE_NAME")
	riskLogTable := os.Getenv("DYNAMODB_RISKLOG_TABLE_NAME")

	// The sweeper never reads message bodies, so no seal key is needed here.
	store = dydbstore.New(dbClient, seal.Noop{}, messagesTable, paymentsTable, threadsTable, riskLogTable)
}

// HandleRequest is triggered by an EventBridge Schedule.
func HandleRequest(ctx context.Context) error {
	log.Println("Starting sweep for stale pending payments...")

	stale, err := store.StalePayments(ctx, stalePaymentThreshold)
	if err != nil {
		log.Printf("ERROR: failed to list stale payments: %v", err)
		return err
	}

	if len(stale) == 0 {
		log.Println("No stale payments found.")
		return nil
	}

	log.Printf("Found %d stale payments. Enqueueing outcome probes...", len(stale))

	for _, p := range stale {
		if err := probeScheduler.SchedulePaymentProbe(ctx, &p, 0); err != nil {
			log.Printf("ERROR: failed to enqueue probe for payment %s: %v", p.Id, err)
			// Continue to the next payment, don't let one failure stop the whole batch.
			continue
		}
		log.Printf("Successfully enqueued probe for payment %s", p.Id)
	}

	log.Println("Sweep finished.")
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
