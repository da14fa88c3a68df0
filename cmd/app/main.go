package main

import (
	"context"
	"encoding/hex"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"

	"github.com/sendlink/sendlink/pkg/handlers"
	messageshandler "github.com/sendlink/sendlink/pkg/handlers/messages"
	paymentshandler "github.com/sendlink/sendlink/pkg/handlers/payments"
	threadshandler "github.com/sendlink/sendlink/pkg/handlers/threads"
	"github.com/sendlink/sendlink/pkg/notify"
	"github.com/sendlink/sendlink/pkg/payments"
	"github.com/sendlink/sendlink/pkg/profile"
	"github.com/sendlink/sendlink/pkg/risk"
	"github.com/sendlink/sendlink/pkg/seal"
	dydbstore "github.com/sendlink/sendlink/pkg/storage/dynamodb"
	"github.com/sendlink/sendlink/pkg/storage/pebbledb"
	"github.com/sendlink/sendlink/pkg/syncer"
	"github.com/sendlink/sendlink/pkg/wallet"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	owner := os.Getenv("SENDLINK_USER_ID")
	if owner == "" {
		log.Fatal("SENDLINK_USER_ID environment variable not set")
	}

	dbPath := os.Getenv("LOCAL_DB_PATH")
	if dbPath == "" {
		dbPath = "sendlink.db"
	}
	local, err := pebbledb.Open(dbPath, owner)
	if err != nil {
		log.Fatalf("failed to open local store: %v", err)
	}
	defer local.Close()

	// AWS Session
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}
	dbClient := awsdynamodb.NewFromConfig(cfg)

	messagesTable := os.Getenv("DYNAMODB_MESSAGES_TABLE_NAME")
	paymentsTable := os.Getenv("DYNAMODB_PAYMENTS_TABLE_NAME")
	threadsTable := os.Getenv("DYNAMODB_THREADS_TABLE_NAME")
	riskLogTable := os.Getenv("DYNAMODB_RISKLOG_TABLE_NAME")
	if messagesTable == "" || paymentsTable == "" || threadsTable == "" || riskLogTable == "" {
		log.Fatal("One or more DynamoDB table name environment variables are not set")
	}

	sealer, err := newSealer(os.Getenv("SEAL_KEY_HEX"))
	if err != nil {
		log.Fatalf("failed to initialize sealer: %v", err)
	}

	remote := dydbstore.New(dbClient, sealer, messagesTable, paymentsTable, threadsTable, riskLogTable)

	hub := notify.NewHub()

	// Sync engine.
	engine := syncer.New(local, remote, owner, syncer.Options{
		Notifier: hub,
		Logger:   logger,
	})

	// Risk gate and payment pipeline.
	oracleURL := os.Getenv("RISK_ORACLE_URL")
	if oracleURL == "" {
		log.Fatal("RISK_ORACLE_URL environment variable not set")
	}
	gate := risk.NewGate(risk.NewHTTPOracle(oracleURL), local, remote, 0, logger)

	policies := profile.NewCached(&profile.Static{P: policyFromEnv()})

	walletURL := os.Getenv("WALLET_URL")
	if walletURL == "" {
		log.Fatal("WALLET_URL environment variable not set")
	}
	signer := wallet.NewHTTPWallet(walletURL, os.Getenv("WALLET_ADDRESS"))

	// Unattended operation fails closed: a high-risk send surfaces a 409
	// challenge, and the client resends with confirmed set.
	pipeline := payments.New(owner, local, gate, policies, signer, payments.AutoConfirmer{Accept: false}, payments.Options{
		BlockOnOutage: os.Getenv("RISK_BLOCK_ON_OUTAGE") == "true",
		Notifier:      hub,
		Kicker:        engine,
		Logger:        logger,
	})

	sweeper := payments.NewSweeper(local, signer, envDuration("PAYMENT_STALE_TTL", 10*time.Minute), envDuration("PAYMENT_SWEEP_INTERVAL", time.Minute), hub, logger)

	// Handlers and router.
	mh := messageshandler.NewMessagesHandler(local, owner, engine, logger)
	ph := paymentshandler.NewPaymentsHandler(pipeline, local, local, owner, logger)
	th := threadshandler.NewThreadsHandler(local, local)
	router := handlers.NewRouter(mh, ph, th, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go engine.Run(ctx)
	go sweeper.Run(ctx)

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080" // Default port if not specified
	}

	srv := &http.Server{Addr: ":" + port, Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	logger.Info("starting server", "port", port, "user", owner)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// newSealer builds the at-rest sealer for remote message bodies. An empty key
// disables sealing, which is only acceptable for local development.
func newSealer(keyHex string) (seal.Sealer, error) {
	if keyHex == "" {
		log.Println("SEAL_KEY_HEX not set, remote message bodies will not be sealed")
		return seal.Noop{}, nil
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, err
	}
	return seal.NewAESGCM(key)
}

func policyFromEnv() profile.Policy {
	p := profile.DefaultPolicy()
	if v := os.Getenv("RISK_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.RiskThreshold = n
		}
	}
	if v := os.Getenv("RISK_ALERTS_ENABLED"); v != "" {
		p.RiskAlertsEnabled = v == "true"
	}
	return p
}

func envDuration(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s %q, using default %s", name, v, fallback)
		return fallback
	}
	return d
}
