// Package payments orchestrates risk evaluation, user confirmation, the
// payment record lifecycle and the signed broadcast. The pipeline is a strict
// sequence - evaluate, log if needed, confirm if needed, proceed - so the
// decision logic is independent of any particular UI.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sendlink/sendlink/pkg/faults"
	"github.com/sendlink/sendlink/pkg/models"
	"github.com/sendlink/sendlink/pkg/notify"
	"github.com/sendlink/sendlink/pkg/profile"
	"github.com/sendlink/sendlink/pkg/risk"
	"github.com/sendlink/sendlink/pkg/storage"
	"github.com/sendlink/sendlink/pkg/telemetry"
	"github.com/sendlink/sendlink/pkg/wallet"
)

// ErrConfirmationDeclined is returned when the user cancels a high-risk send.
var ErrConfirmationDeclined = errors.New("payment cancelled by user")

// ConfirmationError reports a high-risk send that was not confirmed. It
// carries the challenge so a surface without an attached confirmer can replay
// it to the user and retry the send with SendRequest.Confirmed set.
type ConfirmationError struct {
	Challenge Confirmation
}

func (e *ConfirmationError) Error() string { return ErrConfirmationDeclined.Error() }

func (e *ConfirmationError) Is(target error) bool { return target == ErrConfirmationDeclined }

// Kicker nudges the sync engine after a write worth pushing promptly.
type Kicker interface {
	Kick()
}

// Options tune the pipeline.
type Options struct {
	// ProgramIds are forwarded to the risk oracle with every evaluation.
	ProgramIds []string
	// BroadcastTimeout bounds the sign-and-broadcast step. Default 30s.
	BroadcastTimeout time.Duration
	// BlockOnOutage rejects sends while the oracle is down and no cached
	// evaluation exists. When false (the default) such sends proceed with a
	// zero score but still pass through confirmation when alerts are on.
	BlockOnOutage bool
	Notifier      notify.Publisher
	Kicker        Kicker
	Logger        *slog.Logger
}

// Pipeline is the payment-send orchestrator.
type Pipeline struct {
	owner   string
	local   storage.LocalStore
	gate    *risk.Gate
	profile profile.Source
	wallet  wallet.Wallet
	confirm Confirmer

	programIds       []string
	broadcastTimeout time.Duration
	blockOnOutage    bool
	notifier         notify.Publisher
	kicker           Kicker
	logger           *slog.Logger
}

// New creates a pipeline for the given device owner.
func New(owner string, local storage.LocalStore, gate *risk.Gate, src profile.Source, w wallet.Wallet, confirm Confirmer, opts Options) *Pipeline {
	if opts.BroadcastTimeout <= 0 {
		opts.BroadcastTimeout = 30 * time.Second
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NoOpPublisher{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{
		owner:            owner,
		local:            local,
		gate:             gate,
		profile:          src,
		wallet:           w,
		confirm:          confirm,
		programIds:       opts.ProgramIds,
		broadcastTimeout: opts.BroadcastTimeout,
		blockOnOutage:    opts.BlockOnOutage,
		notifier:         opts.Notifier,
		kicker:           opts.Kicker,
		logger:           opts.Logger,
	}
}

// SendRequest describes a payment send.
type SendRequest struct {
	Recipient string
	Amount    int64 // lamports
	Memo      string
	// Link sends a payment-link message instead of a plain payment message.
	Link bool
	// IdempotencyKey, when set, becomes the payment's record id so a
	// retried send cannot double-spend.
	IdempotencyKey string
	// Confirmed marks a send whose risk challenge the user already accepted,
	// so the confirmation step is not asked again.
	Confirmed bool
}

// Send runs the full pipeline and blocks until the payment reaches a
// terminal state or the broadcast outcome becomes unknowable. A payment row
// abandoned mid-send (cancellation, timeout) stays pending and is resolved
// by the stale-payment sweep.
func (p *Pipeline) Send(ctx context.Context, req SendRequest) (*models.Payment, error) {
	if req.Recipient == "" {
		return nil, faults.Newf(faults.Validation, "payments.send", "recipient must not be empty")
	}
	if req.Amount <= 0 {
		return nil, faults.Newf(faults.Validation, "payments.send", "amount must be positive")
	}

	evalReq := risk.EvalRequest{
		Destination: req.Recipient,
		Amount:      req.Amount,
		ProgramIds:  p.programIds,
	}
	eval, cached, err := p.gate.Evaluate(ctx, evalReq)
	forcedConfirm := false
	if err != nil {
		if p.blockOnOutage {
			return nil, err
		}
		// Open policy decision: with no cached verdict we proceed at score
		// zero but keep the user in the loop when alerts are on.
		eval = risk.Evaluation{Score: 0, Reason: "risk oracle unavailable"}
		forcedConfirm = true
		p.logger.Warn("risk oracle unavailable, proceeding per outage policy", "recipient", req.Recipient)
	}
	if cached {
		eval.Reason = "cached: " + eval.Reason
	}

	pol, err := p.profile.Policy(ctx, p.owner)
	if err != nil {
		pol = profile.DefaultPolicy()
	}

	needsConfirm := forcedConfirm && pol.RiskAlertsEnabled
	if eval.Score >= pol.RiskThreshold {
		// The log entry is unconditional: it exists whether the user
		// proceeds or cancels.
		if err := p.gate.Record(ctx, p.owner, evalReq, eval); err != nil {
			return nil, faults.New(faults.Persistence, "payments.send", err)
		}
		needsConfirm = pol.RiskAlertsEnabled
	}
	if needsConfirm && !req.Confirmed {
		challenge := Confirmation{
			Recipient: req.Recipient,
			Amount:    req.Amount,
			Score:     eval.Score,
			Reason:    eval.Reason,
		}
		ok, err := p.confirm.Confirm(ctx, challenge)
		if err != nil {
			return nil, fmt.Errorf("confirmation capability failed: %w", err)
		}
		if !ok {
			return nil, &ConfirmationError{Challenge: challenge}
		}
	}

	// The payment row exists before anything touches the network.
	id := req.IdempotencyKey
	if id == "" {
		id = uuid.New().String()
	}
	payment, err := p.local.UpsertPayment(ctx, &models.Payment{
		Id:         id,
		Sender:     p.owner,
		Recipient:  req.Recipient,
		Amount:     req.Amount,
		Status:     models.PaymentPending,
		RiskScore:  eval.Score,
		RiskReason: eval.Reason,
		SyncStatus: models.SyncPending,
	})
	if err != nil {
		return nil, faults.New(faults.Persistence, "payments.send", err)
	}

	result, err := p.signAndBroadcast(ctx, payment, req)
	if err != nil {
		return p.resolveBroadcastFailure(ctx, payment, err)
	}

	payment.Status = models.PaymentCompleted
	payment.Signature = result.Signature
	payment, err = p.local.UpsertPayment(ctx, payment)
	if err != nil {
		return nil, faults.New(faults.Persistence, "payments.send", err)
	}
	telemetry.Payments.WithLabelValues(string(models.PaymentCompleted)).Inc()

	payment, err = p.linkMessage(ctx, payment, req.Memo, req.Link)
	if err != nil {
		return nil, err
	}

	p.notifier.Publish(ctx, notify.Event{Kind: notify.EventPaymentUpdated, Id: payment.Id})
	if p.kicker != nil {
		p.kicker.Kick()
	}
	return payment, nil
}

// signAndBroadcast runs the wallet steps under the broadcast timeout.
func (p *Pipeline) signAndBroadcast(ctx context.Context, payment *models.Payment, req SendRequest) (wallet.BroadcastResult, error) {
	bctx, cancel := context.WithTimeout(ctx, p.broadcastTimeout)
	defer cancel()

	payload, err := json.Marshal(map[string]any{
		"from":       p.wallet.PublicKey(),
		"to":         payment.Recipient,
		"amount":     payment.Amount,
		"payment_id": payment.Id,
	})
	if err != nil {
		return wallet.BroadcastResult{}, faults.New(faults.Signing, "payments.send", err)
	}

	signed, err := p.wallet.Sign(bctx, payload)
	if err != nil {
		return wallet.BroadcastResult{}, wrapWalletErr(faults.Signing, err)
	}
	result, err := p.wallet.Broadcast(bctx, signed)
	if err != nil {
		return wallet.BroadcastResult{}, wrapWalletErr(faults.Broadcast, err)
	}
	if !result.Confirmed {
		return wallet.BroadcastResult{}, faults.Newf(faults.Broadcast, "payments.send", "broadcast not confirmed")
	}
	return result, nil
}

// resolveBroadcastFailure decides the payment's fate after a failed wallet
// step. Signing failures and definite broadcast rejections mark the payment
// failed; a timeout or cancellation leaves the outcome unknown, so the row
// stays pending for the sweep to resolve.
func (p *Pipeline) resolveBroadcastFailure(ctx context.Context, payment *models.Payment, cause error) (*models.Payment, error) {
	if errors.Is(cause, context.DeadlineExceeded) || errors.Is(cause, context.Canceled) {
		p.logger.Warn("broadcast outcome unknown, leaving payment for the sweep", "payment", payment.Id, "error", cause)
		return nil, faults.New(faults.Broadcast, "payments.send", fmt.Errorf("broadcast outcome unknown, pending sweep: %w", cause))
	}

	payment.Status = models.PaymentFailed
	// A failed payment never links a message.
	payment.MessageId = ""
	if _, err := p.local.UpsertPayment(context.WithoutCancel(ctx), payment); err != nil {
		p.logger.Error("failed to record payment failure", "payment", payment.Id, "error", err)
	}
	telemetry.Payments.WithLabelValues(string(models.PaymentFailed)).Inc()
	return nil, cause
}

// linkMessage creates the payment-type message for a completed payment and
// links it back. The payment is created strictly before the message.
func (p *Pipeline) linkMessage(ctx context.Context, payment *models.Payment, memo string, link bool) (*models.Payment, error) {
	kind := models.KindPayment
	if link {
		kind = models.KindPaymentLink
	}
	msg, err := p.local.UpsertMessage(ctx, &models.Message{
		Id:         uuid.New().String(),
		Sender:     payment.Sender,
		Recipient:  payment.Recipient,
		Kind:       kind,
		Body:       memo,
		PaymentId:  payment.Id,
		ReadStatus: models.ReadPending,
		SyncStatus: models.SyncPending,
	})
	if err != nil {
		return nil, faults.New(faults.Persistence, "payments.send", err)
	}

	payment.MessageId = msg.Id
	payment, err = p.local.UpsertPayment(ctx, payment)
	if err != nil {
		return nil, faults.New(faults.Persistence, "payments.send", err)
	}
	p.notifier.Publish(ctx, notify.Event{Kind: notify.EventMessageUpdated, Id: msg.Id})
	return payment, nil
}

func wrapWalletErr(kind faults.Kind, err error) error {
	if faults.KindOf(err) != "" || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return faults.New(kind, "payments.send", err)
}
