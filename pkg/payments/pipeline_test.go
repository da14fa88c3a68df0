package payments

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendlink/sendlink/pkg/faults"
	"github.com/sendlink/sendlink/pkg/models"
	"github.com/sendlink/sendlink/pkg/profile"
	"github.com/sendlink/sendlink/pkg/risk"
	"github.com/sendlink/sendlink/pkg/storage/pebbledb"
	"github.com/sendlink/sendlink/pkg/wallet"
)

type pipelineFixture struct {
	local   *pebbledb.Store
	oracle  *risk.StaticOracle
	wallet  *wallet.ScriptedWallet
	confirm *recordingConfirmer
}

type recordingConfirmer struct {
	accept bool
	calls  []Confirmation
}

func (c *recordingConfirmer) Confirm(ctx context.Context, conf Confirmation) (bool, error) {
	c.calls = append(c.calls, conf)
	return c.accept, nil
}

func newTestPipeline(t *testing.T, opts Options) (*Pipeline, *pipelineFixture) {
	t.Helper()
	local, err := pebbledb.Open(filepath.Join(t.TempDir(), "db"), "alice")
	require.NoError(t, err)
	t.Cleanup(func() { local.Close() })

	f := &pipelineFixture{
		local:   local,
		oracle:  &risk.StaticOracle{Eval: risk.Evaluation{Score: 10, Reason: "low"}},
		wallet:  &wallet.ScriptedWallet{Address: "AliceWalletAddr", Signature: "sig123"},
		confirm: &recordingConfirmer{accept: true},
	}
	gate := risk.NewGate(f.oracle, local, nil, time.Second, nil)
	src := &profile.Static{P: profile.Policy{RiskThreshold: 70, RiskAlertsEnabled: true}}
	p := New("alice", local, gate, src, f.wallet, f.confirm, opts)
	return p, f
}

func TestSendValidation(t *testing.T) {
	p, _ := newTestPipeline(t, Options{})

	_, err := p.Send(context.Background(), SendRequest{Recipient: "", Amount: 100})
	assert.True(t, faults.Is(err, faults.Validation))

	_, err = p.Send(context.Background(), SendRequest{Recipient: "bob", Amount: 0})
	assert.True(t, faults.Is(err, faults.Validation))
}

func TestSendLowRisk(t *testing.T) {
	ctx := context.Background()
	p, f := newTestPipeline(t, Options{})

	payment, err := p.Send(ctx, SendRequest{Recipient: "bob", Amount: 500, Memo: "lunch"})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentCompleted, payment.Status)
	assert.Equal(t, "sig123", payment.Signature)
	assert.Empty(t, f.confirm.calls)

	// No over-threshold evaluation, no audit entry.
	entries, err := f.local.ListRiskLog(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, entries)

	// The linked message exists, carries the payment id, and is queued for sync.
	require.NotEmpty(t, payment.MessageId)
	msg, err := f.local.GetMessage(ctx, payment.MessageId)
	require.NoError(t, err)
	assert.Equal(t, models.KindPayment, msg.Kind)
	assert.Equal(t, payment.Id, msg.PaymentId)
	assert.Equal(t, "lunch", msg.Body)
	assert.Equal(t, models.SyncPending, msg.SyncStatus)
}

func TestSendHighRisk(t *testing.T) {
	ctx := context.Background()

	t.Run("declined send logs exactly one entry and creates nothing", func(t *testing.T) {
		p, f := newTestPipeline(t, Options{})
		f.oracle.Eval = risk.Evaluation{Score: 85, Reason: "new counterparty"}
		f.confirm.accept = false

		_, err := p.Send(ctx, SendRequest{Recipient: "bob", Amount: 9000})
		assert.ErrorIs(t, err, ErrConfirmationDeclined)

		// The error carries the challenge so a surface can replay it.
		var declined *ConfirmationError
		require.ErrorAs(t, err, &declined)
		assert.Equal(t, 85, declined.Challenge.Score)
		assert.Equal(t, "bob", declined.Challenge.Recipient)

		entries, err := f.local.ListRiskLog(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 85, entries[0].Score)

		payments, err := f.local.ListPendingPayments(ctx)
		require.NoError(t, err)
		assert.Empty(t, payments)
		threads, err := f.local.ListThreads(ctx)
		require.NoError(t, err)
		assert.Empty(t, threads)
		assert.Zero(t, f.wallet.SignCalls)
	})

	t.Run("confirmed send logs the entry and proceeds", func(t *testing.T) {
		p, f := newTestPipeline(t, Options{})
		f.oracle.Eval = risk.Evaluation{Score: 85, Reason: "new counterparty"}

		payment, err := p.Send(ctx, SendRequest{Recipient: "bob", Amount: 9000})
		require.NoError(t, err)
		assert.Equal(t, models.PaymentCompleted, payment.Status)
		assert.Equal(t, 85, payment.RiskScore)

		entries, err := f.local.ListRiskLog(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, entries, 1)
		require.Len(t, f.confirm.calls, 1)
		assert.Equal(t, 85, f.confirm.calls[0].Score)
	})

	t.Run("a pre-confirmed request skips the confirmation capability", func(t *testing.T) {
		p, f := newTestPipeline(t, Options{})
		f.oracle.Eval = risk.Evaluation{Score: 85, Reason: "new counterparty"}
		f.confirm.accept = false

		payment, err := p.Send(ctx, SendRequest{Recipient: "bob", Amount: 9000, Confirmed: true})
		require.NoError(t, err)
		assert.Equal(t, models.PaymentCompleted, payment.Status)
		assert.Empty(t, f.confirm.calls)

		entries, err := f.local.ListRiskLog(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("disabled alerts log but skip confirmation", func(t *testing.T) {
		local, err := pebbledb.Open(filepath.Join(t.TempDir(), "db"), "alice")
		require.NoError(t, err)
		t.Cleanup(func() { local.Close() })

		oracle := &risk.StaticOracle{Eval: risk.Evaluation{Score: 85, Reason: "spike"}}
		confirm := &recordingConfirmer{accept: false}
		gate := risk.NewGate(oracle, local, nil, time.Second, nil)
		src := &profile.Static{P: profile.Policy{RiskThreshold: 70, RiskAlertsEnabled: false}}
		p := New("alice", local, gate, src, &wallet.ScriptedWallet{Signature: "sig"}, confirm, Options{})

		payment, err := p.Send(ctx, SendRequest{Recipient: "bob", Amount: 9000})
		require.NoError(t, err)
		assert.Equal(t, models.PaymentCompleted, payment.Status)
		assert.Empty(t, confirm.calls)

		entries, err := local.ListRiskLog(ctx, "alice")
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestSendOracleOutage(t *testing.T) {
	ctx := context.Background()

	t.Run("blocking policy rejects the send", func(t *testing.T) {
		p, f := newTestPipeline(t, Options{BlockOnOutage: true})
		f.oracle.Err = errors.New("oracle down")

		_, err := p.Send(ctx, SendRequest{Recipient: "bob", Amount: 100})
		assert.Error(t, err)
		assert.Zero(t, f.wallet.SignCalls)
	})

	t.Run("open policy proceeds through forced confirmation", func(t *testing.T) {
		p, f := newTestPipeline(t, Options{})
		f.oracle.Err = errors.New("oracle down")

		payment, err := p.Send(ctx, SendRequest{Recipient: "bob", Amount: 100})
		require.NoError(t, err)
		assert.Equal(t, models.PaymentCompleted, payment.Status)
		require.Len(t, f.confirm.calls, 1)
		assert.Equal(t, 0, f.confirm.calls[0].Score)
		assert.Equal(t, "risk oracle unavailable", f.confirm.calls[0].Reason)
	})
}

func TestSendBroadcastFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("a definite rejection marks the payment failed with no message", func(t *testing.T) {
		p, f := newTestPipeline(t, Options{})
		f.wallet.BroadcastErr = errors.New("blockhash expired")

		_, err := p.Send(ctx, SendRequest{Recipient: "bob", Amount: 100, IdempotencyKey: "p1"})
		assert.True(t, faults.Is(err, faults.Broadcast))

		payment, err := f.local.GetPayment(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentFailed, payment.Status)
		assert.Empty(t, payment.MessageId)
	})

	t.Run("a signing failure marks the payment failed", func(t *testing.T) {
		p, f := newTestPipeline(t, Options{})
		f.wallet.SignErr = errors.New("wallet locked")

		_, err := p.Send(ctx, SendRequest{Recipient: "bob", Amount: 100, IdempotencyKey: "p1"})
		assert.True(t, faults.Is(err, faults.Signing))

		payment, err := f.local.GetPayment(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentFailed, payment.Status)
	})

	t.Run("a timeout leaves the payment pending for the sweep", func(t *testing.T) {
		p, f := newTestPipeline(t, Options{BroadcastTimeout: time.Nanosecond})

		_, err := p.Send(ctx, SendRequest{Recipient: "bob", Amount: 100, IdempotencyKey: "p1"})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.True(t, faults.Is(err, faults.Broadcast))

		payment, err := f.local.GetPayment(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentPending, payment.Status)
		assert.Empty(t, payment.MessageId)
	})
}

func TestSendIdempotencyKey(t *testing.T) {
	p, f := newTestPipeline(t, Options{})

	payment, err := p.Send(context.Background(), SendRequest{Recipient: "bob", Amount: 100, IdempotencyKey: "client-key-1"})
	require.NoError(t, err)
	assert.Equal(t, "client-key-1", payment.Id)

	got, err := f.local.GetPayment(context.Background(), "client-key-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, got.Status)
}

func TestSendPaymentLink(t *testing.T) {
	p, f := newTestPipeline(t, Options{})

	payment, err := p.Send(context.Background(), SendRequest{Recipient: "bob", Amount: 100, Link: true})
	require.NoError(t, err)

	msg, err := f.local.GetMessage(context.Background(), payment.MessageId)
	require.NoError(t, err)
	assert.Equal(t, models.KindPaymentLink, msg.Kind)
}
