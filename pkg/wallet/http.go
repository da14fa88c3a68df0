package wallet

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sendlink/sendlink/pkg/faults"
)

// HTTPWallet talks to a wallet daemon over HTTP. The daemon owns the keys;
// this client only ferries payloads.
type HTTPWallet struct {
	BaseURL string
	Address string
	Client  *http.Client
}

// NewHTTPWallet creates a client for the wallet daemon at baseURL. address is
// the daemon's public key, fetched out of band at startup.
func NewHTTPWallet(baseURL, address string) *HTTPWallet {
	return &HTTPWallet{BaseURL: baseURL, Address: address, Client: http.DefaultClient}
}

// Make sure we conform to the interface.
var _ Wallet = (*HTTPWallet)(nil)

// PublicKey returns the wallet's address.
func (w *HTTPWallet) PublicKey() string { return w.Address }

// Sign asks the daemon to sign the payload.
func (w *HTTPWallet) Sign(ctx context.Context, payload []byte) ([]byte, error) {
	var out struct {
		Signed string `json:"signed"`
	}
	if err := w.post(ctx, "/v1/sign", map[string]string{
		"payload": base64.StdEncoding.EncodeToString(payload),
	}, &out); err != nil {
		return nil, faults.New(faults.Signing, "wallet.sign", err)
	}
	signed, err := base64.StdEncoding.DecodeString(out.Signed)
	if err != nil {
		return nil, faults.New(faults.Signing, "wallet.sign", err)
	}
	return signed, nil
}

// Broadcast submits a signed payload.
func (w *HTTPWallet) Broadcast(ctx context.Context, signed []byte) (BroadcastResult, error) {
	var out BroadcastResult
	if err := w.post(ctx, "/v1/broadcast", map[string]string{
		"signed": base64.StdEncoding.EncodeToString(signed),
	}, &out); err != nil {
		return BroadcastResult{}, faults.New(faults.Broadcast, "wallet.broadcast", err)
	}
	return out, nil
}

// SignatureStatus reports confirmation of an earlier broadcast.
func (w *HTTPWallet) SignatureStatus(ctx context.Context, signature string) (bool, error) {
	var out struct {
		Confirmed bool `json:"confirmed"`
	}
	if err := w.post(ctx, "/v1/status", map[string]string{"signature": signature}, &out); err != nil {
		return false, faults.New(faults.Network, "wallet.signature_status", err)
	}
	return out.Confirmed, nil
}

func (w *HTTPWallet) post(ctx context.Context, path string, in any, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wallet daemon returned status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
