package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront-backend/internal/domain"
)

// Authorizer settles a client-supplied payment nonce into a captured
// transaction, and can refund a captured transaction for compensation.
type Authorizer interface {
	Authorize(ctx context.Context, nonce string, amountCents int64) (string, error)
	Refund(ctx context.Context, transactionID string) error
}

// TransientError marks a gateway fault worth retrying: timeouts, network
// errors, 5xx responses. Declines are never transient.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "gateway: " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// Gateway talks to a Braintree-style payment provider over HTTP.
// Credentials authenticate via Basic auth; the nonce in each sale request
// is single-use, so re-submitting the same nonce cannot double-charge.
type Gateway struct {
	baseURL    string
	merchantID string
	publicKey  string
	privateKey string
	client     *http.Client
}

func NewGateway(baseURL, merchantID, publicKey, privateKey string, timeout time.Duration) *Gateway {
	return &Gateway{
		baseURL:    baseURL,
		merchantID: merchantID,
		publicKey:  publicKey,
		privateKey: privateKey,
		client:     &http.Client{Timeout: timeout},
	}
}

type saleRequest struct {
	Amount             string      `json:"amount"`
	PaymentMethodNonce string      `json:"payment_method_nonce"`
	Options            saleOptions `json:"options"`
}

type saleOptions struct {
	SubmitForSettlement bool `json:"submit_for_settlement"`
}

type saleResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	Transaction struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"transaction"`
}

func (g *Gateway) Authorize(ctx context.Context, nonce string, amountCents int64) (string, error) {
	if amountCents <= 0 {
		return "", &domain.ValidationError{Reason: "amount must be positive"}
	}

	body := saleRequest{
		Amount:             FormatAmount(amountCents),
		PaymentMethodNonce: nonce,
		Options:            saleOptions{SubmitForSettlement: true},
	}

	var out saleResponse
	if err := g.post(ctx, fmt.Sprintf("/merchants/%s/transactions", g.merchantID), body, &out); err != nil {
		return "", err
	}
	if !out.Success {
		return "", &domain.PaymentDeclinedError{Reason: declineReason(out.Message)}
	}
	return out.Transaction.ID, nil
}

func (g *Gateway) Refund(ctx context.Context, transactionID string) error {
	var out saleResponse
	err := g.post(ctx, fmt.Sprintf("/merchants/%s/transactions/%s/refund", g.merchantID, transactionID), struct{}{}, &out)
	if err != nil {
		return err
	}
	if !out.Success {
		return fmt.Errorf("refund rejected for transaction %s: %s", transactionID, out.Message)
	}
	return nil
}

func (g *Gateway) post(ctx context.Context, path string, in, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.publicKey, g.privateKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return &TransientError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransientError{Err: err}
	}
	if resp.StatusCode >= 500 {
		return &TransientError{Err: fmt.Errorf("gateway returned %d", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		var out saleResponse
		if err := json.Unmarshal(raw, &out); err == nil && out.Message != "" {
			return &domain.PaymentDeclinedError{Reason: out.Message}
		}
		return &domain.PaymentDeclinedError{Reason: fmt.Sprintf("gateway rejected request with status %d", resp.StatusCode)}
	}

	return json.Unmarshal(raw, out)
}

func declineReason(msg string) string {
	if msg == "" {
		return "payment method rejected"
	}
	return msg
}

// FormatAmount renders integer cents as the decimal string the gateway
// expects, e.g. 1550 -> "15.50".
func FormatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
