package midtrans

import (
	"bytes"
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"
)

const (
	defaultSandboxBaseURL = "https://api.sandbox.midtrans.com"
	defaultSnapBaseURL    = "https://app.sandbox.midtrans.com/snap/v1"
	defaultTimeout        = 10 * time.Second
)

type Checkout struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type RefundResult struct {
	RefundKey string `json:"refund_key"`
}

type TransactionStatus struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	PaymentType       string `json:"payment_type"`
}

// Client talks to the gateway's Snap and core APIs. Every call carries a
// bounded timeout; on timeout the operation may still have applied on the
// gateway side and is reconciled through notifications or the status poll.
type Client struct {
	serverKey string
	baseURL   string
	snapURL   string
	http      *http.Client
}

func NewClient(serverKey string) *Client {
	return &Client{
		serverKey: serverKey,
		baseURL:   envOrDefault("MIDTRANS_BASE_URL", defaultSandboxBaseURL),
		snapURL:   envOrDefault("MIDTRANS_SNAP_URL", defaultSnapBaseURL),
		http:      &http.Client{Timeout: defaultTimeout},
	}
}

func envOrDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

// CreateCheckout opens a Snap checkout session. orderID doubles as the
// idempotency key, so a retried call for the same booking does not create a
// second gateway transaction.
func (c *Client) CreateCheckout(ctx context.Context, orderID string, grossAmount int64, itemName string) (*Checkout, error) {
	body := map[string]interface{}{
		"transaction_details": map[string]interface{}{
			"order_id":     orderID,
			"gross_amount": grossAmount,
		},
		"item_details": []map[string]interface{}{
			{"id": orderID, "price": grossAmount, "quantity": 1, "name": itemName},
		},
	}
	var out Checkout
	if err := c.post(ctx, c.snapURL+"/transactions", body, &out); err != nil {
		return nil, fmt.Errorf("create checkout %s: %w", orderID, err)
	}
	return &out, nil
}

// Refund reverses a settled transaction. The refund key is deterministic
// per order so gateway-side retries stay idempotent.
func (c *Client) Refund(ctx context.Context, orderID string, amount int64, reason string) (*RefundResult, error) {
	body := map[string]interface{}{
		"refund_key": "refund-" + orderID,
		"amount":     amount,
		"reason":     reason,
	}
	var out RefundResult
	if err := c.post(ctx, c.baseURL+"/v2/"+orderID+"/refund", body, &out); err != nil {
		return nil, fmt.Errorf("refund %s: %w", orderID, err)
	}
	return &out, nil
}

// GetStatus polls the authoritative transaction state, used by the worker
// for payments whose notification never arrived.
func (c *Client) GetStatus(ctx context.Context, orderID string) (*TransactionStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/"+orderID+"/status", nil)
	if err != nil {
		return nil, err
	}
	c.auth(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status %s: %w", orderID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %s: gateway returned %d: %s", orderID, resp.StatusCode, string(b))
	}
	var out TransactionStatus
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifySignature recomputes the notification signature and compares in
// constant time.
func (c *Client) VerifySignature(orderID, statusCode, grossAmount, signatureKey string) bool {
	expected := Signature(orderID, statusCode, grossAmount, c.serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signatureKey)) == 1
}

// Signature is SHA-512 hex over order_id + status_code + gross_amount +
// server_key, the gateway's documented construction.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	h := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(h[:])
}

// grossAmountString renders minor units the way the gateway does in
// notification bodies ("1000000.00").
func grossAmountString(total int64) string {
	return strconv.FormatInt(total, 10) + ".00"
}

func (c *Client) post(ctx context.Context, url string, body interface{}, out interface{}) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.auth(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) auth(req *http.Request) {
	req.SetBasicAuth(c.serverKey, "")
	req.Header.Set("Accept", "application/json")
}
