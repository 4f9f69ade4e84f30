// Package cryptomus implements the payments.Gateway interface against the
// Cryptomus merchant API (https://doc.cryptomus.com).
package cryptomus

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pehlione.com/cryptopay/internal/modules/payments"
)

const DefaultAPIURL = "https://api.cryptomus.com/v1"

type Client struct {
	apiKey   string
	merchant string
	apiURL   string
	httpc    *http.Client
}

type Option func(*Client)

func WithAPIURL(url string) Option {
	return func(c *Client) { c.apiURL = url }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

func New(apiKey, merchant string, opts ...Option) *Client {
	c := &Client{
		apiKey:   apiKey,
		merchant: merchant,
		apiURL:   DefaultAPIURL,
		httpc:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	State   int             `json:"state"`
	Result  map[string]any  `json:"result"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
}

func (c *Client) CreateInvoice(ctx context.Context, req payments.InvoiceRequest) (*payments.InvoiceResult, error) {
	body := map[string]any{
		"amount":       req.Amount,
		"currency":     req.Currency,
		"order_id":     req.OrderID,
		"url_callback": req.URLCallback,
		"url_success":  req.URLSuccess,
	}
	for k, v := range req.Extra {
		if _, reserved := body[k]; reserved {
			continue
		}
		body[k] = v
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal invoice request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/payment", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("merchant", c.merchant)
	httpReq.Header.Set("sign", Sign(raw, c.apiKey))

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("cryptomus request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("cryptomus response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("cryptomus response: unexpected body (status %d)", resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || env.State != 0 {
		msg := env.Message
		if msg == "" && len(env.Errors) > 0 {
			msg = string(env.Errors)
		}
		return nil, fmt.Errorf("cryptomus error (status %d, state %d): %s", resp.StatusCode, env.State, msg)
	}

	url, _ := env.Result["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("cryptomus response: missing payment url")
	}
	gwUUID, _ := env.Result["uuid"].(string)
	gwOrderID, _ := env.Result["order_id"].(string)

	return &payments.InvoiceResult{
		UUID:    gwUUID,
		OrderID: gwOrderID,
		URL:     url,
		Raw:     env.Result,
	}, nil
}

// Sign computes the Cryptomus request signature:
// hex(md5(base64(body) + api_key)).
func Sign(body []byte, apiKey string) string {
	b64 := base64.StdEncoding.EncodeToString(body)
	sum := md5.Sum([]byte(b64 + apiKey))
	return hex.EncodeToString(sum[:])
}
