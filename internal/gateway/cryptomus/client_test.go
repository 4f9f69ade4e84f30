package cryptomus_test

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"pehlione.com/cryptopay/internal/gateway/cryptomus"
	"pehlione.com/cryptopay/internal/modules/payments"
)

const (
	testAPIKey   = "test-api-key"
	testMerchant = "merchant-uuid"
)

func invoiceReq() payments.InvoiceRequest {
	return payments.InvoiceRequest{
		Amount:      "10.00",
		Currency:    "USD",
		OrderID:     "order-1",
		URLCallback: "https://shop.example.com/cb",
		URLSuccess:  "https://shop.example.com/ok",
	}
}

func TestCreateInvoiceSignsAndDecodes(t *testing.T) {
	var gotBody []byte
	var gotSign, gotMerchant string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/payment", r.URL.Path)

		gotBody, _ = io.ReadAll(r.Body)
		gotSign = r.Header.Get("sign")
		gotMerchant = r.Header.Get("merchant")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"state":0,"result":{"uuid":"inv-1","order_id":"order-1","url":"https://pay.cryptomus.com/pay/inv-1","payment_status":"check"}}`))
	}))
	defer srv.Close()

	c := cryptomus.New(testAPIKey, testMerchant, cryptomus.WithAPIURL(srv.URL))

	res, err := c.CreateInvoice(context.Background(), invoiceReq())
	require.NoError(t, err)
	require.Equal(t, "inv-1", res.UUID)
	require.Equal(t, "order-1", res.OrderID)
	require.Equal(t, "https://pay.cryptomus.com/pay/inv-1", res.URL)
	require.Equal(t, "check", res.Raw["payment_status"])

	require.Equal(t, testMerchant, gotMerchant)
	require.Equal(t, cryptomus.Sign(gotBody, testAPIKey), gotSign, "sign header must match the exact body sent")

	var sent map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &sent))
	require.Equal(t, "10.00", sent["amount"])
	require.Equal(t, "USD", sent["currency"])
	require.Equal(t, "order-1", sent["order_id"])
	require.Equal(t, "https://shop.example.com/cb", sent["url_callback"])
	require.Equal(t, "https://shop.example.com/ok", sent["url_success"])
}

func TestCreateInvoiceMergesExtraWithoutOverridingBase(t *testing.T) {
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"state":0,"result":{"url":"https://pay.cryptomus.com/pay/x"}}`))
	}))
	defer srv.Close()

	c := cryptomus.New(testAPIKey, testMerchant, cryptomus.WithAPIURL(srv.URL))

	req := invoiceReq()
	req.Extra = map[string]any{
		"lifetime": float64(3600),
		"amount":   "999.99", // must not clobber the base field
	}

	_, err := c.CreateInvoice(context.Background(), req)
	require.NoError(t, err)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &sent))
	require.Equal(t, float64(3600), sent["lifetime"])
	require.Equal(t, "10.00", sent["amount"])
}

func TestCreateInvoiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"gateway error state", http.StatusOK, `{"state":1,"message":"Invalid merchant"}`},
		{"http error", http.StatusInternalServerError, `{"state":1,"message":"boom"}`},
		{"missing url", http.StatusOK, `{"state":0,"result":{"uuid":"inv-1"}}`},
		{"garbage body", http.StatusOK, `<html>nope</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := cryptomus.New(testAPIKey, testMerchant, cryptomus.WithAPIURL(srv.URL))

			_, err := c.CreateInvoice(context.Background(), invoiceReq())
			require.Error(t, err)
		})
	}
}

func TestSignIsDeterministicHexMD5(t *testing.T) {
	sig := cryptomus.Sign([]byte(`{"amount":"10.00"}`), testAPIKey)
	require.Len(t, sig, 32)
	_, err := hex.DecodeString(sig)
	require.NoError(t, err)

	require.Equal(t, sig, cryptomus.Sign([]byte(`{"amount":"10.00"}`), testAPIKey))
	require.NotEqual(t, sig, cryptomus.Sign([]byte(`{"amount":"10.00"}`), "other-key"))
	require.NotEqual(t, sig, cryptomus.Sign([]byte(`{"amount":"10.01"}`), testAPIKey))
}
